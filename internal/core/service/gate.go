package service

import "github.com/yndnr/authsession-go/internal/core/domain"

// Gate admits an authenticated session.
//
// While a login or registration is in flight it returns
// domain.ErrSessionPending; otherwise an unauthenticated session gets
// domain.ErrLoginRequired, which callers turn into a prompt to log in.
func Gate(state domain.SessionState) error {
	switch {
	case state.IsAuthenticated:
		return nil
	case state.IsLoading:
		return domain.ErrSessionPending
	default:
		return domain.ErrLoginRequired
	}
}

// RequireSession admits any session holding tokens, including one restored
// at start-up whose identity is not known yet.
func RequireSession(state domain.SessionState) error {
	if state.HasSession() {
		return nil
	}
	return domain.ErrLoginRequired
}
