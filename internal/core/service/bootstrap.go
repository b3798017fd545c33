package service

import (
	"context"

	"github.com/yndnr/authsession-go/internal/core/domain"
)

// Bootstrap seeds the session from the store. Call it once at start-up.
//
// A stored pair whose access token is still valid is loaded as a
// tokens-only session: the identity is unknown, so the session is not
// authenticated until a refresh or profile fetch supplies the user.
// Anything else is wiped from the store.
func (s *Session) Bootstrap(ctx context.Context) error {
	pair, err := s.store.Get(ctx)
	if err != nil {
		return err
	}

	if pair != nil && !s.checker.IsExpired(pair.AccessToken) {
		s.logger.Debug("restored tokens from store")
		s.update(func(st *domain.SessionState) {
			st.Phase = domain.PhaseAnonymous
			st.Tokens = pair.Clone()
			st.Identity = nil
			st.IsAuthenticated = false
		})
		return nil
	}

	if pair != nil {
		s.logger.Debug("discarding stale tokens")
	}
	return s.store.Clear(ctx)
}
