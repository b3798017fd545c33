package domain

// Phase is the lifecycle phase of the client session.
type Phase string

const (
	PhaseAnonymous      Phase = "anonymous"
	PhaseAuthenticating Phase = "authenticating"
	PhaseAuthenticated  Phase = "authenticated"
	PhaseRefreshing     Phase = "refreshing"
	PhaseLoggingOut     Phase = "loggingOut"
)

// SessionState is a snapshot of the client session.
//
// IsAuthenticated implies Identity and Tokens are both set. A state seeded
// from persisted tokens carries Tokens without Identity and is not
// authenticated until the backend supplies the user.
type SessionState struct {
	Phase           Phase      `json:"phase"`
	Identity        *Identity  `json:"user,omitempty"`
	Tokens          *TokenPair `json:"tokens,omitempty"`
	IsLoading       bool       `json:"isLoading"`
	Error           string     `json:"error,omitempty"`
	IsAuthenticated bool       `json:"isAuthenticated"`
}

// InitialState returns the anonymous starting state.
func InitialState() SessionState {
	return SessionState{Phase: PhaseAnonymous}
}

// Clone returns a deep copy so callers never share pointers with the owner.
func (s SessionState) Clone() SessionState {
	c := s
	c.Tokens = s.Tokens.Clone()
	if s.Identity != nil {
		id := *s.Identity
		c.Identity = &id
	}
	return c
}

// HasSession reports whether tokens are held, authenticated or not.
func (s SessionState) HasSession() bool {
	return s.Tokens != nil && s.Tokens.AccessToken != ""
}

// RefreshToken returns the held refresh token or "".
func (s SessionState) RefreshToken() string {
	if s.Tokens == nil {
		return ""
	}
	return s.Tokens.RefreshToken
}
