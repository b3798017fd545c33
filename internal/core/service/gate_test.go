package service

import (
	"errors"
	"testing"

	"github.com/yndnr/authsession-go/internal/core/domain"
)

func TestGate(t *testing.T) {
	tokens := &domain.TokenPair{AccessToken: "T1", RefreshToken: "R1"}

	tests := []struct {
		name        string
		state       domain.SessionState
		gate        error
		requireSess error
	}{
		{"anonymous", domain.InitialState(), domain.ErrLoginRequired, domain.ErrLoginRequired},
		{"logging in", domain.SessionState{Phase: domain.PhaseAuthenticating, IsLoading: true}, domain.ErrSessionPending, domain.ErrLoginRequired},
		{"restored tokens", domain.SessionState{Phase: domain.PhaseAnonymous, Tokens: tokens}, domain.ErrLoginRequired, nil},
		{"authenticated", domain.SessionState{
			Phase:           domain.PhaseAuthenticated,
			Identity:        &domain.Identity{ID: "u1"},
			Tokens:          tokens,
			IsAuthenticated: true,
		}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Gate(tt.state); !errors.Is(err, tt.gate) || (tt.gate == nil) != (err == nil) {
				t.Errorf("Gate() = %v, want %v", err, tt.gate)
			}
			if err := RequireSession(tt.state); !errors.Is(err, tt.requireSess) || (tt.requireSess == nil) != (err == nil) {
				t.Errorf("RequireSession() = %v, want %v", err, tt.requireSess)
			}
		})
	}
}
