package service

import (
	"context"
	"encoding/json"

	"github.com/yndnr/authsession-go/internal/core/domain"
)

// DefaultProfilePath is the endpoint returning the signed-in user.
const DefaultProfilePath = "/auth/me"

// LoadProfile fetches the current user through p and records it.
//
// The payload may be the user itself or wrapped as {"user": ...}.
func (s *Session) LoadProfile(ctx context.Context, p *Pipeline, path string) (*domain.Identity, error) {
	if path == "" {
		path = DefaultProfilePath
	}

	var raw json.RawMessage
	if err := p.Get(ctx, path, &raw); err != nil {
		return nil, err
	}

	identity, err := decodeIdentity(raw)
	if err != nil {
		return nil, err
	}

	s.SetIdentity(*identity)
	return identity, nil
}

func decodeIdentity(raw json.RawMessage) (*domain.Identity, error) {
	var wrapped struct {
		User *domain.Identity `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil && wrapped.User.ID != "" {
		return wrapped.User, nil
	}

	var identity domain.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil, domain.ErrUnexpected.WithCause(err)
	}
	if identity.ID == "" {
		return nil, domain.ErrUnexpected.WithDetails("profile response has no user id")
	}
	return &identity, nil
}
