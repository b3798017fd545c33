package token

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Inspector decodes the expiry claim of signed tokens.
type Inspector struct {
	parser *jwt.Parser
	now    func() time.Time
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(i *Inspector) {
		i.now = now
	}
}

// NewInspector creates an Inspector using the wall clock.
func NewInspector(opts ...Option) *Inspector {
	i := &Inspector{
		parser: jwt.NewParser(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ExpiresAt returns the token's exp claim. ok is false when the token
// cannot be decoded or carries no exp.
//
// Only the payload segment is read. The header and signature are neither
// parsed nor checked, so any alg (or none at all) is accepted.
func (i *Inspector) ExpiresAt(token string) (time.Time, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	payload, err := i.parser.DecodeSegment(parts[1])
	if err != nil {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, false
	}

	nd, err := claims.GetExpirationTime()
	if err != nil || nd == nil {
		return time.Time{}, false
	}
	return nd.Time, true
}

// IsExpired reports whether token must be treated as expired.
//
// A token is valid only while exp (in milliseconds) is strictly after now.
// Anything undecodable or missing exp is expired.
func (i *Inspector) IsExpired(token string) bool {
	exp, ok := i.ExpiresAt(token)
	if !ok {
		return true
	}
	return exp.UnixMilli() <= i.now().UnixMilli()
}

// IsValid is the negation of IsExpired.
func (i *Inspector) IsValid(token string) bool {
	return !i.IsExpired(token)
}

// TimeLeft returns how long until token expires, or 0 if it already has.
func (i *Inspector) TimeLeft(token string) time.Duration {
	exp, ok := i.ExpiresAt(token)
	if !ok {
		return 0
	}
	left := exp.Sub(i.now())
	if left < 0 {
		return 0
	}
	return left
}
