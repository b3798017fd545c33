package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yndnr/authsession-go/internal/core/domain"
	"github.com/yndnr/authsession-go/internal/core/token"
	"github.com/yndnr/authsession-go/internal/storage/memory"
)

var jwtSeq struct {
	mu sync.Mutex
	n  int
}

// jwtToken returns a signed token expiring at exp. Every call yields a
// distinct token.
func jwtToken(t *testing.T, exp time.Time) string {
	t.Helper()
	jwtSeq.mu.Lock()
	jwtSeq.n++
	n := jwtSeq.n
	jwtSeq.mu.Unlock()

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
		"jti": n,
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func freshToken(t *testing.T) string   { return jwtToken(t, time.Now().Add(time.Hour)) }
func expiredToken(t *testing.T) string { return jwtToken(t, time.Now().Add(-time.Hour)) }

func authResult(access, refresh string) *domain.AuthResult {
	return &domain.AuthResult{
		User:   domain.Identity{ID: "u1", Email: "a@b.com", Name: "Ann"},
		Tokens: domain.TokenPair{AccessToken: access, RefreshToken: refresh},
	}
}

// fakeClient is a scriptable AuthClient.
type fakeClient struct {
	mu sync.Mutex

	loginResult    *domain.AuthResult
	loginErr       error
	registerResult *domain.AuthResult
	registerErr    error
	refreshFn      func(ctx context.Context, refreshToken string) (*domain.AuthResult, error)
	logoutErr      error

	calls         map[string]int
	refreshTokens []string
	lastCreds     domain.Credentials
}

func newFakeClient() *fakeClient {
	return &fakeClient{calls: make(map[string]int)}
}

func (f *fakeClient) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeClient) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeClient) Login(_ context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	f.record(opLogin)
	f.mu.Lock()
	f.lastCreds = creds
	f.mu.Unlock()
	return f.loginResult, f.loginErr
}

func (f *fakeClient) Register(_ context.Context, _ domain.RegistrationData) (*domain.AuthResult, error) {
	f.record(opRegister)
	return f.registerResult, f.registerErr
}

func (f *fakeClient) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	f.record(opRefresh)
	f.mu.Lock()
	f.refreshTokens = append(f.refreshTokens, refreshToken)
	fn := f.refreshFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("refresh not scripted")
	}
	return fn(ctx, refreshToken)
}

func (f *fakeClient) Logout(context.Context) error {
	f.record(opLogout)
	return f.logoutErr
}

// failingStore wraps memory.Store and fails saves.
type failingStore struct {
	*memory.Store
}

func (failingStore) Save(context.Context, domain.TokenPair) error {
	return domain.ErrStoreUnavailable
}

func newTestSession(client AuthClient, store TokenStore, opts ...Option) *Session {
	return NewSession(client, store, token.NewInspector(), opts...)
}

func storedPair(t *testing.T, store TokenStore) *domain.TokenPair {
	t.Helper()
	pair, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("store.Get() error = %v", err)
	}
	return pair
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 1s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
