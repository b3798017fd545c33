package storage

import (
	"context"
	"encoding/base64"

	"github.com/yndnr/authsession-go/internal/core/domain"
	"github.com/yndnr/authsession-go/pkg/crypto/adaptive"
)

// EncryptedStore encrypts each token before handing it to the wrapped store.
//
// A value that does not decrypt (wrong key, tampering, plaintext left over
// from an unencrypted store) reads as absent.
type EncryptedStore struct {
	inner  TokenStore
	cipher *adaptive.Cipher
}

// NewEncryptedStore wraps inner with cipher c.
func NewEncryptedStore(inner TokenStore, c *adaptive.Cipher) *EncryptedStore {
	return &EncryptedStore{inner: inner, cipher: c}
}

// Save encrypts and stores both tokens.
func (s *EncryptedStore) Save(ctx context.Context, pair domain.TokenPair) error {
	access, err := s.seal(AccessTokenKey, pair.AccessToken)
	if err != nil {
		return unavailable("encrypt", err)
	}
	refresh, err := s.seal(RefreshTokenKey, pair.RefreshToken)
	if err != nil {
		return unavailable("encrypt", err)
	}
	return s.inner.Save(ctx, domain.TokenPair{AccessToken: access, RefreshToken: refresh})
}

// Get decrypts the stored pair.
func (s *EncryptedStore) Get(ctx context.Context) (*domain.TokenPair, error) {
	sealed, err := s.inner.Get(ctx)
	if err != nil || sealed == nil {
		return nil, err
	}
	access, ok := s.open(AccessTokenKey, sealed.AccessToken)
	if !ok {
		return nil, nil
	}
	refresh, ok := s.open(RefreshTokenKey, sealed.RefreshToken)
	if !ok {
		return nil, nil
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// AccessToken decrypts the stored access token.
func (s *EncryptedStore) AccessToken(ctx context.Context) (string, error) {
	sealed, err := s.inner.AccessToken(ctx)
	if err != nil || sealed == "" {
		return "", err
	}
	token, ok := s.open(AccessTokenKey, sealed)
	if !ok {
		return "", nil
	}
	return token, nil
}

// Clear clears the wrapped store.
func (s *EncryptedStore) Clear(ctx context.Context) error {
	return s.inner.Clear(ctx)
}

// Close closes the wrapped store.
func (s *EncryptedStore) Close() error {
	return s.inner.Close()
}

// seal binds the key name as additional data so the two values cannot be swapped.
func (s *EncryptedStore) seal(name, value string) (string, error) {
	ct, err := s.cipher.Encrypt([]byte(value), []byte(name))
	if err != nil {
		return "", err
	}
	return base64.RawStdEncoding.EncodeToString(ct), nil
}

func (s *EncryptedStore) open(name, value string) (string, bool) {
	ct, err := base64.RawStdEncoding.DecodeString(value)
	if err != nil {
		return "", false
	}
	pt, err := s.cipher.Decrypt(ct, []byte(name))
	if err != nil {
		return "", false
	}
	return string(pt), true
}
