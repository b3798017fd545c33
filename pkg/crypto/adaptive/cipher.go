package adaptive

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
)

var (
	// ErrUnknownAlgorithm is returned for an algorithm tag this package
	// does not implement.
	ErrUnknownAlgorithm = errors.New("adaptive: unknown algorithm")

	// ErrMalformed is returned when a sealed value is too short to hold
	// the tag, nonce and authentication tag.
	ErrMalformed = errors.New("adaptive: malformed ciphertext")

	// ErrDecrypt is returned when authentication fails: wrong key,
	// wrong additional data or modified ciphertext.
	ErrDecrypt = errors.New("adaptive: decryption failed")
)

// Cipher seals values with one key under every supported algorithm.
//
// Encrypt uses the preferred algorithm; Decrypt reads the tag, so a value
// sealed on a machine preferring AES-GCM opens on one preferring ChaCha20
// as long as the key matches. The layout is tag || nonce || ciphertext,
// and the tag is covered by the additional data.
type Cipher struct {
	algorithm Algorithm
	aeads     map[Algorithm]cipher.AEAD
}

// New creates a Cipher that encrypts with Preferred().
func New(key []byte) (*Cipher, error) {
	return NewWithAlgorithm(key, Preferred())
}

// NewWithAlgorithm creates a Cipher that encrypts with a.
func NewWithAlgorithm(key []byte, a Algorithm) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	c := &Cipher{algorithm: a, aeads: make(map[Algorithm]cipher.AEAD, 2)}
	for _, alg := range []Algorithm{AESGCM, ChaCha20Poly1305} {
		aead, err := newAEAD(alg, key)
		if err != nil {
			return nil, err
		}
		c.aeads[alg] = aead
	}
	if _, ok := c.aeads[a]; !ok {
		return nil, ErrUnknownAlgorithm
	}
	return c, nil
}

// Algorithm returns the algorithm Encrypt uses.
func (c *Cipher) Algorithm() Algorithm {
	return c.algorithm
}

// Encrypt seals plaintext. additionalData is authenticated, not stored.
func (c *Cipher) Encrypt(plaintext, additionalData []byte) ([]byte, error) {
	aead := c.aeads[c.algorithm]

	out := make([]byte, 1+aead.NonceSize(), 1+aead.NonceSize()+len(plaintext)+aead.Overhead())
	out[0] = byte(c.algorithm)
	nonce := out[1:]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aead.Seal(out, nonce, plaintext, bindTag(c.algorithm, additionalData)), nil
}

// Decrypt opens a value produced by Encrypt under any supported algorithm.
func (c *Cipher) Decrypt(sealed, additionalData []byte) ([]byte, error) {
	if len(sealed) == 0 {
		return nil, ErrMalformed
	}
	alg := Algorithm(sealed[0])
	aead, ok := c.aeads[alg]
	if !ok {
		return nil, ErrUnknownAlgorithm
	}

	body := sealed[1:]
	if len(body) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrMalformed
	}
	nonce, ct := body[:aead.NonceSize()], body[aead.NonceSize():]

	pt, err := aead.Open(nil, nonce, ct, bindTag(alg, additionalData))
	if err != nil {
		return nil, ErrDecrypt
	}
	return pt, nil
}

func bindTag(a Algorithm, additionalData []byte) []byte {
	ad := make([]byte, 0, 1+len(additionalData))
	ad = append(ad, byte(a))
	return append(ad, additionalData...)
}
