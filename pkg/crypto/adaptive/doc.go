// Package adaptive provides authenticated encryption for tokens at rest.
//
// The encrypting algorithm is picked from hardware capabilities:
//
//   - AES-256-GCM: preferred when hardware AES support is available
//   - ChaCha20-Poly1305: fallback for systems without AES-NI
//
// Every sealed value starts with a one-byte algorithm tag, and decryption
// accepts both algorithms, so a shared store can be read from any machine
// holding the key. Keys are 32 bytes, supplied raw or through ParseKey,
// which accepts hex and base64 encodings.
//
// Usage:
//
//	key, err := adaptive.ParseKey(os.Getenv("AUTHSESSION_STORE__ENCRYPTION_KEY"))
//	c, err := adaptive.New(key)
//	sealed, err := c.Encrypt(plaintext, aad)
//	plaintext, err := c.Decrypt(sealed, aad)
package adaptive
