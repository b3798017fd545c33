// Package tlsroots builds client TLS settings for talking to the backend.
//
// The trust store starts from the system roots and can be extended with a
// private CA bundle; a client certificate may be added for backends that
// require mutual TLS. CertWatcher serves that certificate and, once
// started, reloads it when the files on disk are rotated.
package tlsroots
