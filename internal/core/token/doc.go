// Package token inspects access tokens on the client side.
//
// Inspection only decodes claims to short-circuit requests with a token
// that is already stale. Signatures are never verified here; the backend
// remains the authority on whether a token is acceptable.
package token
