// Package domain defines the core domain models for authsession.
//
// Domain models are plain value types without IO dependencies:
//
//   - Credentials, RegistrationData: transient login/registration input
//   - TokenPair: the access/refresh credential pair
//   - Identity: the authenticated user as reported by the backend
//   - SessionState: the in-memory session snapshot
//   - Errors: coded domain errors shared by every layer
package domain
