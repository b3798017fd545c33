// Package service holds the client session logic.
//
//   - Session: the state machine owning identity, tokens and loading/error
//     flags; the only writer of session state
//   - Pipeline: sends business requests with a fresh access token and
//     tears the session down when the backend stops accepting it
//   - Gate / RequireSession: checks protected commands run before doing work
//
// Storage and transport are injected through the small interfaces declared
// here so tests can swap them out.
package service
