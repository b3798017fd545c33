// Package connection talks to the authentication backend.
//
//   - http.go: HTTP client with base URL, request IDs and rate limiting
//   - socket.go: optional Unix socket transport for a local backend
//   - envelope.go: decoder for the {status, message, data} response envelope
//   - session_client.go: login, register, refresh and logout calls
//
// Nothing here touches session state; callers decide what a result means.
package connection
