// Package logger provides structured logging for authsession.
//
// It wraps log/slog with JSON or text output, a runtime-adjustable level
// and redaction of credentials: JWTs, bearer headers, passwords and any
// attribute whose key names a secret never reach the output in clear.
//
// Components take a Logger; request-scoped values travel in the context
// and are attached with L(ctx).
package logger
