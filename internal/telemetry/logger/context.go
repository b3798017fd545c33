package logger

import "context"

// scopeKey is the single context key of this package.
type scopeKey struct{}

// scope is what a context carries for logging. Every With* helper stores a
// modified copy, so parent contexts are never affected.
type scope struct {
	logger    Logger
	requestID string
	operation string
}

func scopeFrom(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func withScope(ctx context.Context, edit func(*scope)) context.Context {
	s := scopeFrom(ctx)
	edit(&s)
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return withScope(ctx, func(s *scope) { s.logger = l })
}

// FromContext extracts the logger from context, or Default().
func FromContext(ctx context.Context) Logger {
	if l := scopeFrom(ctx).logger; l != nil {
		return l
	}
	return Default()
}

// WithRequestID adds a request ID to the context. The HTTP client sends it
// as X-Request-ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withScope(ctx, func(s *scope) { s.requestID = requestID })
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).requestID
}

// WithOperation names the session operation (login, refresh...) that
// work under ctx belongs to. An inner operation replaces the outer one.
func WithOperation(ctx context.Context, op string) context.Context {
	return withScope(ctx, func(s *scope) { s.operation = op })
}

// OperationFromContext returns the operation set by WithOperation.
func OperationFromContext(ctx context.Context) string {
	return scopeFrom(ctx).operation
}

// L returns the context logger with request_id and operation attached
// when they are set.
func L(ctx context.Context) Logger {
	s := scopeFrom(ctx)
	l := FromContext(ctx)
	if s.requestID != "" {
		l = l.With("request_id", s.requestID)
	}
	if s.operation != "" {
		l = l.With("operation", s.operation)
	}
	return l
}
