package service

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/yndnr/authsession-go/internal/connection"
	"github.com/yndnr/authsession-go/internal/core/domain"
	"github.com/yndnr/authsession-go/internal/telemetry/logger"
	"github.com/yndnr/authsession-go/internal/telemetry/metric"
)

// Doer sends one HTTP request and returns the read response.
type Doer interface {
	Do(ctx context.Context, method, path string, body []byte, header http.Header) (*connection.Response, error)
}

// Forced-clear reasons.
const (
	clearExpired      = "expired"
	clearUnauthorized = "unauthorized"
)

// Request is a business request sent through the pipeline.
type Request struct {
	Method string
	Path   string
	// Body is JSON-encoded when non-nil; json.RawMessage is sent as is.
	Body any
	// Header entries override the pipeline defaults.
	Header http.Header
}

// Pipeline sends business requests on behalf of the session.
//
// Before sending it refreshes an access token the inspector already
// considers expired. A 401 from the backend, or a refresh that fails,
// clears the session.
type Pipeline struct {
	doer    Doer
	store   TokenStore
	checker TokenChecker
	session *Session
	logger  logger.Logger
	metrics *metric.Registry
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets the pipeline logger.
func WithPipelineLogger(l logger.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithPipelineMetrics records request outcomes in r.
func WithPipelineMetrics(r *metric.Registry) PipelineOption {
	return func(p *Pipeline) { p.metrics = r }
}

// NewPipeline creates a pipeline reading tokens from store and refreshing
// through session.
func NewPipeline(doer Doer, store TokenStore, checker TokenChecker, session *Session, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		doer:    doer,
		store:   store,
		checker: checker,
		session: session,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "pipeline")
	return p
}

// Get sends a GET request and decodes the payload into out.
func (p *Pipeline) Get(ctx context.Context, path string, out any) error {
	return p.Do(ctx, http.MethodGet, path, nil, out)
}

// Post sends a POST request.
func (p *Pipeline) Post(ctx context.Context, path string, body, out any) error {
	return p.Do(ctx, http.MethodPost, path, body, out)
}

// Put sends a PUT request.
func (p *Pipeline) Put(ctx context.Context, path string, body, out any) error {
	return p.Do(ctx, http.MethodPut, path, body, out)
}

// Delete sends a DELETE request.
func (p *Pipeline) Delete(ctx context.Context, path string, out any) error {
	return p.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends method path with body and decodes the envelope payload into out.
// out may be nil; an empty 2xx body leaves it untouched.
func (p *Pipeline) Do(ctx context.Context, method, path string, body, out any) error {
	return p.Send(ctx, Request{Method: method, Path: path, Body: body}, out)
}

// Send is Do with caller-supplied headers.
func (p *Pipeline) Send(ctx context.Context, req Request, out any) error {
	if logger.OperationFromContext(ctx) == "" {
		ctx = logger.WithOperation(ctx, "request")
	}
	start := time.Now()
	err := p.send(ctx, req, out)
	p.metrics.ObserveRequest(req.Method, err, time.Since(start))
	if err != nil {
		p.logger.Debug("request failed", "method", req.Method, "path", req.Path, "error", err)
	}
	return err
}

func (p *Pipeline) send(ctx context.Context, req Request, out any) error {
	token, err := p.store.AccessToken(ctx)
	if err != nil {
		return err
	}

	if token != "" && p.checker.IsExpired(token) {
		p.logger.Debug("access token expired, refreshing", "path", req.Path)
		if err := p.session.Refresh(ctx); err != nil {
			if isContextError(ctx, err) {
				return err
			}
			p.forceClear(ctx, clearExpired)
			return domain.ErrSessionExpired.WithCause(err)
		}
		if token, err = p.store.AccessToken(ctx); err != nil {
			return err
		}
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return err
	}

	header := make(http.Header, len(req.Header)+1)
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	for k, vs := range req.Header {
		header[http.CanonicalHeaderKey(k)] = vs
	}

	resp, err := p.doer.Do(ctx, req.Method, req.Path, body, header)
	if err != nil {
		return domain.ErrUnexpected.WithCause(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		p.forceClear(ctx, clearUnauthorized)
		return domain.ErrAuthenticationFailed.WithStatus(resp.StatusCode)
	}
	if !resp.OK() {
		return domain.ErrHTTP.
			WithDetails(connection.FailureMessage(resp.Body, resp.StatusCode)).
			WithStatus(resp.StatusCode)
	}

	if len(resp.Body) == 0 {
		return nil
	}

	env, err := connection.DecodeEnvelope(resp.Body)
	if err != nil {
		return err
	}
	if !env.Success() {
		msg := env.Failure()
		if msg == "" {
			msg = connection.FailureMessage(nil, resp.StatusCode)
		}
		return domain.ErrHTTP.WithDetails(msg).WithStatus(resp.StatusCode)
	}
	if err := env.DecodeData(out); err != nil {
		return domain.ErrUnexpected.WithCause(err)
	}
	return nil
}

func (p *Pipeline) forceClear(ctx context.Context, reason string) {
	p.logger.Info("clearing session", "reason", reason)
	p.metrics.ObserveForcedClear(reason)
	p.session.ClearAuth(ctx)
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return b, nil
	case []byte:
		return b, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, domain.ErrValidation.WithDetails("request body is not JSON-encodable").WithCause(err)
		}
		return data, nil
	}
}
