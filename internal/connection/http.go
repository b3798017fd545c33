package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/authsession-go/internal/telemetry/logger"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:3001/api"

// HTTPConfig configures an HTTPClient.
type HTTPConfig struct {
	// BaseURL prefixes every request path.
	BaseURL string

	// Timeout bounds a whole round trip. Zero means no timeout.
	Timeout time.Duration

	// SocketPath, when set, dials the backend over this Unix socket.
	SocketPath string

	// RateLimit caps outgoing requests per second. Zero disables the limit.
	RateLimit float64

	// RateBurst is the limiter bucket size (at least 1).
	RateBurst int

	// UserAgent is sent on every request.
	UserAgent string

	// TLS overrides the client TLS settings for https base URLs.
	TLS *tls.Config
}

// DefaultHTTPConfig returns the default client settings.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		BaseURL:   DefaultBaseURL,
		Timeout:   30 * time.Second,
		UserAgent: "authsession/1.0",
	}
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// HTTPClient sends JSON requests to the backend.
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewHTTPClient creates a new HTTP client.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	client := &http.Client{Timeout: cfg.Timeout}
	switch {
	case cfg.SocketPath != "":
		t := unixTransport(cfg.SocketPath)
		t.TLSClientConfig = cfg.TLS
		client.Transport = t
	case cfg.TLS != nil:
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = cfg.TLS
		client.Transport = t
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultHTTPConfig().UserAgent
	}

	return &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    client,
		limiter:   limiter,
		userAgent: userAgent,
	}
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Do sends one request and reads the whole response body.
//
// Content-Type is always application/json; entries in header override
// the defaults. A transport failure is returned as is.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body []byte, header http.Header) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := logger.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = ulid.Make().String()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	for k, vs := range header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	logger.L(ctx).Debug("http round trip",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"elapsed", time.Since(start),
	)

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// BearerHeader returns an Authorization header for token.
func BearerHeader(token string) http.Header {
	h := make(http.Header, 1)
	h.Set("Authorization", "Bearer "+token)
	return h
}
