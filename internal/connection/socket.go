package connection

import (
	"context"
	"net"
	"net/http"
	"time"
)

// unixTransport routes every request to the socket at path; the URL host
// is ignored.
func unixTransport(path string) *http.Transport {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	return &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, "unix", path)
		},
		MaxIdleConns:    2,
		IdleConnTimeout: 30 * time.Second,
	}
}
