package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNoCertsFound is returned when no certificates are found in a PEM file.
	ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM file")

	// ErrIncompleteKeyPair is returned when only one of cert and key is set.
	ErrIncompleteKeyPair = errors.New("tlsroots: client certificate and key must be set together")
)

// Config selects the trust store and client identity.
type Config struct {
	// CAFile is a PEM bundle trusted in addition to the system roots.
	CAFile string

	// CertFile and KeyFile hold the client certificate for mutual TLS.
	CertFile string
	KeyFile  string
}

// Enabled reports whether any custom TLS setting is present.
func (c Config) Enabled() bool {
	return c.CAFile != "" || c.CertFile != "" || c.KeyFile != ""
}

// Load builds a client tls.Config from cfg. It returns nil values when cfg
// sets nothing, so callers keep Go's default transport.
//
// A client certificate is served through the returned CertWatcher, which
// long-running callers may Start to pick up rotated files.
func Load(cfg Config, opts ...WatcherOption) (*tls.Config, *CertWatcher, error) {
	if !cfg.Enabled() {
		return nil, nil, nil
	}
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return nil, nil, ErrIncompleteKeyPair
	}

	pool := NewPool()
	if cfg.CAFile != "" {
		if err := pool.AddCertFile(cfg.CAFile); err != nil {
			return nil, nil, err
		}
	}

	tlsConfig := pool.TLSConfig()
	if cfg.CertFile == "" {
		return tlsConfig, nil, nil
	}

	certs, err := NewCertWatcher(cfg.CertFile, cfg.KeyFile, opts...)
	if err != nil {
		return nil, nil, err
	}
	tlsConfig.GetClientCertificate = certs.GetClientCertificate
	return tlsConfig, certs, nil
}

// Pool manages a pool of trusted root certificates.
type Pool struct {
	certPool *x509.CertPool
}

// NewPool creates a pool seeded with the system roots, or an empty pool
// where the system store is unavailable.
func NewPool() *Pool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	return &Pool{certPool: pool}
}

// NewEmptyPool creates a pool without system roots.
func NewEmptyPool() *Pool {
	return &Pool{certPool: x509.NewCertPool()}
}

// AddCertFile adds every certificate in a PEM file.
func (p *Pool) AddCertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read cert file %s: %w", path, err)
	}
	if err := p.AddCertPEM(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// AddCertPEM adds certificates from PEM-encoded data. Non-certificate
// blocks are skipped.
func (p *Pool) AddCertPEM(pemData []byte) error {
	var added int
	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		p.certPool.AddCert(cert)
		added++
	}

	if added == 0 {
		return ErrNoCertsFound
	}
	return nil
}

// Pool returns the underlying x509.CertPool.
func (p *Pool) Pool() *x509.CertPool {
	return p.certPool
}

// TLSConfig creates a client TLS config trusting this pool.
func (p *Pool) TLSConfig() *tls.Config {
	return &tls.Config{
		RootCAs:    p.certPool,
		MinVersion: tls.VersionTLS12,
	}
}
