package tlsroots

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	if NewPool().Pool() == nil {
		t.Fatal("Pool() returned nil")
	}
	if NewEmptyPool().Pool() == nil {
		t.Fatal("empty Pool() returned nil")
	}
}

func TestAddCertPEM(t *testing.T) {
	pool := NewEmptyPool()

	if err := pool.AddCertPEM(generateTestCertPEM(t)); err != nil {
		t.Fatalf("AddCertPEM() error = %v", err)
	}

	two := append(generateTestCertPEM(t), generateTestCertPEM(t)...)
	if err := pool.AddCertPEM(two); err != nil {
		t.Fatalf("AddCertPEM(two certs) error = %v", err)
	}
}

func TestAddCertPEM_Rejects(t *testing.T) {
	pool := NewEmptyPool()

	if err := pool.AddCertPEM(nil); !errors.Is(err, ErrNoCertsFound) {
		t.Errorf("empty: error = %v, want ErrNoCertsFound", err)
	}

	keyOnly := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte("x")})
	if err := pool.AddCertPEM(keyOnly); !errors.Is(err, ErrNoCertsFound) {
		t.Errorf("key only: error = %v, want ErrNoCertsFound", err)
	}

	garbage := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("not der")})
	if err := pool.AddCertPEM(garbage); err == nil {
		t.Error("invalid certificate should fail")
	}
}

func TestAddCertFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(path, generateTestCertPEM(t), 0644); err != nil {
		t.Fatal(err)
	}

	if err := NewEmptyPool().AddCertFile(path); err != nil {
		t.Fatalf("AddCertFile() error = %v", err)
	}
	if err := NewEmptyPool().AddCertFile(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestTLSConfig(t *testing.T) {
	pool := NewEmptyPool()

	config := pool.TLSConfig()
	if config.RootCAs != pool.Pool() {
		t.Error("TLSConfig().RootCAs != pool.Pool()")
	}
	if config.MinVersion != 0x0303 {
		t.Errorf("MinVersion = %v, want TLS 1.2", config.MinVersion)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	caFile := filepath.Join(dir, "ca.pem")
	if err := os.WriteFile(caFile, generateTestCertPEM(t), 0644); err != nil {
		t.Fatal(err)
	}
	certFile := filepath.Join(dir, "client.crt")
	keyFile := filepath.Join(dir, "client.key")
	generateTestCertAndKey(t, certFile, keyFile)

	t.Run("nothing set", func(t *testing.T) {
		cfg, certs, err := Load(Config{})
		if err != nil || cfg != nil || certs != nil {
			t.Errorf("Load() = %v, %v, %v; want nils", cfg, certs, err)
		}
	})

	t.Run("ca only", func(t *testing.T) {
		cfg, certs, err := Load(Config{CAFile: caFile})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.RootCAs == nil || cfg.GetClientCertificate != nil || certs != nil {
			t.Errorf("cfg = %+v, certs = %v", cfg, certs)
		}
	})

	t.Run("client certificate", func(t *testing.T) {
		cfg, certs, err := Load(Config{CertFile: certFile, KeyFile: keyFile})
		if err != nil {
			t.Fatal(err)
		}
		if certs == nil || cfg.GetClientCertificate == nil {
			t.Fatal("client certificate should be served by a watcher")
		}
		cert, err := cfg.GetClientCertificate(nil)
		if err != nil || cert != certs.Certificate() {
			t.Errorf("GetClientCertificate() = %v, %v", cert, err)
		}
	})

	t.Run("half key pair", func(t *testing.T) {
		if _, _, err := Load(Config{CertFile: certFile}); !errors.Is(err, ErrIncompleteKeyPair) {
			t.Errorf("error = %v, want ErrIncompleteKeyPair", err)
		}
	})

	t.Run("bad files", func(t *testing.T) {
		if _, _, err := Load(Config{CAFile: filepath.Join(dir, "nope.pem")}); err == nil {
			t.Error("missing CA file should fail")
		}
		if _, _, err := Load(Config{CertFile: "/nonexistent/cert", KeyFile: "/nonexistent/key"}); err == nil {
			t.Error("missing key pair should fail")
		}
	})
}

// generateTestCertPEM generates a self-signed CA certificate in PEM format.
func generateTestCertPEM(t *testing.T) []byte {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			Organization: []string{"Test Org"},
			CommonName:   "test.local",
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

// generateTestCertAndKey writes a self-signed client certificate and its key.
func generateTestCertAndKey(t *testing.T, certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "authsession-client"},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}
	if err := os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0644); err != nil {
		t.Fatalf("WriteFile(cert) error = %v", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey() error = %v", err)
	}
	if err := os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0600); err != nil {
		t.Fatalf("WriteFile(key) error = %v", err)
	}
}
