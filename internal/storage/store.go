package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/authsession-go/internal/core/domain"
	"github.com/yndnr/authsession-go/internal/storage/memory"
	"github.com/yndnr/authsession-go/pkg/crypto/adaptive"
)

// Well-known key names.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// ErrKeyNotFound is returned by raw key lookups when the key is absent.
var ErrKeyNotFound = errors.New("key not found")

// TokenStore persists one token pair.
type TokenStore interface {
	// Save writes both tokens.
	Save(ctx context.Context, pair domain.TokenPair) error

	// Get returns the stored pair, or nil if either key is missing.
	Get(ctx context.Context) (*domain.TokenPair, error)

	// AccessToken returns the stored access token, or "" if absent.
	AccessToken(ctx context.Context) (string, error)

	// Clear removes both tokens. Clearing an empty store is not an error.
	Clear(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config selects and configures a token store backend.
type Config struct {
	// Backend is one of "badger", "redis", "memory". Default: "badger".
	Backend string

	// Dir is the Badger data directory.
	Dir string

	// Prefix namespaces the two keys.
	Prefix string

	// Redis connection settings.
	Redis RedisConfig

	// EncryptionKey enables at-rest encryption when non-empty
	// (32 bytes, hex or base64 encoded).
	EncryptionKey string
}

// DefaultDir returns the default Badger directory (~/.authsession/tokens).
func DefaultDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".authsession", "tokens")
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Backend: BackendBadger,
		Dir:     DefaultDir(),
		Prefix:  "authsession",
		Redis:   DefaultRedisConfig(),
	}
}

// MetricsSource is implemented by stores that export their own metrics.
type MetricsSource interface {
	RegisterMetrics(registry prometheus.Registerer) error
}

// RegisterMetrics registers the metrics of store, looking through an
// encryption wrapper. Stores without metrics are skipped.
func RegisterMetrics(store TokenStore, registry prometheus.Registerer) error {
	if enc, ok := store.(*EncryptedStore); ok {
		store = enc.inner
	}
	if src, ok := store.(MetricsSource); ok {
		return src.RegisterMetrics(registry)
	}
	return nil
}

// Open builds the configured store.
func Open(cfg Config, logger *slog.Logger) (TokenStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		store TokenStore
		err   error
	)

	switch strings.ToLower(cfg.Backend) {
	case "", BackendBadger:
		store, err = NewBadgerStore(BadgerConfig{Dir: cfg.Dir, Prefix: cfg.Prefix, SyncWrites: true}, logger)
	case BackendRedis:
		rc := cfg.Redis
		rc.Prefix = cfg.Prefix
		store, err = NewRedisStore(rc)
	case BackendMemory:
		store = memory.New()
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.EncryptionKey == "" {
		return store, nil
	}

	key, err := adaptive.ParseKey(cfg.EncryptionKey)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("storage: encryption key: %w", err)
	}
	c, err := adaptive.New(key)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("storage: cipher: %w", err)
	}
	return NewEncryptedStore(store, c), nil
}

// keyName joins prefix and name. An empty prefix yields the bare name.
func keyName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + ":" + name
}

func unavailable(op string, err error) error {
	return domain.ErrStoreUnavailable.WithCause(fmt.Errorf("%s: %w", op, err))
}
