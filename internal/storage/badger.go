package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/authsession-go/internal/core/domain"
)

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Dir is the storage directory (created if missing).
	Dir string

	// Prefix namespaces the token keys.
	Prefix string

	// InMemory runs Badger without touching disk (tests only).
	InMemory bool

	// SyncWrites fsyncs every write so a pair saved right before a crash
	// is still there on the next start.
	SyncWrites bool
}

// BadgerStore keeps the token pair in an embedded Badger database.
type BadgerStore struct {
	db     *badger.DB
	prefix string
	logger *slog.Logger

	metricsSize prometheus.Gauge
}

// NewBadgerStore opens (or creates) the Badger database at cfg.Dir.
func NewBadgerStore(cfg BadgerConfig, logger *slog.Logger) (*BadgerStore, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
			return nil, fmt.Errorf("badger: create dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = cfg.SyncWrites
	// The store only ever holds two short values.
	opts.ValueLogFileSize = 1 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	logger.Debug("badger token store opened", "dir", cfg.Dir, "in_memory", cfg.InMemory)

	return &BadgerStore{
		db:     db,
		prefix: cfg.Prefix,
		logger: logger,
	}, nil
}

// Save writes both tokens in one transaction.
func (s *BadgerStore) Save(ctx context.Context, pair domain.TokenPair) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(s.key(AccessTokenKey), []byte(pair.AccessToken)); err != nil {
			return err
		}
		return txn.Set(s.key(RefreshTokenKey), []byte(pair.RefreshToken))
	})
	if err != nil {
		return unavailable("save", err)
	}
	s.updateMetrics()
	return nil
}

// Get returns the pair only when both keys exist.
func (s *BadgerStore) Get(ctx context.Context) (*domain.TokenPair, error) {
	var pair domain.TokenPair
	found := true

	err := s.db.View(func(txn *badger.Txn) error {
		access, err := readValue(txn, s.key(AccessTokenKey))
		if err != nil {
			return err
		}
		refresh, err := readValue(txn, s.key(RefreshTokenKey))
		if err != nil {
			return err
		}
		pair = domain.TokenPair{AccessToken: string(access), RefreshToken: string(refresh)}
		return nil
	})
	if errors.Is(err, ErrKeyNotFound) {
		found = false
		err = nil
	}
	if err != nil {
		return nil, unavailable("get", err)
	}
	if !found || !pair.Complete() {
		return nil, nil
	}
	return &pair, nil
}

// AccessToken returns the stored access token or "".
func (s *BadgerStore) AccessToken(ctx context.Context) (string, error) {
	var token []byte
	err := s.db.View(func(txn *badger.Txn) error {
		v, err := readValue(txn, s.key(AccessTokenKey))
		token = v
		return err
	})
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", unavailable("get access token", err)
	}
	return string(token), nil
}

// Clear deletes both keys.
func (s *BadgerStore) Clear(ctx context.Context) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(s.key(AccessTokenKey)); err != nil {
			return err
		}
		return txn.Delete(s.key(RefreshTokenKey))
	})
	if err != nil {
		return unavailable("clear", err)
	}
	s.updateMetrics()
	return nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	s.logger.Debug("badger token store closed")
	return nil
}

// RegisterMetrics registers the store size gauge with registry. The gauge
// is refreshed on every write.
func (s *BadgerStore) RegisterMetrics(registry prometheus.Registerer) error {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "authsession",
		Subsystem: "badger",
		Name:      "total_size_bytes",
		Help:      "Badger token store size in bytes (LSM + value log)",
	})
	if err := registry.Register(gauge); err != nil {
		return fmt.Errorf("register badger metrics: %w", err)
	}
	s.metricsSize = gauge
	s.updateMetrics()
	return nil
}

func (s *BadgerStore) updateMetrics() {
	if s.metricsSize == nil {
		return
	}
	lsm, vlog := s.db.Size()
	s.metricsSize.Set(float64(lsm + vlog))
}

func (s *BadgerStore) key(name string) []byte {
	return []byte(keyName(s.prefix, name))
}

func readValue(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
// Badger is chatty at info level, so info maps to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
