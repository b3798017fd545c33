package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yndnr/authsession-go/internal/core/domain"
)

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces the token keys.
	Prefix string

	// TTL bounds how long the pair lives in Redis. Zero keeps it until cleared.
	TTL time.Duration
}

// DefaultRedisConfig returns the default Redis settings.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{Addr: "localhost:6379"}
}

// RedisStore keeps the token pair in Redis so several clients can share one session.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	owned  bool
}

// NewRedisStore dials Redis using cfg.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis: addr is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	s := NewRedisStoreFromClient(rdb, cfg.Prefix, cfg.TTL)
	s.owned = true
	return s, nil
}

// NewRedisStoreFromClient wraps an existing client. Close leaves the client open.
func NewRedisStoreFromClient(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Save writes both keys in one MULTI/EXEC.
func (s *RedisStore) Save(ctx context.Context, pair domain.TokenPair) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key(AccessTokenKey), pair.AccessToken, s.ttl)
		p.Set(ctx, s.key(RefreshTokenKey), pair.RefreshToken, s.ttl)
		return nil
	})
	if err != nil {
		return unavailable("save", err)
	}
	return nil
}

// Get returns the pair only when both keys exist.
func (s *RedisStore) Get(ctx context.Context) (*domain.TokenPair, error) {
	vals, err := s.rdb.MGet(ctx, s.key(AccessTokenKey), s.key(RefreshTokenKey)).Result()
	if err != nil {
		return nil, unavailable("get", err)
	}
	access, _ := vals[0].(string)
	refresh, _ := vals[1].(string)

	pair := domain.TokenPair{AccessToken: access, RefreshToken: refresh}
	if !pair.Complete() {
		return nil, nil
	}
	return &pair, nil
}

// AccessToken returns the stored access token or "".
func (s *RedisStore) AccessToken(ctx context.Context) (string, error) {
	v, err := s.rdb.Get(ctx, s.key(AccessTokenKey)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", unavailable("get access token", err)
	}
	return v, nil
}

// Clear deletes both keys.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key(AccessTokenKey), s.key(RefreshTokenKey)).Err(); err != nil {
		return unavailable("clear", err)
	}
	return nil
}

// Close closes the client when the store created it.
func (s *RedisStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.rdb.Close()
}

func (s *RedisStore) key(name string) string {
	return keyName(s.prefix, name)
}
