package config

import (
	"time"

	"github.com/yndnr/authsession-go/internal/connection"
	"github.com/yndnr/authsession-go/internal/infra/tlsroots"
	"github.com/yndnr/authsession-go/internal/storage"
)

// CLIConfig is the configuration for the authsession CLI.
type CLIConfig struct {
	API     APIConfig     `koanf:"api" yaml:"api" json:"api"`
	Store   StoreConfig   `koanf:"store" yaml:"store" json:"store"`
	Refresh RefreshConfig `koanf:"refresh" yaml:"refresh" json:"refresh"`
	Log     LogConfig     `koanf:"log" yaml:"log" json:"log"`
	Metrics MetricsConfig `koanf:"metrics" yaml:"metrics" json:"metrics"`

	// Output is the default output format: table, json, yaml.
	Output string `koanf:"output" yaml:"output" json:"output"`

	// Sources is filled by Load and never persisted.
	Sources []string `koanf:"-" yaml:"-" json:"-"`
}

// APIConfig stores backend connection details.
type APIConfig struct {
	BaseURL     string  `koanf:"base_url" yaml:"base_url" json:"base_url"`
	Timeout     string  `koanf:"timeout" yaml:"timeout" json:"timeout"`
	ProfilePath string  `koanf:"profile_path" yaml:"profile_path" json:"profile_path"`
	RateLimit   float64 `koanf:"rate_limit" yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"` // requests per second, 0 = unlimited
	RateBurst   int     `koanf:"rate_burst" yaml:"rate_burst,omitempty" json:"rate_burst,omitempty"`
	Socket      string  `koanf:"socket" yaml:"socket,omitempty" json:"socket,omitempty"` // Unix socket path, optional

	// TLS material for https backends, all optional.
	CAFile     string `koanf:"ca_file" yaml:"ca_file,omitempty" json:"ca_file,omitempty"`
	ClientCert string `koanf:"client_cert" yaml:"client_cert,omitempty" json:"client_cert,omitempty"`
	ClientKey  string `koanf:"client_key" yaml:"client_key,omitempty" json:"client_key,omitempty"`
}

// StoreConfig selects where tokens are persisted.
type StoreConfig struct {
	Backend       string      `koanf:"backend" yaml:"backend" json:"backend"` // badger, redis, memory
	Dir           string      `koanf:"dir" yaml:"dir" json:"dir"`
	Prefix        string      `koanf:"prefix" yaml:"prefix" json:"prefix"`
	Redis         RedisConfig `koanf:"redis" yaml:"redis" json:"redis"`
	EncryptionKey string      `koanf:"encryption_key" yaml:"encryption_key,omitempty" json:"encryption_key,omitempty"`
}

// RedisConfig stores Redis connection details.
type RedisConfig struct {
	Addr     string `koanf:"addr" yaml:"addr" json:"addr"`
	Password string `koanf:"password" yaml:"password,omitempty" json:"password,omitempty"`
	DB       int    `koanf:"db" yaml:"db" json:"db"`
	TTL      string `koanf:"ttl" yaml:"ttl,omitempty" json:"ttl,omitempty"`
}

// RefreshConfig tunes the refresh protocol.
type RefreshConfig struct {
	SingleFlight bool `koanf:"single_flight" yaml:"single_flight" json:"single_flight"`
}

// LogConfig mirrors logger.Config.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level" json:"level"`
	Format string `koanf:"format" yaml:"format" json:"format"`
}

// MetricsConfig controls the metrics textfile.
type MetricsConfig struct {
	// Textfile, when set, receives the metrics in Prometheus text format
	// after every command.
	Textfile string `koanf:"textfile" yaml:"textfile,omitempty" json:"textfile,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	store := storage.DefaultConfig()
	return &CLIConfig{
		API: APIConfig{
			BaseURL:     connection.DefaultBaseURL,
			Timeout:     connection.DefaultHTTPConfig().Timeout.String(),
			ProfilePath: "/auth/me",
		},
		Store: StoreConfig{
			Backend: store.Backend,
			Dir:     store.Dir,
			Prefix:  store.Prefix,
			Redis: RedisConfig{
				Addr: store.Redis.Addr,
			},
		},
		Refresh: RefreshConfig{SingleFlight: true},
		Log:     LogConfig{Level: "warn", Format: "text"},
		Output:  "table",
	}
}

// HTTPConfig converts the API section, loading any TLS material. The
// watcher is non-nil when a client certificate is configured.
func (c *CLIConfig) HTTPConfig(opts ...tlsroots.WatcherOption) (connection.HTTPConfig, *tlsroots.CertWatcher, error) {
	cfg := connection.DefaultHTTPConfig()
	cfg.BaseURL = c.API.BaseURL
	if d, err := time.ParseDuration(c.API.Timeout); err == nil {
		cfg.Timeout = d
	}
	cfg.RateLimit = c.API.RateLimit
	cfg.RateBurst = c.API.RateBurst
	cfg.SocketPath = c.API.Socket

	tlsConfig, certs, err := tlsroots.Load(tlsroots.Config{
		CAFile:   c.API.CAFile,
		CertFile: c.API.ClientCert,
		KeyFile:  c.API.ClientKey,
	}, opts...)
	if err != nil {
		return cfg, nil, err
	}
	cfg.TLS = tlsConfig
	return cfg, certs, nil
}

// StorageConfig converts the store section. Call Validate first.
func (c *CLIConfig) StorageConfig() storage.Config {
	cfg := storage.Config{
		Backend:       c.Store.Backend,
		Dir:           c.Store.Dir,
		Prefix:        c.Store.Prefix,
		EncryptionKey: c.Store.EncryptionKey,
		Redis: storage.RedisConfig{
			Addr:     c.Store.Redis.Addr,
			Password: c.Store.Redis.Password,
			DB:       c.Store.Redis.DB,
		},
	}
	if d, err := time.ParseDuration(c.Store.Redis.TTL); err == nil {
		cfg.Redis.TTL = d
	}
	return cfg
}
