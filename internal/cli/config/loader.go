package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/authsession-go/internal/infra/confloader"
	"github.com/yndnr/authsession-go/internal/storage"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".authsession", "config.yaml")
}

// Load builds the configuration from defaults, the file at path, the
// AUTHSESSION_ environment and flags, in increasing priority.
// A missing file is not an error. Nil flag values are ignored.
func Load(path string, flags map[string]any) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := Default()
	l := confloader.NewLoader(confloader.WithConfigFile(path))
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	if err := l.LoadFlags(flags); err != nil {
		return nil, err
	}
	if err := l.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Sources = l.Sources()
	return cfg, nil
}

// Validate checks values koanf cannot check for us.
func (c *CLIConfig) Validate() error {
	if _, err := time.ParseDuration(c.API.Timeout); err != nil {
		return fmt.Errorf("api.timeout: %w", err)
	}
	if c.Store.Redis.TTL != "" {
		if _, err := time.ParseDuration(c.Store.Redis.TTL); err != nil {
			return fmt.Errorf("store.redis.ttl: %w", err)
		}
	}

	switch strings.ToLower(c.Store.Backend) {
	case storage.BackendBadger, storage.BackendRedis, storage.BackendMemory:
	default:
		return fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}

	switch c.Output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("output: unknown format %q", c.Output)
	}
	return nil
}

// Save writes cfg as YAML readable only by the owner.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
