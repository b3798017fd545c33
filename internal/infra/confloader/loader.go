package confloader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "AUTHSESSION_"

const (
	keyDelim = "."
	// A single underscore stays part of the key, so snake_case keys survive.
	envNestDelim = "__"
)

// Source names reported by Sources.
const (
	SourceEnv   = "env"
	SourceFlags = "flags"
)

// Loader layers configuration sources onto one koanf instance. Each Load*
// call overrides keys set by the ones before it.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	sources   []string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// WithConfigFile sets the YAML file read by Load.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.filePath = path }
}

// NewLoader creates a loader with the AUTHSESSION_ env prefix.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New(keyDelim),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the config file, if one exists, then the environment, and
// unmarshals the result over target. Fields of target that no source sets
// keep their value, so target carries the defaults.
//
// Flags are layered afterwards with LoadFlags and a second Unmarshal.
func (l *Loader) Load(target any) error {
	if l.filePath != "" {
		switch _, err := os.Stat(l.filePath); {
		case err == nil:
			if err := l.LoadFile(l.filePath); err != nil {
				return err
			}
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("stat config file: %w", err)
		}
	}

	if err := l.LoadEnv(); err != nil {
		return err
	}
	if err := l.Unmarshal(target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// LoadFile merges a YAML file. An empty path is a no-op.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}
	l.sources = append(l.sources, "file:"+path)
	return nil
}

// LoadEnv merges prefixed environment variables. Nesting levels are
// separated by a double underscore:
// AUTHSESSION_API__BASE_URL=http://localhost:3001/api sets api.base_url.
func (l *Loader) LoadEnv() error {
	provider := env.Provider(l.envPrefix, keyDelim, func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
		return strings.ReplaceAll(s, envNestDelim, keyDelim)
	})
	if err := l.k.Load(provider, nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	if l.hasEnv() {
		l.sources = append(l.sources, SourceEnv)
	}
	return nil
}

func (l *Loader) hasEnv() bool {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, l.envPrefix) {
			return true
		}
	}
	return false
}

// LoadFlags merges the flags the user actually set. Keys with a nil value
// are skipped so unset flags never shadow file or env values.
func (l *Loader) LoadFlags(flags map[string]any) error {
	set := make(map[string]any, len(flags))
	for k, v := range flags {
		if v != nil {
			set[k] = v
		}
	}
	if len(set) == 0 {
		return nil
	}
	if err := l.LoadMap(set); err != nil {
		return err
	}
	l.sources = append(l.sources, SourceFlags)
	return nil
}

// LoadMap merges a map whose keys may be nested maps or dotted paths.
func (l *Loader) LoadMap(data map[string]any) error {
	if err := l.k.Load(dottedMap{values: data, delim: keyDelim}, nil); err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	return nil
}

// Unmarshal decodes the merged configuration into target using koanf tags.
func (l *Loader) Unmarshal(target any) error {
	return l.k.Unmarshal("", target)
}

// Sources lists what contributed to the configuration, in load order:
// "file:<path>", "env" and "flags".
func (l *Loader) Sources() []string {
	return append([]string(nil), l.sources...)
}

// Get returns the raw value at key.
func (l *Loader) Get(key string) any {
	return l.k.Get(key)
}

// GetString returns the value at key as a string.
func (l *Loader) GetString(key string) string {
	return l.k.String(key)
}

// GetBool returns the value at key as a bool.
func (l *Loader) GetBool(key string) bool {
	return l.k.Bool(key)
}

// All returns the merged configuration with flattened keys.
func (l *Loader) All() map[string]any {
	return l.k.All()
}
