package confloader

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

// ErrReadBytesNotSupported is returned by ReadBytes on a map provider.
var ErrReadBytesNotSupported = errors.New("confloader: map provider has no byte form, use Read")

// dottedMap is a koanf provider over a map whose keys are dotted paths,
// such as the flag overrides {"api.base_url": "..."}. Read expands them
// into nested maps, as the env provider does, so they merge with file
// values instead of sitting beside them as literal top-level keys.
type dottedMap struct {
	values map[string]any
	delim  string
}

// ReadBytes implements koanf.Provider.
func (m dottedMap) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

// Read implements koanf.Provider.
func (m dottedMap) Read() (map[string]any, error) {
	return maps.Unflatten(m.values, m.delim), nil
}
