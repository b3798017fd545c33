package connection

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/yndnr/authsession-go/internal/core/domain"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is a decoded {status, message, data} response body.
type Envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Success reports the success variant.
func (e *Envelope) Success() bool {
	return e.Status == StatusSuccess
}

// Failure returns the server-provided failure text, if any.
func (e *Envelope) Failure() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// HasData reports whether the envelope carries a non-null payload.
func (e *Envelope) HasData() bool {
	d := bytes.TrimSpace(e.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

// DecodeData unmarshals the payload into out. A nil out or a missing
// payload is a no-op.
func (e *Envelope) DecodeData(out any) error {
	if out == nil || !e.HasData() {
		return nil
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// DecodeEnvelope decodes body as one of the two envelope variants.
//
// The body must be a JSON object whose "status" is the string "success"
// or "error". Anything else fails with domain.ErrEnvelopeShape; the raw
// body is never passed through.
func DecodeEnvelope(body []byte) (*Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, domain.ErrEnvelopeShape.WithDetails("body is not a JSON object").WithCause(err)
	}

	rawStatus, ok := fields["status"]
	if !ok {
		return nil, domain.ErrEnvelopeShape.WithDetails("missing status")
	}

	var env Envelope
	if err := json.Unmarshal(rawStatus, &env.Status); err != nil {
		return nil, domain.ErrEnvelopeShape.WithDetails("status is not a string")
	}
	switch env.Status {
	case StatusSuccess, StatusError:
	default:
		return nil, domain.ErrEnvelopeShape.WithDetails(fmt.Sprintf("unknown status %q", env.Status))
	}

	if err := optionalString(fields, "message", &env.Message); err != nil {
		return nil, err
	}
	if err := optionalString(fields, "error", &env.Error); err != nil {
		return nil, err
	}
	env.Data = fields["data"]
	return &env, nil
}

func optionalString(fields map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return domain.ErrEnvelopeShape.WithDetails(key + " is not a string")
	}
	return nil
}

// FailureMessage picks the text shown for a non-2xx response: the body's
// "message", then its "error", then a generic status line.
func FailureMessage(body []byte, status int) string {
	var fields struct {
		Message any `json:"message"`
		Error   any `json:"error"`
	}
	if json.Unmarshal(body, &fields) == nil {
		if s, ok := fields.Message.(string); ok && s != "" {
			return s
		}
		if s, ok := fields.Error.(string); ok && s != "" {
			return s
		}
	}
	return fmt.Sprintf("HTTP error! status: %d", status)
}
