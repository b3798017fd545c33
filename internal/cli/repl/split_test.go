package repl

import (
	"errors"
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"status", []string{"status"}},
		{"  login   --email  a@b.com ", []string{"login", "--email", "a@b.com"}},
		{`request post --data '{"title": "x y"}' /notes`, []string{"request", "post", "--data", `{"title": "x y"}`, "/notes"}},
		{`say "a \"quoted\" word"`, []string{"say", `a "quoted" word`}},
		{`a\ b c`, []string{"a b", "c"}},
		{`empty ''`, []string{"empty", ""}},
		{"tab\tseparated", []string{"tab", "separated"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Split(tt.line)
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplit_Unterminated(t *testing.T) {
	for _, line := range []string{`'open`, `"open`, `trailing\`} {
		if _, err := Split(line); !errors.Is(err, ErrUnterminatedQuote) {
			t.Errorf("Split(%q) error = %v", line, err)
		}
	}
}
