package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// mockServer is a test backend with per-path handlers.
type mockServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	hits     map[string]int
	auth     map[string]string
	bodies   map[string]string
	headers  map[string]http.Header
}

func newMockServer(t *testing.T) *mockServer {
	m := &mockServer{
		handlers: make(map[string]http.HandlerFunc),
		hits:     make(map[string]int),
		auth:     make(map[string]string),
		bodies:   make(map[string]string),
		headers:  make(map[string]http.Header),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		m.mu.Lock()
		m.hits[r.URL.Path]++
		m.bodies[r.URL.Path] = string(body)
		m.headers[r.URL.Path] = r.Header.Clone()
		m.auth[r.URL.Path] = r.Header.Get("Authorization")
		handler, ok := m.handlers[r.URL.Path]
		m.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mockServer) handle(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

func (m *mockServer) hitCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[path]
}

func (m *mockServer) lastAuth(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.auth[path]
}

func (m *mockServer) lastBody(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bodies[path]
}

func (m *mockServer) lastHeader(path, name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.headers[path].Get(name)
}

// jsonResponse writes a JSON response.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func success(data any) map[string]any {
	return map[string]any{"status": "success", "data": data}
}

func failure(message string) map[string]any {
	return map[string]any{"status": "error", "message": message}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
		"jti": fmt.Sprint(time.Now().UnixNano()),
	}).SignedString([]byte("cli-test"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

type sampleUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

var ann = sampleUser{ID: "u1", Email: "a@b.com", Name: "Ann"}

func authPayload(access, refresh string) map[string]any {
	return success(map[string]any{
		"user":   ann,
		"tokens": map[string]string{"accessToken": access, "refreshToken": refresh},
	})
}

// cliEnv is one user's machine: a config file and a Badger directory that
// outlive single command runs.
type cliEnv struct {
	t      *testing.T
	server *mockServer
	dir    string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "AUTHSESSION_") {
			name, _, _ := strings.Cut(kv, "=")
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	return &cliEnv{t: t, server: newMockServer(t), dir: t.TempDir()}
}

func (e *cliEnv) configPath() string {
	return filepath.Join(e.dir, "config.yaml")
}

// run executes one CLI invocation and returns stdout, stderr and the error.
func (e *cliEnv) run(args ...string) (string, string, error) {
	e.t.Helper()
	return e.runWithInput("", args...)
}

// runWithInput is run with stdin fed from input.
func (e *cliEnv) runWithInput(input string, args ...string) (string, string, error) {
	e.t.Helper()

	var stdout, stderr bytes.Buffer
	app := App(nil)
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(input)

	full := append([]string{
		"authsession",
		"--config", e.configPath(),
		"--base-url", e.server.URL,
		"--store-dir", filepath.Join(e.dir, "tokens"),
	}, args...)

	err := app.RunContext(context.Background(), full)
	return stdout.String(), stderr.String(), err
}

// decode parses JSON output into v.
func decode(t *testing.T, out string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
}
