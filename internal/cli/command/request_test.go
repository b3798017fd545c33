package command

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/authsession-go/internal/core/domain"
)

func TestRequest(t *testing.T) {
	env := newCLIEnv(t)
	access := signedToken(t, time.Now().Add(time.Hour))
	env.loginHandler(access)
	if _, _, err := env.run("login", "--email", "a@b.com", "--password", "Secret123"); err != nil {
		t.Fatal(err)
	}

	env.server.handle("/notes", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			jsonResponse(w, http.StatusOK, success([]map[string]any{{"id": "n1", "title": "first"}}))
		case http.MethodPost:
			jsonResponse(w, http.StatusCreated, success(map[string]any{"id": "n2"}))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			jsonResponse(w, http.StatusMethodNotAllowed, failure("method not allowed"))
		}
	})

	t.Run("get table", func(t *testing.T) {
		stdout, _, err := env.run("request", "get", "notes")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(stdout, "TITLE") || !strings.Contains(stdout, "first") {
			t.Errorf("stdout = %q", stdout)
		}
		if got := env.server.lastAuth("/notes"); got != "Bearer "+access {
			t.Errorf("Authorization = %q", got)
		}
	})

	t.Run("post json", func(t *testing.T) {
		stdout, _, err := env.run("-o", "json", "request", "post", "--data", `{"title":"second"}`, "-H", "X-Trace: abc", "/notes")
		if err != nil {
			t.Fatal(err)
		}
		body, trace := env.server.lastBody("/notes"), env.server.lastHeader("/notes", "X-Trace")
		if body != `{"title":"second"}` || trace != "abc" {
			t.Errorf("body = %q, X-Trace = %q", body, trace)
		}
		var out map[string]string
		decode(t, stdout, &out)
		if out["id"] != "n2" {
			t.Errorf("out = %v", out)
		}
	})

	t.Run("delete empty", func(t *testing.T) {
		stdout, _, err := env.run("request", "delete", "/notes")
		if err != nil {
			t.Fatal(err)
		}
		if stdout != "" {
			t.Errorf("stdout = %q, want nothing", stdout)
		}
	})

	t.Run("backend error", func(t *testing.T) {
		_, _, err := env.run("request", "put", "--data", `{}`, "/notes")
		if !errors.Is(err, domain.ErrHTTP) || domain.UserMessage(err) != "method not allowed" {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		if _, _, err := env.run("request", "post", "--data", `{oops`, "/notes"); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("bad JSON: error = %v", err)
		}
		if _, _, err := env.run("request", "get", "-H", "novalue", "/notes"); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("bad header: error = %v", err)
		}
		if _, _, err := env.run("request", "get"); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("missing path: error = %v", err)
		}
	})
}

func TestRequest_UnauthorizedClearsSession(t *testing.T) {
	env := newCLIEnv(t)
	env.loginHandler(signedToken(t, time.Now().Add(time.Hour)))
	env.server.handle("/admin", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusUnauthorized, failure("revoked"))
	})
	if _, _, err := env.run("login", "--email", "a@b.com", "--password", "Secret123"); err != nil {
		t.Fatal(err)
	}

	_, _, err := env.run("request", "get", "/admin")
	if !errors.Is(err, domain.ErrAuthenticationFailed) {
		t.Fatalf("error = %v", err)
	}

	stdout, _, _ := env.run("-o", "json", "status")
	var st statusOutput
	decode(t, stdout, &st)
	if st.AccessToken != "" {
		t.Errorf("tokens survived a 401: %+v", st)
	}
}
