package command

import (
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestConfigShow_MasksSecrets(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("AUTHSESSION_STORE__ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("AUTHSESSION_STORE__REDIS__PASSWORD", "hunter2")

	stdout, _, err := env.run("-o", "json", "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if strings.Contains(stdout, "hunter2") || strings.Contains(stdout, "0123456789abcdef") {
		t.Errorf("secrets leaked:\n%s", stdout)
	}

	var shown struct {
		API struct {
			BaseURL string `json:"base_url"`
		} `json:"api"`
		Store struct {
			Dir           string `json:"dir"`
			EncryptionKey string `json:"encryption_key"`
			Redis         struct {
				Password string `json:"password"`
			} `json:"redis"`
		} `json:"store"`
	}
	decode(t, stdout, &shown)
	if shown.API.BaseURL != env.server.URL {
		t.Errorf("base_url = %q, want flag value %q", shown.API.BaseURL, env.server.URL)
	}
	if shown.Store.EncryptionKey != redacted || shown.Store.Redis.Password != redacted {
		t.Errorf("store = %+v", shown.Store)
	}
}

func TestConfigShow_InvalidOutput(t *testing.T) {
	env := newCLIEnv(t)
	if _, _, err := env.run("-o", "xml", "config", "show"); err == nil {
		t.Fatal("expected error for unknown output format")
	}
}

func TestConfigInit(t *testing.T) {
	env := newCLIEnv(t)

	_, stderr, err := env.run("config", "init")
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if !strings.Contains(stderr, env.configPath()) {
		t.Errorf("stderr = %q", stderr)
	}

	data, err := os.ReadFile(env.configPath())
	if err != nil {
		t.Fatal(err)
	}
	var saved map[string]any
	if err := yaml.Unmarshal(data, &saved); err != nil {
		t.Fatalf("saved file is not YAML: %v", err)
	}
	api, _ := saved["api"].(map[string]any)
	if api["base_url"] != env.server.URL {
		t.Errorf("saved api = %v", api)
	}

	if _, _, err := env.run("config", "init"); err == nil || !strings.Contains(err.Error(), "--force") {
		t.Errorf("second init: error = %v, want hint about --force", err)
	}
	if _, _, err := env.run("config", "init", "--force"); err != nil {
		t.Errorf("init --force error = %v", err)
	}
}

func TestConfig_FileIsUsed(t *testing.T) {
	env := newCLIEnv(t)
	content := "output: json\nlog:\n  level: error\n"
	if err := os.WriteFile(env.configPath(), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := env.run("status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	var st statusOutput
	decode(t, stdout, &st)
	if st.Phase != "anonymous" {
		t.Errorf("phase = %q", st.Phase)
	}
}
