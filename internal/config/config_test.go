package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config", "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	// Load resolves ./config relative to the working directory.
	old, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
	return path
}

const minimalYAML = `
http:
  port: 8080
database:
  addrs: ["localhost:6379"]
semantic:
  base_url: "http://localhost:8000"
`

func TestLoad_Defaults(t *testing.T) {
	writeConfig(t, minimalYAML)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Match.WeightSemantic != 0.60 || cfg.Match.WeightKeyword != 0.25 || cfg.Match.WeightFilter != 0.15 {
		t.Errorf("unexpected default weights: %+v", cfg.Match)
	}
	if cfg.Semantic.Mode != "on" {
		t.Errorf("expected default semantic mode on, got %q", cfg.Semantic.Mode)
	}
	if cfg.Semantic.TimeoutSec != 5 {
		t.Errorf("expected default semantic timeout 5, got %d", cfg.Semantic.TimeoutSec)
	}
	if cfg.Throttle.WindowSec != 60 || cfg.Throttle.MaxRequests != 60 {
		t.Errorf("unexpected throttle defaults: %+v", cfg.Throttle)
	}
	if cfg.Throttle.MaxClients != 10000 {
		t.Errorf("expected default max_clients 10000, got %d", cfg.Throttle.MaxClients)
	}
	if cfg.Storage.KeyPrefix != "expertmatch:" {
		t.Errorf("unexpected key prefix %q", cfg.Storage.KeyPrefix)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("EM_TEST_ADDR", "redis-1:6379")
	writeConfig(t, `
http:
  port: 8080
database:
  addrs: ["${EM_TEST_ADDR}"]
  password: "${EM_TEST_PASSWORD:-secret}"
semantic:
  mode: "off"
`)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Addrs[0] != "redis-1:6379" {
		t.Errorf("env var not expanded: %v", cfg.Database.Addrs)
	}
	if cfg.Database.Password != "secret" {
		t.Errorf("default value not applied: %q", cfg.Database.Password)
	}
}

func TestLoad_InvalidSemanticMode(t *testing.T) {
	writeConfig(t, `
http:
  port: 8080
database:
  addrs: ["localhost:6379"]
semantic:
  base_url: "http://localhost:8000"
  mode: "sometimes"
`)

	if _, err := Load("test"); err == nil {
		t.Fatal("expected error for invalid semantic mode")
	}
}

func TestLoad_SemanticURLRequiredUnlessOff(t *testing.T) {
	writeConfig(t, `
http:
  port: 8080
database:
  addrs: ["localhost:6379"]
`)

	if _, err := Load("test"); err == nil {
		t.Fatal("expected error: semantic.base_url missing while mode defaults to on")
	}
}

func TestValidate_Port(t *testing.T) {
	cfg := Config{}
	cfg.Database.Addrs = []string{"localhost:6379"}
	cfg.Semantic.Mode = "off"
	cfg.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing port")
	}

	cfg.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestValidate_NegativeWeights(t *testing.T) {
	cfg := Config{}
	cfg.HTTP.Port = 8080
	cfg.Database.Addrs = []string{"localhost:6379"}
	cfg.Semantic.Mode = "off"
	cfg.Match.WeightKeyword = -0.1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative weight")
	}
}
