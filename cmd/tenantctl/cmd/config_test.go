package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigPathHonoursOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TENANTCTL_CONFIG_DIR", dir)
	if got := ConfigPath(); got != filepath.Join(dir, "config.yaml") {
		t.Fatalf("ConfigPath() = %q", got)
	}
}

func TestConfigPathDefault(t *testing.T) {
	t.Setenv("TENANTCTL_CONFIG_DIR", "")
	path := ConfigPath()
	if path == "" {
		t.Skip("Could not determine home directory")
	}
	expected := filepath.Join(".config", "tenantctl", "config.yaml")
	if !strings.HasSuffix(path, expected) {
		t.Errorf("ConfigPath() = %q, want path ending with %q", path, expected)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	t.Setenv("TENANTCTL_CONFIG_DIR", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil || cfg.Server != "" {
		t.Fatalf("expected empty config for missing file, got %+v err=%v", cfg, err)
	}
	if err := SaveConfig(Config{Server: "http://api.test", Session: "sess-1", SessionCookie: "sid"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server != "http://api.test" || cfg.Session != "sess-1" || cfg.SessionCookie != "sid" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadConfigRejectsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TENANTCTL_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestResolveServerPrecedence(t *testing.T) {
	originalFlag := serverFlag
	defer func() { serverFlag = originalFlag }()

	serverFlag = ""
	t.Setenv("TENANTCTL_SERVER", "")
	if _, err := resolveServer(Config{}); err == nil {
		t.Fatalf("expected error without any server")
	}
	if got, _ := resolveServer(Config{Server: "http://config"}); got != "http://config" {
		t.Fatalf("expected config server, got %q", got)
	}
	t.Setenv("TENANTCTL_SERVER", "http://env")
	if got, _ := resolveServer(Config{Server: "http://config"}); got != "http://env" {
		t.Fatalf("expected env server, got %q", got)
	}
	serverFlag = "http://flag"
	if got, _ := resolveServer(Config{Server: "http://config"}); got != "http://flag" {
		t.Fatalf("expected flag server, got %q", got)
	}
}
