package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk tenantctl configuration.
type Config struct {
	Server        string `yaml:"server"`
	Session       string `yaml:"session,omitempty"`
	SessionCookie string `yaml:"session_cookie,omitempty"`
	LoginPath     string `yaml:"login_path,omitempty"`
	ChooserPath   string `yaml:"chooser_path,omitempty"`
}

// ConfigPath returns ~/.config/tenantctl/config.yaml, or "" without a home directory.
func ConfigPath() string {
	if dir := os.Getenv("TENANTCTL_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tenantctl", "config.yaml")
}

// LoadConfig reads the config file; a missing file yields an empty config.
func LoadConfig() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to ConfigPath.
func SaveConfig(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return errors.New("cannot determine config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// resolveServer applies flag > env > config precedence.
func resolveServer(cfg Config) (string, error) {
	for _, value := range []string{serverFlag, os.Getenv("TENANTCTL_SERVER"), cfg.Server} {
		if value = strings.TrimSpace(value); value != "" {
			return value, nil
		}
	}
	return "", errors.New("no tenant API configured: pass --server or run 'tenantctl login'")
}

func resolveSession(cfg Config) (string, error) {
	for _, value := range []string{sessionFlag, os.Getenv("TENANTCTL_SESSION"), cfg.Session} {
		if value = strings.TrimSpace(value); value != "" {
			return value, nil
		}
	}
	return "", errors.New("no session configured: pass --session or run 'tenantctl login'")
}
