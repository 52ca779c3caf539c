package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	TenantAPIBaseURL string
	TenantAPITimeout time.Duration
	SessionCookie    string
	SessionIdleTTL   time.Duration

	LoginPath   string
	ChooserPath string
	HomePath    string

	DenialTopic         string
	RelayPollInterval   time.Duration
	EnableDenialJournal bool
	EnableMetrics       bool
	EnableInMemoryAPI   bool
}

func Load() (Config, error) {
	timeout, err := envDuration("TENANT_API_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	pollInterval, err := envDuration("RELAY_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	idleTTL, err := envDuration("SESSION_IDLE_TTL", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}

	return Config{
		ServiceName:  envString("SERVICE_NAME", "tenantgate"),
		HTTPPort:     envString("HTTP_PORT", "8080"),
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		TenantAPIBaseURL: envString("TENANT_API_BASE_URL", "http://localhost:8081"),
		TenantAPITimeout: timeout,
		SessionCookie:    envString("SESSION_COOKIE", "session"),
		SessionIdleTTL:   idleTTL,

		LoginPath:   envString("LOGIN_PATH", "/login"),
		ChooserPath: envString("CHOOSER_PATH", "/tenants"),
		HomePath:    envString("HOME_PATH", "/"),

		DenialTopic:         envString("DENIAL_TOPIC", "access.denied"),
		RelayPollInterval:   pollInterval,
		EnableDenialJournal: envBool("ENABLE_DENIAL_JOURNAL", true),
		EnableMetrics:       envBool("ENABLE_METRICS", true),
		EnableInMemoryAPI:   envBool("ENABLE_IN_MEMORY_API", false),
	}, nil
}

func envString(name string, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", name, raw)
	}
	return value, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
