package config

import (
	"fmt"
	"os"
	"time"
)

type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	Secret string
	MaxAge int
}

type Config struct {
	Upstream    UpstreamConfig
	Session     SessionConfig
	ServerPort  string
	MetricsPort string
	PprofPort   string
}

func Load() (*Config, error) {
	cfg := &Config{
		Upstream: UpstreamConfig{
			BaseURL: getEnvOrDefault("API_BASE_URL", "http://localhost:56325/api"),
			Timeout: getDurationOrDefault("UPSTREAM_TIMEOUT", 15*time.Second),
		},
		Session: SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
			MaxAge: 86400 * 7,
		},
		ServerPort:  getEnvOrDefault("SERVER_PORT", "8092"),
		MetricsPort: getEnvOrDefault("METRICS_PORT", "9092"),
		PprofPort:   getEnvOrDefault("PPROF_PORT", "6060"),
	}

	if cfg.Session.Secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
