package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Detect   DetectConfig
	Postgres PostgresConfig
}

type ServerConfig struct {
	Port     string
	LogLevel string
}

type AuthConfig struct {
	JWTSecret             string
	AccessTTLMins         int
	DefaultRefreshTTLMins int
	DefaultAPIQuota       int
}

type DetectConfig struct {
	CascadeFile string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Port:     getenv("PORT", "8000"),
			LogLevel: getenv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		Detect: DetectConfig{
			CascadeFile: getenv("CASCADE_FILE", "cascade/facefinder"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("missing required env: JWT_SECRET")
	}

	var err error
	if cfg.Auth.AccessTTLMins, err = getenvInt("JWT_ACCESS_TTL_MIN", 30); err != nil {
		return Config{}, err
	}
	if cfg.Auth.DefaultRefreshTTLMins, err = getenvInt("DEFAULT_REFRESH_TTL_MIN", 1440); err != nil {
		return Config{}, err
	}
	if cfg.Auth.DefaultAPIQuota, err = getenvInt("DEFAULT_API_QUOTA", 100); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
