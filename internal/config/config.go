// Package config holds server configuration and the protocol timing constants.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config is the server runtime configuration, read from the environment.
type Config struct {
	Addr      string
	DSN       string
	RedisAddr string
	RedisPass string

	// JWTSecret signs anonymous session tokens (HS256).
	JWTSecret string
	// SessionTTL is the anonymous session token lifetime.
	SessionTTL time.Duration

	// MaintenanceKey guards the internal cleanup endpoint.
	MaintenanceKey string

	// APNs provider credentials; push is skipped when unset.
	APNSKeyID      string
	APNSTeamID     string
	APNSPrivateKey string
	APNSBundleID   string
	APNSProduction bool
}

// DatabaseDSN builds the Postgres connection string from the DB_*
// environment variables. Split out of FromEnv so the admin CLI can
// reach the database without the server-only settings.
func DatabaseDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		getenv("DB_HOST", "localhost"),
		getenv("DB_USER", "user"),
		getenv("DB_PASSWORD", "password"),
		getenv("DB_NAME", "echodb"),
		getenv("DB_PORT", "5432"),
	)
}

// FromEnv builds a Config from environment variables. DB settings follow
// the same variable names the admin CLI uses.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Addr:           getenv("ADDR", ":8080"),
		DSN:            DatabaseDSN(),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		RedisPass:      os.Getenv("REDIS_PASSWORD"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		SessionTTL:     72 * time.Hour,
		MaintenanceKey: os.Getenv("MAINTENANCE_KEY"),
		APNSKeyID:      os.Getenv("APNS_KEY_ID"),
		APNSTeamID:     os.Getenv("APNS_TEAM_ID"),
		APNSPrivateKey: os.Getenv("APNS_PRIVATE_KEY"),
		APNSBundleID:   getenv("APNS_BUNDLE_ID", "com.echogo.echo"),
		APNSProduction: os.Getenv("APNS_PRODUCTION") == "true",
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
