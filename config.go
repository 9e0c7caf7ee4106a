package groupcore

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the environment-derived knobs a composition root needs to
// stand up a Coordinator. Every field has a sane default so the server can
// boot with no environment configured at all.
type Config struct {
	HTTPAddr           string
	DatabaseDSN        string
	NodeID             string
	ShareURLBase       string
	SessionExpiryHours int
	ArchiveAfter       time.Duration
	ArchiveInterval    time.Duration
	TLSCertFile        string
	TLSKeyFile         string
}

// LoadConfig reads Config from the environment, falling back to defaults
// that are safe for local development.
func LoadConfig() Config {
	return Config{
		HTTPAddr:           envOr("HTTP_ADDR", ":8080"),
		DatabaseDSN:        envOr("DATABASE_DSN", "file:groupcore.db?cache=shared&_fk=1"),
		NodeID:             envOr("NODE_ID", "node-unknown"),
		ShareURLBase:       envOr("SHARE_URL_BASE", "https://plan.example/s/"),
		SessionExpiryHours: envOrInt("SESSION_EXPIRY_HOURS", 72),
		ArchiveAfter:       envOrDuration("ARCHIVE_AFTER", 30*24*time.Hour),
		ArchiveInterval:    envOrDuration("ARCHIVE_INTERVAL", time.Hour),
		TLSCertFile:        strings.TrimSpace(os.Getenv("TLS_CERT_FILE")),
		TLSKeyFile:         strings.TrimSpace(os.Getenv("TLS_KEY_FILE")),
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
