package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rolegate/internal/pkg/validate"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	// EncryptionSecret is the single shared secret the cipher key is derived
	// from. It is never persisted.
	EncryptionSecret string `validate:"required"`

	DataDir    string
	WebhookURL string `validate:"omitempty,url"`

	FanoutConcurrency int
	GrantAttempts     int

	AllowedOrigins []string
}

// Load reads all configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		AppPort:           getEnv("APP_PORT", "3000"),
		AppEnv:            getEnv("APP_ENV", "development"),
		EncryptionSecret:  getEnv("ENCRYPTION_KEY", ""),
		DataDir:           getEnv("DATA_DIR", "./data"),
		WebhookURL:        getEnv("WEBHOOK_URL", ""),
		FanoutConcurrency: getEnvInt("FANOUT_CONCURRENCY", 4),
		GrantAttempts:     getEnvInt("GRANT_ATTEMPTS", 2),
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// VerifiedUsersPath is the encrypted verified-set file.
func (c *Config) VerifiedUsersPath() string {
	return filepath.Join(c.DataDir, "verified_users.json")
}

// GuildRolesPath is the encrypted guild→role map file.
func (c *Config) GuildRolesPath() string {
	return filepath.Join(c.DataDir, "guild_roles.json")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
