package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresEncryptionSecret(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "super-secret")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 4, cfg.FanoutConcurrency)
	assert.Equal(t, 2, cfg.GrantAttempts)
	assert.Equal(t, filepath.Join("./data", "verified_users.json"), cfg.VerifiedUsersPath())
	assert.Equal(t, filepath.Join("./data", "guild_roles.json"), cfg.GuildRolesPath())
}

func TestLoad_RejectsBadWebhookURL(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "super-secret")
	t.Setenv("WEBHOOK_URL", "not a url")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "super-secret")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DATA_DIR", "/var/lib/rolegate")
	t.Setenv("GRANT_ATTEMPTS", "3")
	t.Setenv("WEBHOOK_URL", "https://example.com/hook")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "/var/lib/rolegate", cfg.DataDir)
	assert.Equal(t, 3, cfg.GrantAttempts)
	assert.Equal(t, "https://example.com/hook", cfg.WebhookURL)
}
