package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Meeting-BaaS/emails/internal/config"
)

func setRequired(t *testing.T) {
	t.Setenv("EMAIL_SERVICE_API_KEY", "key")
	t.Setenv("DATABASE_URL", "postgres://localhost/emails")
	t.Setenv("RESEND_API_KEY", "re_test")
	t.Setenv("RESEND_EMAIL_FROM", "Meeting BaaS <notifications@meetingbaas.com>")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	require.Equal(t, ":3001", cfg.Addr())
	require.False(t, cfg.IsDevelopment())
	require.Equal(t, 24, cfg.Cooldown.WindowHours)
	require.Equal(t, 3, cfg.Cooldown.MaxAttempts)
	require.Equal(t, time.Second, cfg.Reports.BatchDelay)
	require.False(t, cfg.Reports.Enabled)
	require.Equal(t, "meetingbaas.com", cfg.Links.BaseDomain)
	require.Equal(t, "email_schema_migrations", cfg.DB.MigrationsTable)
	require.False(t, cfg.Redis.Enabled())
}

func TestLoad_EnvFile(t *testing.T) {
	setRequired(t)

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NUMBER_OF_RESENDS_ALLOWED=5\nRESENDS_ALLOWED_PERIOD=12\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("NUMBER_OF_RESENDS_ALLOWED")
		os.Unsetenv("RESENDS_ALLOWED_PERIOD")
	})

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Cooldown.MaxAttempts)
	require.Equal(t, 12, cfg.Cooldown.WindowHours)
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, k := range []string{"EMAIL_SERVICE_API_KEY", "DATABASE_URL", "RESEND_API_KEY", "RESEND_EMAIL_FROM"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	setRequired(t)
	t.Setenv("NUMBER_OF_RESENDS_ALLOWED", "0")
	t.Setenv("NEXT_PUBLIC_SUPPORT_EMAIL", "support")
	t.Setenv("APP_ENV", "Development")
	t.Setenv("PORT", "127.0.0.1:8080")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.ErrorContains(t, err, "NUMBER_OF_RESENDS_ALLOWED")
	require.ErrorContains(t, err, "NEXT_PUBLIC_SUPPORT_EMAIL")
	require.True(t, cfg.IsDevelopment())
	require.Equal(t, "127.0.0.1:8080", cfg.Addr())
}
