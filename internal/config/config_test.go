package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/msomdec/fraudshield/internal/config"
	"github.com/msomdec/fraudshield/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secretKeys = []string{
	"GEMINI_API_KEY", "SESSION_SECRET", "SMTP_USERNAME", "SMTP_PASSWORD", "REPORT_RECIPIENT",
	"DATABASE_PATH", "LOG_LEVEL", "PORT", "COOKIE_SECURE", "BCRYPT_COST", "ENVIRONMENT",
	config.EnvConfigPath,
}

// clearEnv blanks every variable Load reads so the host environment does
// not leak into the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range secretKeys {
		t.Setenv(k, "")
	}
}

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "AIzaTestKeyTestKeyTestKeyTestKey123")
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("SMTP_USERNAME", "bot@example.com")
	t.Setenv("SMTP_PASSWORD", "app-password")
	t.Setenv("REPORT_RECIPIENT", "ops@example.com")
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsAndSecrets(t *testing.T) {
	clearEnv(t)
	setSecrets(t)

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 60*time.Second, cfg.Audio.MaxDuration)
	assert.Equal(t, 2*time.Second, cfg.Inference.PollInterval)
	assert.Equal(t, 5*time.Minute, cfg.Inference.PollTimeout)
	assert.Equal(t, "ops@example.com", cfg.Mail.ReportRecipient)
	assert.True(t, cfg.Server.CookieSecure)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	clearEnv(t)
	setSecrets(t)
	path := writeYAML(t, `
server:
  addr: ":9090"
  shutdown_timeout: 3s
inference:
  model: gemini-2.0-flash
  poll_timeout: 90s
audio:
  max_duration: 30s
logging:
  level: debug
  format: json
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "gemini-2.0-flash", cfg.Inference.Model)
	assert.Equal(t, 90*time.Second, cfg.Inference.PollTimeout)
	assert.Equal(t, 30*time.Second, cfg.Audio.MaxDuration)
	assert.Equal(t, "json", cfg.Logging.Format)
	// Untouched sections keep their defaults.
	assert.Equal(t, 465, cfg.Mail.Port)
}

func TestLoad_PathFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvConfigPath, writeYAML(t, "database:\n  path: /tmp/from-env.db\n"))

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env.db", cfg.Database.Path)
}

func TestLoad_EnvironmentWinsOverYAML(t *testing.T) {
	clearEnv(t)
	setSecrets(t)
	t.Setenv("PORT", "7000")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := config.Load(writeYAML(t, "server:\n  addr: \":9090\"\n"))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.False(t, cfg.Server.CookieSecure)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_BadInputs(t *testing.T) {
	clearEnv(t)

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = config.Load(writeYAML(t, "server: [not, a, map"))
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	t.Setenv("BCRYPT_COST", "twelve")
	_, err = config.Load("")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestValidate_MissingSecrets(t *testing.T) {
	tests := []struct {
		name    string
		unset   string
		wantMsg string
	}{
		{"gemini key", "GEMINI_API_KEY", "GEMINI_API_KEY"},
		{"session secret", "SESSION_SECRET", "SESSION_SECRET"},
		{"smtp username", "SMTP_USERNAME", "SMTP_USERNAME"},
		{"smtp password", "SMTP_PASSWORD", "SMTP_PASSWORD"},
		{"report recipient", "REPORT_RECIPIENT", "REPORT_RECIPIENT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			setSecrets(t)
			t.Setenv(tt.unset, "")

			cfg, err := config.Load("")
			require.NoError(t, err)

			err = cfg.Validate()
			require.ErrorIs(t, err, domain.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidate_ShortSessionSecret(t *testing.T) {
	clearEnv(t)
	setSecrets(t)
	t.Setenv("SESSION_SECRET", "too-short")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(), domain.ErrConfiguration)
}

func TestValidate_Sections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bcrypt cost too high", func(c *config.Config) { c.Auth.BcryptCost = 20 }},
		{"poll timeout below interval", func(c *config.Config) { c.Inference.PollTimeout = time.Second }},
		{"max poll below interval", func(c *config.Config) { c.Inference.MaxPollInterval = time.Second }},
		{"tiny max duration", func(c *config.Config) { c.Audio.MaxDuration = time.Millisecond }},
		{"bad mail port", func(c *config.Config) { c.Mail.Port = 0 }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "trace" }},
		{"empty db path", func(c *config.Config) { c.Database.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			setSecrets(t)
			cfg, err := config.Load("")
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), domain.ErrConfiguration)
		})
	}
}
