package cli_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/msomdec/fraudshield/internal/cli"
	"github.com/msomdec/fraudshield/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := cli.NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	t.Setenv("FRAUDSHIELD_CONFIG", "")
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "cli.db"))

	out, err := run(t, "migrate", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "001_create_users.sql\n002_create_calls.sql\n", out)

	out, err = run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "002_create_calls.sql")

	out, err = run(t, "migrate")
	require.NoError(t, err)
	assert.Empty(t, out, "second run has nothing pending")
}

func TestServe_MissingSecrets(t *testing.T) {
	for _, key := range []string{"GEMINI_API_KEY", "SESSION_SECRET", "SMTP_USERNAME", "SMTP_PASSWORD", "REPORT_RECIPIENT"} {
		t.Setenv(key, "")
	}
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "serve.db"))

	_, err := run(t, "serve")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestConfigFlag_MissingFile(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "migrate")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
