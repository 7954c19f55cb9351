package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves the test into an empty directory so Load does not pick up
// a stray config.yaml from the developer's checkout.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(orig) })
	return dir
}

func TestDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "data/licenses.db", cfg.Database.Path)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.True(t, cfg.Security.RateLimit.Enabled)
	assert.Equal(t, float64(100), cfg.Security.RateLimit.RPS)
	assert.False(t, cfg.Admin.Enabled(), "admin is disabled out of the box")
}

func TestYAMLOverlay(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
server:
  port: 8443
database:
  path: /var/lib/ngc/licenses.db
admin:
  api_key: real-secret
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8443, cfg.Server.Port)
	assert.Equal(t, "/var/lib/ngc/licenses.db", cfg.Database.Path)
	assert.True(t, cfg.Admin.Enabled())
	// Untouched keys keep their defaults.
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "both", cfg.Logging.Output)
}

func TestEnvironmentWinsOverFile(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("server:\n  port: 8443\n"), 0o644))
	t.Setenv("NGC_SERVER_PORT", "9000")
	t.Setenv("NGC_ADMIN_API_KEY", "from-env")
	t.Setenv("NGC_SECURITY_RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Admin.APIKey)
	assert.False(t, cfg.Security.RateLimit.Enabled)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	chdirTemp(t)
	t.Setenv("NGC_SERVER_PORT", "70000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
}

func TestLoadRejectsBadLoggingOutput(t *testing.T) {
	chdirTemp(t)
	t.Setenv("NGC_LOGGING_OUTPUT", "syslog")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid logging output")
}

func TestAdminEnabled(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		want   bool
	}{
		{name: "empty", apiKey: "", want: false},
		{name: "placeholder", apiKey: "change-me-in-production", want: false},
		{name: "real key", apiKey: "s3cret", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AdminConfig{APIKey: tt.apiKey}.Enabled())
		})
	}
}
