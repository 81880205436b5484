package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, int64(1000), cfg.OverviewBucketWidth)
	assert.Equal(t, int64(5000), cfg.DetailBucketWidth)
	assert.Equal(t, 22360.0, cfg.LivingWage)
	assert.Equal(t, "query-offer.db", cfg.Database)

	opts := cfg.RunnerOptions()
	assert.Equal(t, cfg.OverviewBucketWidth, opts.OverviewBucketWidth)
	assert.Equal(t, cfg.DetailBucketWidth, opts.DetailBucketWidth)
	assert.Equal(t, cfg.MaxConcurrency, opts.MaxConcurrency)
	assert.Equal(t, cfg.LivingWage, opts.LivingWage)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
database: /data/offers.db
detail_bucket_width: 2500
max_concurrency: 2
log_level: debug
currency_symbol: "$"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/offers.db", cfg.Database)
	assert.Equal(t, int64(2500), cfg.DetailBucketWidth)
	assert.Equal(t, int64(1000), cfg.OverviewBucketWidth, "unset fields keep defaults")
	assert.Equal(t, 2, cfg.MaxConcurrency)
	assert.Equal(t, "$", cfg.CurrencySymbol)
	assert.Equal(t, pterm.LogLevelDebug, cfg.Logger().Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "zero bucket width", body: "overview_bucket_width: 0\n"},
		{name: "negative detail width", body: "detail_bucket_width: -5000\n"},
		{name: "no workers", body: "max_concurrency: 0\n"},
		{name: "unknown log level", body: "log_level: verbose\n"},
		{name: "bad proxy", body: "proxy: \"not a url\"\n"},
		{name: "malformed yaml", body: "database: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "database: /data/offers.db\nlog_level: debug\n")
	t.Setenv(EnvDatabase, "/tmp/env.db")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvProxy, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.Database)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Empty(t, cfg.Proxy, "empty variables are ignored")

	t.Setenv(EnvLogLevel, "loud")
	_, err = Load(path)
	assert.Error(t, err, "environment values are validated too")
}
