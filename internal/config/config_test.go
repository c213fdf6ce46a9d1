package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelcm/medallion-etl-go/internal/config"
	"github.com/angelcm/medallion-etl-go/internal/errs"
)

func isolate(t *testing.T) {
	t.Helper()
	// Keep tests away from any config.yaml in the working directory.
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5000, cfg.Records)
	assert.Equal(t, "funnel", cfg.Generator.Policy)
	assert.True(t, cfg.Cleaner.ValidateFunnel)
	assert.Equal(t, "data/bronze", cfg.Lake.BronzeDir)
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.Default().Records, cfg.Records)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("RECORDS", "100")
	t.Setenv("SEED", "42")
	t.Setenv("GEN_POLICY", "legacy")
	t.Setenv("BRONZE_DIR", "/tmp/b")
	t.Setenv("CLEAN_VALIDATE", "false")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Records)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, "legacy", cfg.Generator.Policy)
	assert.Equal(t, "/tmp/b", cfg.Lake.BronzeDir)
	assert.False(t, cfg.Cleaner.ValidateFunnel)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("records: 250\nlog_level: debug\nlake:\n  silver_dir: /tmp/s\n")
	require.NoError(t, os.WriteFile(path, body, 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Records)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/s", cfg.Lake.SilverDir)
	// Untouched keys keep their defaults.
	assert.Equal(t, "data/gold", cfg.Lake.GoldDir)
}

func TestEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("records: 250\n"), 0o644))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("RECORDS", "7")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Records)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"RECORDS":        "many",
		"SEED":           "forty-two",
		"CLEAN_VALIDATE": "si",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			isolate(t)
			t.Setenv(key, val)
			_, err := config.Load()
			require.Error(t, err)
			assert.True(t, errs.IsKind(err, errs.KindConfig))
		})
	}
}

func TestLoadRejectsBadPolicy(t *testing.T) {
	isolate(t)
	t.Setenv("GEN_POLICY", "bogus")
	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindConfig))
}

func TestSlogLevel(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "debug"
	assert.Equal(t, "DEBUG", cfg.SlogLevel().String())
	cfg.LogLevel = "anything"
	assert.Equal(t, "INFO", cfg.SlogLevel().String())
}
