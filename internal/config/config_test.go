package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 0.75, cfg.Check.MinConfidence)
	require.Equal(t, 5*time.Second, cfg.URLTimeout())
	require.Equal(t, 30*time.Second, cfg.MaxTime())
	require.Equal(t, 8, cfg.Pool.Workers)
	require.Equal(t, "earwigbot-copyvios/0.1", cfg.HTTP.UserAgent)
	require.True(t, cfg.Logging.Development)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9090
check:
  min_confidence: 0.9
  max_time_seconds: 60
pool:
  workers: 16
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 0.9, cfg.Check.MinConfidence)
	require.Equal(t, time.Minute, cfg.MaxTime())
	require.Equal(t, 16, cfg.Pool.Workers)
	// Untouched keys keep their defaults.
	require.Equal(t, 5*time.Second, cfg.URLTimeout())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Server.Port = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Check.MinConfidence = 1.5
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Check.URLTimeoutSeconds = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Check.MaxTimeSeconds = -1
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Pool.Workers = 0
	require.Error(t, cfg.Validate())

	require.NoError(t, base().Validate())
}
