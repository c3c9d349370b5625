package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.Auth, cfg.Auth)
	assert.Equal(t, want.Player, cfg.Player)
	assert.Equal(t, want.Session.TTL, cfg.Session.TTL)
	assert.NotContains(t, cfg.Session.Path, "~")
}

func TestLoad_OverridesAndDurations(t *testing.T) {
	path := writeConfig(t, `
auth:
  base_url: https://auth.example.com
  timeout: 3s
catalog:
  source: s3://media/catalog.csv
  s3:
    region: eu-central-1
    endpoint: http://localhost:9000
session:
  store: preferences
  ttl: 168h
player:
  engine: mock
  progress_interval: 250ms
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://auth.example.com", cfg.Auth.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Auth.Timeout)
	assert.Equal(t, "s3://media/catalog.csv", cfg.Catalog.Source)
	assert.Equal(t, "eu-central-1", cfg.Catalog.S3.Region)
	assert.Equal(t, StorePreferences, cfg.Session.Store)
	assert.Equal(t, 168*time.Hour, cfg.Session.TTL)
	assert.Equal(t, EngineMock, cfg.Player.Engine)
	assert.Equal(t, 250*time.Millisecond, cfg.Player.ProgressInterval)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched keys keep their defaults.
	assert.Equal(t, Default().Catalog.Timeout, cfg.Catalog.Timeout)
	assert.Equal(t, Default().AppID, cfg.AppID)
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]string{
		"bad yaml":       "auth: [",
		"unknown store":  "session:\n  store: redis\n",
		"unknown engine": "player:\n  engine: vlc\n",
		"zero ttl":       "session:\n  ttl: 0s\n",
		"negative tick":  "player:\n  progress_interval: -1s\n",
		"empty source":   "catalog:\n  source: \"\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandHome("~/.musicapp/session.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".musicapp", "session.yaml"), got)

	got, err = ExpandHome("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)

	got, err = ExpandHome("~user/file")
	require.NoError(t, err)
	assert.Equal(t, "~user/file", got)
}
