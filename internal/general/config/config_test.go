package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "dispatch-service", cfg.Service.Name)
	assert.Equal(t, 3000, cfg.Service.HTTPPort)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, 40.0, cfg.Dispatch.AvgSpeedKMH)
	assert.Equal(t, 1024, cfg.Dispatch.NearestCacheSize)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.RabbitMQ.Enabled)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	path := writeFile(t, "config.yaml", `
service:
  http_port: 8081
storage:
  backend: Postgres
database:
  user: geo
  password: secret
  name: dispatch
dispatch:
  avg_speed_kmh: 30
seed:
  demo: true
`)
	t.Setenv("GD_DATABASE__HOST", "db.internal")
	t.Setenv("GD_DISPATCH__AVG_SPEED_KMH", "50")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Service.HTTPPort)
	assert.Equal(t, StoragePostgres, cfg.Storage.Backend)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 50.0, cfg.Dispatch.AvgSpeedKMH)
	assert.True(t, cfg.Seed.Demo)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"websocket": {"enabled": true}, "metrics": {"enabled": true, "path": "/prom"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.WebSocket.Enabled)
	assert.Equal(t, "/prom", cfg.Metrics.Path)
}

func TestLoadValidation(t *testing.T) {
	path := writeFile(t, "config.yaml", `
storage:
  backend: postgres
rabbitmq:
  enabled: true
dispatch:
  avg_speed_kmh: -1
`)
	_, err := Load(path)
	require.Error(t, err)
	for _, want := range []string{
		"database.user is required",
		"rabbitmq.user is required",
		"dispatch.avg_speed_kmh must be positive",
	} {
		assert.Contains(t, err.Error(), want)
	}

	_, err = Load(writeFile(t, "config.toml", "x = 1"))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadAuth(t *testing.T) {
	_, err := Load(writeFile(t, "config.yaml", "auth:\n  enabled: true\n"))
	assert.ErrorContains(t, err, "auth.secret is required")

	t.Setenv("GD_AUTH__SECRET", "s3cret")
	cfg, err := Load(writeFile(t, "config.yaml", "auth:\n  enabled: true\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
	assert.Equal(t, 120, cfg.Auth.TokenTTLMinutes)
}
