package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Nil(t, cfg.TokenTTLPtr())
}

func TestLoadFileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "topicgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: production
http_addr: ":9090"
db_path: /var/lib/topicgraph/graph.db
token_ttl: 24h
cors_origins: ["https://graphs.example.com"]
`), 0o600))

	t.Setenv("TOPICGRAPH_HTTP_ADDR", ":7070")
	t.Setenv("TOPICGRAPH_CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, ":7070", cfg.HTTPAddr)
	assert.Equal(t, "/var/lib/topicgraph/graph.db", cfg.DBPath)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	require.NotNil(t, cfg.TokenTTLPtr())
	assert.Equal(t, 24*time.Hour, *cfg.TokenTTLPtr())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("TOPICGRAPH_ENV", "staging")
	_, err := Load("")
	assert.ErrorContains(t, err, "Env")

	t.Setenv("TOPICGRAPH_ENV", "test")
	t.Setenv("TOPICGRAPH_TOKEN_TTL", "soon")
	_, err = Load("")
	assert.ErrorContains(t, err, "TOKEN_TTL")
}

func TestDurationAcceptsSeconds(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TOPICGRAPH_SHUTDOWN_TIMEOUT", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTTL)
}
