package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "threads")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "threads", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, ":9090", cfg.GRPC.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, ThreadsConfig{
		DefaultPageLimit: 20,
		MaxPageLimit:     100,
		CollapseDepth:    4,
		MaxContentRunes:  5000,
		IndexCacheSize:   10000,
	}, cfg.Threads)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_RequiresServiceName(t *testing.T) {
	t.Setenv("SERVICE_NAME", "")
	_, err := Load()
	assert.ErrorContains(t, err, "SERVICE_NAME")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "threads")
	t.Setenv("THREADS_MAX_PAGE_LIMIT", "50")
	t.Setenv("THREADS_COLLAPSE_DEPTH", "6")
	t.Setenv("GRPC_TRUST_FORWARDED_USER", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Threads.MaxPageLimit)
	assert.Equal(t, 6, cfg.Threads.CollapseDepth)
	assert.True(t, cfg.GRPC.TrustForwardedUser)
}

func TestLoad_RejectsInconsistentPaging(t *testing.T) {
	t.Setenv("SERVICE_NAME", "threads")
	t.Setenv("THREADS_DEFAULT_PAGE_LIMIT", "200")
	t.Setenv("THREADS_MAX_PAGE_LIMIT", "100")

	_, err := Load()
	assert.ErrorContains(t, err, "THREADS_DEFAULT_PAGE_LIMIT")
}

func TestLoad_ProductionNeedsSecret(t *testing.T) {
	t.Setenv("SERVICE_NAME", "threads")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threads.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service_name: from-file\nthreads:\n  collapse_depth: 3\n"), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ServiceName)
	assert.Equal(t, 3, cfg.Threads.CollapseDepth)
	assert.Equal(t, 100, cfg.Threads.MaxPageLimit)
}
