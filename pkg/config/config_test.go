package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves the test into an empty directory so no .env file is found.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "sqlite://bestxi.db", cfg.DatabaseURL)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.SolveTimeout())
	assert.Equal(t, int64(5000000), cfg.MaxSolverNodes)
	assert.Equal(t, 11, cfg.DefaultSquadSize)
	assert.Equal(t, 4, cfg.DefaultMaxForeign)
	assert.Equal(t, "T20", cfg.DefaultFormat)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.CorsOrigins)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("CACHE_TTL", "15m")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("DEFAULT_SQUAD_SIZE", "6")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.False(t, cfg.CacheEnabled)
	assert.Equal(t, 6, cfg.DefaultSquadSize)
}

func TestLoadConfig_RejectsNonPositiveTimeout(t *testing.T) {
	chdirTemp(t)
	t.Setenv("OPTIMIZATION_TIMEOUT", "0")

	_, err := LoadConfig()
	assert.Error(t, err)
}
