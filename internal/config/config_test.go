package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DATABASE_URL=postgres://localhost/test\nJWT_SECRET=abc\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "abc", cfg.JWTSecret)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.Equal(t, 10*time.Second, cfg.LeaderboardCacheTTL)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadFileMissingIsNotFatal(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWTSecret)
}

func TestValidate(t *testing.T) {
	cfg := &Config{DatabaseURL: "x", JWTSecret: "y", StreakTimezone: "Not/AZone"}
	assert.Error(t, cfg.Validate())

	cfg.StreakTimezone = "Europe/Berlin"
	assert.NoError(t, cfg.Validate())

	cfg.JWTSecret = ""
	assert.Error(t, cfg.Validate())
}
