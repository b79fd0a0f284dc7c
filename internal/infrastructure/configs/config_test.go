package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, uint16(8080), cfg.HTTP.Port)
	assert.Equal(t, 3, cfg.Game.CountdownFrom)
	assert.Equal(t, 30*time.Second, cfg.Game.InputTimeoutBase)
	assert.Equal(t, 5*time.Second, cfg.Game.DisconnectBuffer)
	assert.Equal(t, 60*time.Second, cfg.Game.DisconnectGrace)
	assert.Equal(t, 10, cfg.RateLimiter.PerSecond)
	assert.Equal(t, 12*time.Hour, cfg.Session.MaxAge)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
http:
  port: 9090
game:
  countdown_from: 5
  disconnect_grace: 30s
session:
  secret: file-secret
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint16(9090), cfg.HTTP.Port)
	assert.Equal(t, 5, cfg.Game.CountdownFrom)
	assert.Equal(t, 30*time.Second, cfg.Game.DisconnectGrace)
	assert.Equal(t, "file-secret", cfg.Session.Secret)

	// Untouched keys keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 30*time.Second, cfg.Game.InputTimeoutBase)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("GAME_DISCONNECT_BUFFER_SECONDS", "9")
	t.Setenv("SESSION_SECRET", "env-secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, uint16(7070), cfg.HTTP.Port)
	assert.Equal(t, 9*time.Second, cfg.Game.DisconnectBuffer)
	assert.Equal(t, "env-secret", cfg.Session.Secret)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestInputTimeout_ShrinksAndFloors(t *testing.T) {
	g := GameConfig{
		InputTimeoutBase: 30 * time.Second,
		InputTimeoutStep: time.Second,
		InputTimeoutMin:  10 * time.Second,
	}

	assert.Equal(t, 30*time.Second, g.InputTimeout(1))
	assert.Equal(t, 29*time.Second, g.InputTimeout(2))
	assert.Equal(t, 11*time.Second, g.InputTimeout(20))
	assert.Equal(t, 10*time.Second, g.InputTimeout(21))
	assert.Equal(t, 10*time.Second, g.InputTimeout(100))

	// Out-of-range rounds clamp to round 1.
	assert.Equal(t, 30*time.Second, g.InputTimeout(0))
	assert.Equal(t, 30*time.Second, g.InputTimeout(-5))
}
