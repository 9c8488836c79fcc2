package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `
server:
  port: 9090
  allowedOrigins: ["http://localhost:3000"]
log:
  level: debug
stats:
  driver: sqlite
  dsn: results.db
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "void-duel.yaml"), []byte(cfg), 0644))

	require.NoError(t, Load(dir))

	s, err := Current()
	require.NoError(t, err)
	assert.Equal(t, 9090, s.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, s.Server.AllowedOrigins)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, "console", s.Log.Format)
	assert.Equal(t, "sqlite", s.Stats.Driver)
	assert.Equal(t, "results.db", s.Stats.DSN)
	assert.Equal(t, filepath.Join(dir, "void-duel.yaml"), ConfigFile())
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(t.TempDir()))

	assert.Equal(t, 8081, viper.GetInt("server.port"))
	assert.Equal(t, "info", viper.GetString("log.level"))
	assert.Equal(t, "console", viper.GetString("log.format"))
	assert.Equal(t, 0, viper.GetInt("match.seed"))
	assert.Equal(t, "", viper.GetString("match.scenario"))
	assert.Equal(t, "memory", viper.GetString("stats.driver"))
	assert.Equal(t, false, viper.GetBool("metrics.enabled"))
	assert.Equal(t, "", ConfigFile())

	s, err := Current()
	require.NoError(t, err)
	assert.Empty(t, s.Server.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, s.Match.IdleTimeout)
	assert.Equal(t, "void-duel", s.Metrics.ServiceName)
	assert.Equal(t, 30*time.Second, s.Metrics.Interval)
	assert.True(t, s.Metrics.Stdout)
	assert.Empty(t, s.Metrics.Endpoint)
}

func TestLoad_Env(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("VOID_DUEL_SERVER_PORT", "7000")
	t.Setenv("VOID_DUEL_MATCH_SEED", "42")
	t.Setenv("VOID_DUEL_METRICS_ENABLED", "true")
	t.Setenv("VOID_DUEL_MATCH_IDLETIMEOUT", "5m")

	require.NoError(t, Load(t.TempDir()))

	s, err := Current()
	require.NoError(t, err)
	assert.Equal(t, 7000, s.Server.Port)
	assert.Equal(t, int64(42), s.Match.Seed)
	assert.True(t, s.Metrics.Enabled)
	assert.Equal(t, 5*time.Minute, s.Match.IdleTimeout)
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "void-duel.yaml"), []byte("server: [port"), 0644))

	err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestCurrent_UnknownDriver(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(t.TempDir()))
	viper.Set("stats.driver", "mongo")

	_, err := Current()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stats driver")
}

func TestCurrent_IdleTimeoutMustBePositive(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(t.TempDir()))
	viper.Set("match.idleTimeout", "0s")

	_, err := Current()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match.idleTimeout")
}
