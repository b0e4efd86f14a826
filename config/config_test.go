package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SAE-Geneve/roolback-St0wy/config"
)

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.toml"
	require.NoError(t, os.WriteFile(path, []byte(`
[simulation]
start_delay = "5s"

[logging]
level = "debug"
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, 5*time.Second, cfg.Simulation.StartDelay, "the file's value must override the default")
	require.Equal(t, float64(400), cfg.Simulation.PlayerSpeed, "fields absent from the file must keep their default")
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "console", cfg.Logging.Format, "untouched nested struct fields keep their default too")
	require.False(t, cfg.Trace.Enabled)
	require.Equal(t, "127.0.0.1:4040", cfg.DebugServer.Address)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := config.Load("/nonexistent/config.toml")
	require.Error(t, err)
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/bad.toml"
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}
