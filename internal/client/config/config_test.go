package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:4003", c.ServerURL)
	assert.Equal(t, "127.0.0.1:50051", c.GRPCAddr)
	assert.Equal(t, "authctl.db", c.SessionPath)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Empty(t, c.InternalAPIToken)
}

func TestLoad_DefaultsAndCommand(t *testing.T) {
	cfg, rest, err := Load([]string{"login", "alice@example.com"}, noEnv)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:4003", cfg.ServerURL)
	assert.Equal(t, []string{"login", "alice@example.com"}, rest)
}

func TestLoad_EnvThenFlags(t *testing.T) {
	env := map[string]string{
		envServer:        "http://env:1",
		envGRPC:          "env:2",
		envSession:       "/tmp/env.db",
		envInternalToken: "secret",
	}
	getenv := func(k string) string { return env[k] }

	cfg, rest, err := Load([]string{"-s", "http://flag:3", "-timeout", "2s", "refresh"}, getenv)
	require.NoError(t, err)

	assert.Equal(t, "http://flag:3", cfg.ServerURL)
	assert.Equal(t, "env:2", cfg.GRPCAddr)
	assert.Equal(t, "/tmp/env.db", cfg.SessionPath)
	assert.Equal(t, "secret", cfg.InternalAPIToken)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"refresh"}, rest)
}

func TestLoad_BadFlags(t *testing.T) {
	_, _, err := Load([]string{"-unknown"}, noEnv)
	require.Error(t, err)

	_, _, err = Load([]string{"-timeout", "soon"}, noEnv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-timeout")
}
