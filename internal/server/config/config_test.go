package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, EnvDevelopment, c.Env)
	assert.Equal(t, ":4003", c.HTTPAddr)
	assert.Equal(t, ":50051", c.GRPCAddr)
	assert.Equal(t, StoragePostgres, c.Storage)
	assert.Equal(t, 24*time.Hour, c.AccessTokenTTL)
	assert.Equal(t, 720*time.Hour, c.RefreshTokenTTL)
	assert.Equal(t, "auth.user-registered", c.EventStream)
	assert.True(t, c.AtomicRotation)
	assert.Equal(t, 10*time.Second, c.StoreWriteTimeout)
	assert.NoError(t, c.Validate())
}

func TestLoad_DefaultsOnly(t *testing.T) {
	c, err := Load(nil, envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, ":4003", c.HTTPAddr)
}

func TestValidate(t *testing.T) {
	strong := "0123456789abcdef0123456789abcdef"
	strong2 := "fedcba9876543210fedcba9876543210"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"dev defaults", func(c *Config) {}, ""},
		{"same secrets", func(c *Config) { c.RefreshSecret = c.AccessSecret }, "must differ"},
		{"missing secret", func(c *Config) { c.AccessSecret = "" }, "required"},
		{"weak secrets in production", func(c *Config) { c.Env = EnvProduction }, "at least 32 bytes"},
		{"strong secrets in production", func(c *Config) {
			c.Env = EnvProduction
			c.AccessSecret, c.RefreshSecret = strong, strong2
		}, ""},
		{"short internal token in production", func(c *Config) {
			c.Env = EnvProduction
			c.AccessSecret, c.RefreshSecret = strong, strong2
			c.InternalAPIToken = "short"
		}, "internal API token"},
		{"unknown env", func(c *Config) { c.Env = "staging" }, "unknown env"},
		{"unknown storage", func(c *Config) { c.Storage = "mongo" }, "unknown storage"},
		{"postgres without dsn", func(c *Config) { c.DatabaseDSN = "" }, "database DSN"},
		{"memory without dsn", func(c *Config) { c.Storage = StorageMemory; c.DatabaseDSN = "" }, ""},
		{"zero ttl", func(c *Config) { c.AccessTokenTTL = 0 }, "lifetimes"},
		{"no http addr", func(c *Config) { c.HTTPAddr = "" }, "HTTP address"},
		{"negative timeout", func(c *Config) { c.StoreWriteTimeout = -time.Second }, "write timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_InvalidIsRejected(t *testing.T) {
	_, err := Load(nil, envMap(map[string]string{envEnv: EnvProduction}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
