package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the authctl CLI.
type Config struct {
	ServerURL        string
	GRPCAddr         string
	SessionPath      string
	InternalAPIToken string
	RequestTimeout   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:4003"
	c.GRPCAddr = "127.0.0.1:50051"
	c.SessionPath = "authctl.db"
	c.RequestTimeout = 10 * time.Second
}

const (
	envServer        = "AUTHCTL_SERVER"
	envGRPC          = "AUTHCTL_GRPC"
	envSession       = "AUTHCTL_SESSION"
	envInternalToken = "INTERNAL_API_TOKEN"
)

func parseEnv(c *Config, getenv func(string) string) {
	if v := getenv(envServer); v != "" {
		c.ServerURL = v
	}
	if v := getenv(envGRPC); v != "" {
		c.GRPCAddr = v
	}
	if v := getenv(envSession); v != "" {
		c.SessionPath = v
	}
	if v := getenv(envInternalToken); v != "" {
		c.InternalAPIToken = v
	}
}

// Load builds a Config from defaults, JSON, env and flags. The returned
// slice holds the positional arguments left after the flags.
func Load(args []string, getenv func(string) string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, nil, err
	}
	parseEnv(cfg, getenv)
	rest, err := parseFlags(cfg, args)
	if err != nil {
		return nil, nil, err
	}
	return cfg, rest, nil
}

// LoadConfig is Load over the process arguments and environment.
func LoadConfig() (*Config, []string, error) {
	return Load(os.Args[1:], os.Getenv)
}
