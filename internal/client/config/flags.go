package config

import (
	"flag"
	"fmt"
	"io"
	"time"
)

// parseFlags applies the CLI flags and returns the remaining positional
// arguments. Parsing stops at the first non-flag argument, which is the
// command name.
func parseFlags(cfg *Config, args []string) ([]string, error) {
	fs := flag.NewFlagSet("authctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// consumed by parseJson
	fs.String("c", "", "path to JSON config file")
	fs.String("config", "", "path to JSON config file")

	fs.StringVar(&cfg.ServerURL, "s", cfg.ServerURL, "auth API base URL")
	fs.StringVar(&cfg.GRPCAddr, "g", cfg.GRPCAddr, "session gRPC address")
	fs.StringVar(&cfg.SessionPath, "session", cfg.SessionPath, "local session cache path")
	timeout := fs.String("timeout", "", "request timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	if *timeout != "" {
		d, err := time.ParseDuration(*timeout)
		if err != nil {
			return nil, fmt.Errorf("-timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	return fs.Args(), nil
}
