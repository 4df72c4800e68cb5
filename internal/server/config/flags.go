package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/authcore/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          HTTP bind address (e.g., ":4003")
//	-g string          gRPC bind address, empty disables gRPC
//	-d string          PostgreSQL DSN
//	-storage string    "postgres" or "memory"
//	-redis string      Redis address for registration events
//	-log-level string  debug, info, warn or error
//	-t string          access token lifetime ("24h", "1d")
//	-r string          refresh token lifetime ("720h", "30d")
//	-atomic-rotation   rotate refresh tokens in one transaction
//
// Secrets are deliberately not accepted on the command line.
func parseFlags(config *Config, args []string) error {
	// Filter args to include only the flags handled here.
	args = flagx.FilterArgs(args, []string{
		"-a", "-g", "-d", "-storage", "-redis", "-log-level", "-t", "-r", "-atomic-rotation",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.Storage, "storage", config.Storage, "storage backend: postgres or memory")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.BoolVar(&config.AtomicRotation, "atomic-rotation", config.AtomicRotation, "rotate refresh tokens atomically")

	accessTTL := fs.String("t", "", "access token lifetime")
	refreshTTL := fs.String("r", "", "refresh token lifetime")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}

	if *accessTTL != "" {
		d, err := ParseDuration(*accessTTL)
		if err != nil {
			return fmt.Errorf("-t: %w", err)
		}
		config.AccessTokenTTL = d
	}
	if *refreshTTL != "" {
		d, err := ParseDuration(*refreshTTL)
		if err != nil {
			return fmt.Errorf("-r: %w", err)
		}
		config.RefreshTokenTTL = d
	}
	return nil
}
