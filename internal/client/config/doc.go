// Package config loads runtime configuration for the authctl CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Environment: AUTHCTL_SERVER, AUTHCTL_GRPC, AUTHCTL_SESSION and
//     INTERNAL_API_TOKEN.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-s string        base URL of the auth HTTP API
//	-g string        address:port of the session gRPC endpoint
//	-session string  path of the local session cache
//	-timeout string  per-request timeout ("10s")
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:4003",
//	  "grpc_addr": "127.0.0.1:50051",
//	  "session_path": "authctl.db",
//	  "request_timeout": "10s"
//	}
//
// Everything after the flags is returned untouched as the command line.
package config
