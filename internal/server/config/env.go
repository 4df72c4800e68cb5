package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Environment variables. The JWT_* and INTERNAL_API_TOKEN names are shared
// with the other services of the deployment.
const (
	envEnv               = "AUTH_ENV"
	envHTTPAddr          = "AUTH_HTTP_ADDR"
	envGRPCAddr          = "AUTH_GRPC_ADDR"
	envDatabaseDSN       = "AUTH_DB_URL"
	envStorage           = "AUTH_STORAGE"
	envAccessSecret      = "JWT_SECRET"
	envAccessTTL         = "JWT_EXPIRES_IN"
	envRefreshSecret     = "JWT_REFRESH_SECRET"
	envRefreshTTL        = "JWT_REFRESH_EXPIRES_IN"
	envRedisAddr         = "AUTH_REDIS_ADDR"
	envRedisPassword     = "AUTH_REDIS_PASSWORD"
	envRedisDB           = "AUTH_REDIS_DB"
	envEventStream       = "AUTH_EVENT_STREAM"
	envEventQueueSize    = "AUTH_EVENT_QUEUE_SIZE"
	envEventWorkers      = "AUTH_EVENT_WORKERS"
	envInternalAPIToken  = "INTERNAL_API_TOKEN"
	envStoreWriteTimeout = "AUTH_STORE_WRITE_TIMEOUT"
	envAtomicRotation    = "AUTH_ATOMIC_ROTATION"
	envBcryptCost        = "AUTH_BCRYPT_COST"
	envLogLevel          = "AUTH_LOG_LEVEL"
)

// ParseDuration accepts time.ParseDuration syntax plus a whole number of
// days with a "d" suffix ("30d").
func ParseDuration(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// parseEnv overlays every variable that is set and non-empty.
func parseEnv(config *Config, getenv func(string) string) error {
	strs := map[string]*string{
		envEnv:              &config.Env,
		envHTTPAddr:         &config.HTTPAddr,
		envGRPCAddr:         &config.GRPCAddr,
		envDatabaseDSN:      &config.DatabaseDSN,
		envStorage:          &config.Storage,
		envAccessSecret:     &config.AccessSecret,
		envRefreshSecret:    &config.RefreshSecret,
		envRedisAddr:        &config.RedisAddr,
		envRedisPassword:    &config.RedisPassword,
		envEventStream:      &config.EventStream,
		envInternalAPIToken: &config.InternalAPIToken,
		envLogLevel:         &config.LogLevel,
	}
	for name, dst := range strs {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		envRedisDB:        &config.RedisDB,
		envEventQueueSize: &config.EventQueueSize,
		envEventWorkers:   &config.EventWorkers,
		envBcryptCost:     &config.BcryptCost,
	}
	for name, dst := range ints {
		if v := getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		envAccessTTL:         &config.AccessTokenTTL,
		envRefreshTTL:        &config.RefreshTokenTTL,
		envStoreWriteTimeout: &config.StoreWriteTimeout,
	}
	for name, dst := range durations {
		if v := getenv(name); v != "" {
			d, err := ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = d
		}
	}

	if v := getenv(envAtomicRotation); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envAtomicRotation, err)
		}
		config.AtomicRotation = b
	}
	return nil
}
