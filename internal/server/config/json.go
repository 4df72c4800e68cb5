package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/authcore/internal/flagx"
	"github.com/dmitrijs2005/authcore/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "15m" and integer nanoseconds.
//
// Pointer fields distinguish "absent" from "zero", so a file only
// overrides the keys it mentions.
type JsonConfig struct {
	Env               *string         `json:"env"`
	HTTPAddr          *string         `json:"http_addr"`
	GRPCAddr          *string         `json:"grpc_addr"`
	DatabaseDSN       *string         `json:"database_dsn"`
	Storage           *string         `json:"storage"`
	AccessSecret      *string         `json:"access_secret"`
	RefreshSecret     *string         `json:"refresh_secret"`
	AccessTokenTTL    *timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL   *timex.Duration `json:"refresh_token_ttl"`
	RedisAddr         *string         `json:"redis_addr"`
	RedisPassword     *string         `json:"redis_password"`
	RedisDB           *int            `json:"redis_db"`
	EventStream       *string         `json:"event_stream"`
	EventStreamMaxLen *int64          `json:"event_stream_max_len"`
	EventQueueSize    *int            `json:"event_queue_size"`
	EventWorkers      *int            `json:"event_workers"`
	InternalAPIToken  *string         `json:"internal_api_token"`
	StoreWriteTimeout *timex.Duration `json:"store_write_timeout"`
	AtomicRotation    *bool           `json:"atomic_rotation"`
	BcryptCost        *int            `json:"bcrypt_cost"`
	LogLevel          *string         `json:"log_level"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}

// parseJson loads configuration values from the JSON file named by -c or
// -config. Without the flag nothing is loaded.
func parseJson(config *Config, args []string) error {

	// try flags
	jsonConfigFile := flagx.ConfigFileFlag(args)

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	set(&config.Env, c.Env)
	set(&config.HTTPAddr, c.HTTPAddr)
	set(&config.GRPCAddr, c.GRPCAddr)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.Storage, c.Storage)
	set(&config.AccessSecret, c.AccessSecret)
	set(&config.RefreshSecret, c.RefreshSecret)
	setDuration(&config.AccessTokenTTL, c.AccessTokenTTL)
	setDuration(&config.RefreshTokenTTL, c.RefreshTokenTTL)
	set(&config.RedisAddr, c.RedisAddr)
	set(&config.RedisPassword, c.RedisPassword)
	set(&config.RedisDB, c.RedisDB)
	set(&config.EventStream, c.EventStream)
	set(&config.EventStreamMaxLen, c.EventStreamMaxLen)
	set(&config.EventQueueSize, c.EventQueueSize)
	set(&config.EventWorkers, c.EventWorkers)
	set(&config.InternalAPIToken, c.InternalAPIToken)
	setDuration(&config.StoreWriteTimeout, c.StoreWriteTimeout)
	set(&config.AtomicRotation, c.AtomicRotation)
	set(&config.BcryptCost, c.BcryptCost)
	set(&config.LogLevel, c.LogLevel)
	return nil
}
