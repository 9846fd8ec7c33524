package infra

import (
	"fmt"
	"time"

	"github.com/incentiva/campaign-engine/utils"
)

type PgConfig struct {
	ConnectionString   string
	Database           string
	Hostname           string
	Password           string
	Port               string
	User               string
	MaxPoolConnections int
	SslMode            string
}

func (config PgConfig) GetConnectionString() string {
	if config.ConnectionString != "" {
		return config.ConnectionString
	}

	if config.SslMode == "" {
		config.SslMode = "prefer"
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s database=%s sslmode=%s",
		config.Hostname, config.Port, config.User, config.Password, config.Database, config.SslMode)
}

type RedisConfig struct {
	Address     string
	Username    string
	Password    string
	DialTimeout time.Duration
}

type EngineConfig struct {
	Env      string
	LogLevel string

	Pg    PgConfig
	Redis RedisConfig
}

// ConfigFromEnv reads the engine configuration from environment
// variables. Required variables panic at startup rather than failing on
// the first evaluation.
func ConfigFromEnv() EngineConfig {
	return EngineConfig{
		Env:      utils.GetStringEnv("ENV", "development"),
		LogLevel: utils.GetStringEnv("LOG_LEVEL", "INFO"),
		Pg: PgConfig{
			ConnectionString:   utils.GetStringEnv("PG_CONNECTION_STRING", ""),
			Database:           utils.GetStringEnv("PG_DATABASE", "campaign_engine"),
			Hostname:           utils.GetStringEnv("PG_HOSTNAME", "localhost"),
			Password:           utils.GetStringEnv("PG_PASSWORD", ""),
			Port:               utils.GetStringEnv("PG_PORT", "5432"),
			User:               utils.GetStringEnv("PG_USER", "postgres"),
			MaxPoolConnections: utils.GetIntEnv("PG_MAX_POOL_SIZE", maxConnections),
			SslMode:            utils.GetStringEnv("PG_SSL_MODE", "prefer"),
		},
		Redis: RedisConfig{
			Address:     utils.GetStringEnv("REDIS_ADDRESS", "localhost:6379"),
			Username:    utils.GetStringEnv("REDIS_USERNAME", ""),
			Password:    utils.GetStringEnv("REDIS_PASSWORD", ""),
			DialTimeout: 10 * time.Second,
		},
	}
}
