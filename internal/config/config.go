package config

import (
	"github.com/maxviazov/matchday-session-service/internal/logger"
)

type Config struct {
	App      AppConfig           `mapstructure:"app"`
	Logger   logger.LoggerConfig `mapstructure:"logger"`
	Postgres PostgresConfig      `mapstructure:"postgres"`
	Redis    RedisConfig         `mapstructure:"redis"`
	Live     LiveConfig          `mapstructure:"live"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"`
	Port    int    `mapstructure:"port" validate:"min=1,max=65535"`
}

// PostgresConfig backs the durable store. Secrets usually arrive via APP_POSTGRES_* env.
type PostgresConfig struct {
	Host              string `mapstructure:"host" validate:"required"`
	Port              int    `mapstructure:"port" validate:"min=1,max=65535"`
	User              string `mapstructure:"user" validate:"required"`
	Password          string `mapstructure:"password" validate:"required"`
	DBName            string `mapstructure:"db" validate:"required"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`   // seconds
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`  // seconds
	HealthCheckPeriod int    `mapstructure:"health_check_period"` // seconds
}

// RedisConfig backs the volatile store of in-progress games.
type RedisConfig struct {
	Addr      string `mapstructure:"addr" validate:"required"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db" validate:"min=0"`
	KeyPrefix string `mapstructure:"key_prefix"`
	// TTLSeconds expires untouched in-progress games; 0 keeps them forever.
	TTLSeconds int `mapstructure:"ttl_seconds" validate:"min=0"`
}

// LiveConfig controls the clock feed pushed to live subscribers.
type LiveConfig struct {
	TickIntervalMs int `mapstructure:"tick_interval_ms" validate:"min=100"`
}
