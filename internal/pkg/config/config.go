package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all rule engine configuration.
type Config struct {
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	RedisAddr          string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	PostgresURL        string        `env:"POSTGRES_URL,required"`
	HealthAddr         string        `env:"HEALTH_ADDR" envDefault:":8081"`
	StreamBatchSize    int           `env:"STREAM_BATCH_SIZE" envDefault:"100"`
	StreamBlockTimeout time.Duration `env:"STREAM_BLOCK_TIMEOUT" envDefault:"5s"`
	ConsumerBackoff    time.Duration `env:"CONSUMER_BACKOFF" envDefault:"1s"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	DedupCacheTTL      time.Duration `env:"DEDUP_CACHE_TTL" envDefault:"60s"`
	DedupSweepInterval time.Duration `env:"DEDUP_SWEEP_INTERVAL" envDefault:"30s"`
	DBMaxOpenConns     int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns     int           `env:"DB_MAX_IDLE_CONNS" envDefault:"2"`
	DBConnMaxLifetime  time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
