package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config is the full runtime configuration for the admin console service.
type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Session SessionConfig

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type ServerConfig struct {
	Port         int           `env:"SERVER_PORT" envDefault:"8082"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
}

// BackendConfig locates the commerce backend every gateway talks to.
type BackendConfig struct {
	BaseURL string        `env:"BACKEND_URL" envDefault:"http://localhost:3000"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// KafkaConfig configures the audit trail. Audit publishing is disabled when
// no brokers are set.
type KafkaConfig struct {
	Brokers    []string `env:"KAFKA_BROKERS" envSeparator:","`
	AuditTopic string   `env:"KAFKA_AUDIT_TOPIC" envDefault:"admin-console.audit"`
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// SessionConfig governs console session lifetime. TTL is the fallback used
// when a backend token carries no usable expiry of its own.
type SessionConfig struct {
	TTL time.Duration `env:"SESSION_TTL" envDefault:"12h"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}
