// Package config loads varbrokerd's runtime configuration the way the
// teacher's go-server-3 does: viper layered over defaults and an optional
// config file, plus a small env-only struct for the secrets that don't
// belong in a checked-in config file.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every tunable of the broker's core and ambient stack.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Audit     AuditConfig     `mapstructure:"audit"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	WSPath          string        `mapstructure:"ws_path"`
	SendQueueSize   int           `mapstructure:"send_queue_size"`
	WorkBufferBytes int           `mapstructure:"work_buffer_bytes"`
}

type RegistryConfig struct {
	MaxVariables int `mapstructure:"max_variables"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
	Endpoint   string `mapstructure:"endpoint"`
}

type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type RelayConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Secrets holds the values that come strictly from the environment, never
// from a config file (spec §9's credential handling, generalized): the
// relay and Kafka broker addresses, and a JWT signing key. The signing key
// is loaded but not used by anything in the broker.
type Secrets struct {
	JWTSigningKey string   `env:"VARBROKER_JWT_SIGNING_KEY"`
	NATSURL       string   `env:"VARBROKER_NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	KafkaBrokers  []string `env:"VARBROKER_KAFKA_BROKERS" envSeparator:","`
}

// Load reads configuration the way go-server-3 does: defaults, an optional
// varbroker.yaml/.env file, then environment overrides.
func Load() (Config, Secrets, error) {
	_ = godotenv.Load() // optional local .env overlay; absence is not an error

	v := viper.New()
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7070)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 5*time.Minute)
	v.SetDefault("server.ws_path", "/v1")
	v.SetDefault("server.send_queue_size", 64)
	v.SetDefault("server.work_buffer_bytes", 4096)

	v.SetDefault("registry.max_variables", 65536)

	v.SetDefault("rate_limit.requests_per_second", 500.0)
	v.SetDefault("rate_limit.burst", 1000)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.listen_addr", ":9464")
	v.SetDefault("metrics.endpoint", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	v.SetDefault("relay.enabled", false)
	v.SetDefault("audit.enabled", false)

	v.SetConfigName("varbroker")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("VARBROKER")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, Secrets{}, fmt.Errorf("config unmarshal: %w", err)
	}

	var secrets Secrets
	if err := env.Parse(&secrets); err != nil {
		return Config{}, Secrets{}, fmt.Errorf("secrets parse: %w", err)
	}

	return cfg, secrets, nil
}
