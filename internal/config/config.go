package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the ticker daemon process.
type Config struct {
	Daemon    DaemonConfig    `yaml:"daemon"`
	NATS      NATSConfig      `yaml:"nats"`
	Redis     RedisConfig     `yaml:"redis"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Exchanges ExchangesConfig `yaml:"exchanges"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DaemonConfig holds the orchestrator's own tunables: the rate-gate window,
// the shutdown deadline, and the identity used to look up credentials.
type DaemonConfig struct {
	ReconnectWindowSeconds int    `yaml:"reconnect_window_seconds"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
	AdminIdentity          string `yaml:"admin_identity"`
}

// ReconnectWindow is the rate-gate admission window as a time.Duration.
func (d DaemonConfig) ReconnectWindow() time.Duration {
	return time.Duration(d.ReconnectWindowSeconds) * time.Second
}

// ShutdownTimeout is the bounded-wait budget for collector teardown. Zero
// means unbounded, matching the default documented configuration surface.
func (d DaemonConfig) ShutdownTimeout() time.Duration {
	return time.Duration(d.ShutdownTimeoutSeconds) * time.Second
}

// NATSConfig holds NATS connection settings for lifecycle event publishing.
type NATSConfig struct {
	URL           string        `yaml:"url"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
	MaxReconnects int           `yaml:"max_reconnects"`
}

// RedisConfig holds the ticker store / process registry connection.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PostgresConfig holds the configuration-store connection.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// ExchangesConfig holds the per-exchange WebSocket dial settings and
// endpoints used by the default adapter.
type ExchangesConfig struct {
	WebSocket WebSocketConfig          `yaml:"websocket"`
	Endpoints map[string]EndpointConfig `yaml:"endpoints"`
}

// EndpointConfig is one exchange's combined-stream connection template.
type EndpointConfig struct {
	BaseURL      string `yaml:"base_url"`
	StreamSuffix string `yaml:"stream_suffix"`
}

// WebSocketConfig holds WebSocket connection settings shared by every
// exchange handler.
type WebSocketConfig struct {
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	MaxReconnectDelay time.Duration `yaml:"max_reconnect_delay"`
}

// LoggingConfig holds the ambient logging surface.
type LoggingConfig struct {
	ComponentPrefix string `yaml:"component_prefix"`
	Level           string `yaml:"level"`
}

// Load reads configuration from a YAML file and then applies environment
// variable overrides. A missing file is not an error: the defaults apply.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// defaultConfig returns configuration with sensible defaults: a 30-second
// rate-gate window, an unbounded shutdown timeout, and local-dev endpoints
// for every external collaborator.
func defaultConfig() *Config {
	return &Config{
		Daemon: DaemonConfig{
			ReconnectWindowSeconds: 30,
			ShutdownTimeoutSeconds: 0,
			AdminIdentity:          "ticker-daemon",
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			ReconnectWait: 2 * time.Second,
			MaxReconnects: 10,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			DB:   0,
		},
		Postgres: PostgresConfig{
			DSN: "postgres://localhost:5432/fullon?sslmode=disable",
		},
		Exchanges: ExchangesConfig{
			WebSocket: WebSocketConfig{
				HandshakeTimeout:  10 * time.Second,
				ReconnectDelay:    time.Second,
				MaxReconnectDelay: 30 * time.Second,
			},
			Endpoints: map[string]EndpointConfig{
				"binance": {BaseURL: "wss://stream.binance.com:9443", StreamSuffix: "@ticker"},
			},
		},
		Logging: LoggingConfig{
			ComponentPrefix: "ticker-daemon",
			Level:           "info",
		},
	}
}

// applyEnvOverrides lets deployment environments override the handful of
// settings that commonly vary outside of committed YAML: connection
// strings and the admin identity used for credential lookup.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("NATS_URL"); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("TICKER_ADMIN_IDENTITY"); v != "" {
		c.Daemon.AdminIdentity = v
	}
}
