package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PartnerConfig describes how the partner in-store API is reached.
type PartnerConfig struct {
	SandboxURL    string        `yaml:"sandbox_url"`
	LiveURL       string        `yaml:"live_url"`
	CallbackURL   string        `yaml:"callback_url"`
	Timeout       time.Duration `yaml:"timeout"`
	ReceiptSource string        `yaml:"receipt_source"`
}

// ClickHouseConfig holds the connection parameters for the audit store.
type ClickHouseConfig struct {
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type Config struct {
	App struct {
		Env string `yaml:"env"`
	} `yaml:"app"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Partner PartnerConfig `yaml:"partner"`
	Storage struct {
		Backend string `yaml:"backend"`
		Dir     string `yaml:"dir"`
	} `yaml:"storage"`
	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`
	Kafka struct {
		BootstrapServers string `yaml:"bootstrap_servers"`
		Topic            string `yaml:"topic"`
	} `yaml:"kafka"`
	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Audit      struct {
		Sink string `yaml:"sink"`
	} `yaml:"audit"`
	Jaeger struct {
		Port     string `yaml:"port"`
		PortGrpc string `yaml:"port_grpc"`
	} `yaml:"jaeger"`
	OIDC struct {
		URL      string `yaml:"url"`
		ClientID string `yaml:"client_id"`
	} `yaml:"oidc"`
	JWT struct {
		JWTSecret string        `yaml:"jwt_secret"`
		TTL       time.Duration `yaml:"ttl"`
	} `yaml:"jwt"`
	Operator struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"operator"`
	RateLimit struct {
		RequestsPerMinute int `yaml:"requests_per_minute"`
	} `yaml:"rate_limit"`
}

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"

	SinkLog        = "log"
	SinkKafka      = "kafka"
	SinkClickHouse = "clickhouse"
)

// Default returns a configuration that talks to the real partner hosts and
// keeps all state in local files.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Environment variables are substituted into the raw YAML first.
	expandedFile := os.ExpandEnv(string(file))

	err = yaml.Unmarshal([]byte(expandedFile), config)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadOrDefault loads configPath when it exists and falls back to Default otherwise.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(configPath)
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "production"
	}
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Partner.SandboxURL == "" {
		c.Partner.SandboxURL = "https://sandbox-api.iyzipay.com"
	}
	if c.Partner.LiveURL == "" {
		c.Partner.LiveURL = "https://api.iyzipay.com"
	}
	if c.Partner.CallbackURL == "" {
		c.Partner.CallbackURL = "myapp://payment/callback"
	}
	if c.Partner.Timeout <= 0 {
		c.Partner.Timeout = 30 * time.Second
	}
	if c.Partner.ReceiptSource == "" {
		c.Partner.ReceiptSource = "transaction"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendFile
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = ".ceppos"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "payment.attempts"
	}
	if c.Audit.Sink == "" {
		c.Audit.Sink = SinkLog
	}
	if c.JWT.TTL <= 0 {
		c.JWT.TTL = time.Hour
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		c.RateLimit.RequestsPerMinute = 100
	}
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Audit.Sink {
	case SinkLog, SinkKafka, SinkClickHouse:
	default:
		return fmt.Errorf("unknown audit sink %q", c.Audit.Sink)
	}
	switch c.Partner.ReceiptSource {
	case "transaction", "receipt":
	default:
		return fmt.Errorf("unknown receipt source %q", c.Partner.ReceiptSource)
	}
	return nil
}
