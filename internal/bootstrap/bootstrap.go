// Package bootstrap assembles the application from configuration. Both the
// HTTP service and the operator CLI start from here.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"instore-payment-client/internal/adapters/gateway"
	"instore-payment-client/internal/adapters/messaging/kafka"
	"instore-payment-client/internal/adapters/messaging/logsink"
	"instore-payment-client/internal/adapters/storage/clickhouse"
	"instore-payment-client/internal/adapters/storage/file"
	"instore-payment-client/internal/adapters/storage/memory"
	"instore-payment-client/internal/adapters/storage/postgres"
	"instore-payment-client/internal/adapters/storage/redis"
	"instore-payment-client/internal/app"
	"instore-payment-client/internal/config"
	"instore-payment-client/internal/core/ports"
	"instore-payment-client/internal/prefs"
)

// Components holds the wired adapters and services.
type Components struct {
	Config      *config.Config
	Credentials *prefs.CredentialStore
	Users       *prefs.DirectoryStore
	Gateway     *gateway.Client
	Publisher   ports.AttemptPublisher
	Directory   ports.UserDirectory
	Settings    *app.Settings
	// Redis is set when redis.addr is configured.
	Redis *goredis.Client

	logger  *slog.Logger
	closers []func()
}

// Open connects the configured storage backend and audit sink.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	c := &Components{Config: cfg, logger: logger}

	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr)
		if err != nil {
			if cfg.Storage.Backend == config.BackendRedis {
				return nil, err
			}
			logger.Warn("redis unavailable, continuing without it", "addr", cfg.Redis.Addr, "error", err)
		} else {
			c.Redis = rdb
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		}
	}

	kv, err := c.openStore(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	publisher, err := c.openPublisher(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Credentials = prefs.NewCredentialStore(kv)
	c.Users = prefs.NewDirectoryStore(kv)
	c.Gateway = gateway.NewClientFromConfig(cfg.Partner, logger)
	c.Publisher = publisher
	c.Directory = app.NewUserDirectory(c.Credentials, c.Gateway, c.Users, logger)
	c.Settings = app.NewSettings(c.Credentials)
	return c, nil
}

// Transactions builds the orchestrator around launcher.
func (c *Components) Transactions(launcher ports.URILauncher) ports.TransactionService {
	return app.NewTransactionService(c.Credentials, c.Directory, c.Gateway, launcher, c.Publisher, c.logger)
}

// Callbacks builds the return deep link resolver.
func (c *Components) Callbacks() ports.CallbackResolver {
	source := app.ParseReceiptSource(c.Config.Partner.ReceiptSource)
	return app.NewCallbackResolver(c.Credentials, c.Gateway, c.Publisher, source, c.logger)
}

// Close releases connections in reverse order of opening.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func (c *Components) openStore(ctx context.Context) (ports.KeyValueStore, error) {
	switch c.Config.Storage.Backend {
	case config.BackendMemory:
		return memory.NewStore(), nil
	case config.BackendFile:
		store, err := file.NewStore(c.Config.Storage.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendRedis:
		if c.Redis == nil {
			return nil, fmt.Errorf("storage backend %q needs redis.addr", config.BackendRedis)
		}
		return redis.NewStore(c.Redis), nil
	case config.BackendPostgres:
		repo, err := postgres.NewRepository(ctx, c.Config.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, repo.Close)
		c.logger.Info("connected to PostgreSQL")
		return repo, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", c.Config.Storage.Backend)
}

func (c *Components) openPublisher(ctx context.Context) (ports.AttemptPublisher, error) {
	switch c.Config.Audit.Sink {
	case config.SinkKafka:
		p, err := kafka.NewPublisher(ctx, SplitBrokers(c.Config.Kafka.BootstrapServers), c.Config.Kafka.Topic, c.logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, p.Close)
		c.logger.Info("kafka publisher created", "topic", c.Config.Kafka.Topic)
		return p, nil
	case config.SinkClickHouse:
		conn, err := clickhouse.Connect(ctx, c.Config.ClickHouse)
		if err != nil {
			return nil, err
		}
		store, err := clickhouse.NewAttemptStore(ctx, conn, c.logger)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		c.closers = append(c.closers, store.Close)
		return store, nil
	}
	return logsink.NewPublisher(c.logger), nil
}

// SplitBrokers turns a comma separated bootstrap list into seed addresses.
func SplitBrokers(list string) []string {
	var out []string
	for _, b := range strings.Split(list, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
