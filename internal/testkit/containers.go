package testkit

import (
	"context"
	"fmt"
	"net/url"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres returns the DSN of the ratematch test database. The returned
// container is nil when an external DSN is configured.
func startPostgres(ctx context.Context, cfg Config) (testcontainers.Container, string, error) {
	if cfg.PGDSN != "" {
		return nil, cfg.PGDSN, nil
	}

	ctr, err := postgres.Run(ctx,
		cfg.PGImage,
		postgres.WithDatabase("ratematch_test"),
		postgres.WithUsername("ratematch"),
		postgres.WithPassword("ratematch"),
		testcontainers.WithWaitStrategyAndDeadline(cfg.StartupTimeout,
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("start postgres container: %w", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, "", fmt.Errorf("postgres connection string: %w", err)
	}
	return ctr, dsn, nil
}

// startRedis returns the host:port of the Redis instance shared by the fact
// cache and the asynq queue.
func startRedis(ctx context.Context, cfg Config) (testcontainers.Container, string, error) {
	if cfg.RedisAddr != "" {
		return nil, cfg.RedisAddr, nil
	}

	ctr, err := tcredis.Run(ctx, cfg.RedisImage)
	if err != nil {
		return nil, "", fmt.Errorf("start redis container: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx)
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, "", fmt.Errorf("redis connection string: %w", err)
	}
	// go-redis and asynq take host:port, not redis:// URLs.
	u, err := url.Parse(connStr)
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, "", fmt.Errorf("parse redis connection string %q: %w", connStr, err)
	}
	return ctr, u.Host, nil
}
