package testkit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/hibiken/asynq"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver registration
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"go.uber.org/zap"

	"ratematch/internal/repository"
)

// Suite holds the shared test infrastructure: a migrated database and a
// Redis client, plus the containers behind them.
type Suite struct {
	DB    *sql.DB
	Redis *redis.Client

	cfg        Config
	redisAddr  string
	containers []testcontainers.Container
}

// Setup starts the containers, opens connections and applies the
// refresh_jobs migration.
func Setup(ctx context.Context, cfg Config) (*Suite, error) {
	s := &Suite{cfg: cfg}

	pg, dsn, err := startPostgres(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.track(pg)

	rc, addr, err := startRedis(ctx, cfg)
	if err != nil {
		s.Shutdown(ctx)
		return nil, err
	}
	s.track(rc)
	s.redisAddr = addr

	s.DB, err = sql.Open("pgx", dsn)
	if err == nil {
		err = s.DB.PingContext(ctx)
	}
	if err == nil {
		err = repository.RunMigrations(ctx, s.DB, zap.NewNop().Sugar())
	}
	if err != nil {
		s.Shutdown(ctx)
		return nil, fmt.Errorf("prepare database: %w", err)
	}

	s.Redis = redis.NewClient(&redis.Options{Addr: addr})
	if err := s.Redis.Ping(ctx).Err(); err != nil {
		s.Shutdown(ctx)
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}
	return s, nil
}

func (s *Suite) track(c testcontainers.Container) {
	if c != nil {
		s.containers = append(s.containers, c)
	}
}

// AsynqRedisOpt returns asynq connection options for the test Redis instance.
func (s *Suite) AsynqRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: s.redisAddr}
}

// Reset empties refresh_jobs and the Redis database, which also drops queued
// tasks and cached facts.
func (s *Suite) Reset(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.DB.ExecContext(ctx, "TRUNCATE TABLE refresh_jobs"); err != nil {
		t.Fatalf("truncate refresh_jobs: %v", err)
	}
	if err := s.Redis.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
}

// Shutdown closes connections and terminates containers unless they are kept.
func (s *Suite) Shutdown(ctx context.Context) {
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.DB != nil {
		_ = s.DB.Close()
	}
	if s.cfg.KeepContainers {
		if len(s.containers) > 0 {
			fmt.Fprintln(os.Stderr, "testkit: keeping containers, redis at", s.redisAddr)
		}
		return
	}
	for _, c := range s.containers {
		if err := c.Terminate(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "testkit: terminate container:", err)
		}
	}
}

// Run sets up a suite from the environment, runs the tests and exits.
// Intended for TestMain; the suite is handed to use before any test runs.
func Run(m *testing.M, use func(*Suite)) {
	ctx := context.Background()

	s, err := Setup(ctx, LoadConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "integration test setup failed: %v\n", err)
		os.Exit(1)
	}
	use(s)

	code := m.Run()
	s.Shutdown(ctx)
	os.Exit(code)
}
