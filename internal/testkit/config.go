// Package testkit provides the migrated Postgres database, the Redis instance
// and the fake rate source the integration tests run against.
package testkit

import (
	"os"
	"strconv"
	"time"
)

// Config selects the containers to start, or external instances to reuse.
type Config struct {
	PGImage        string
	RedisImage     string
	PGDSN          string // RATEMATCH_TEST_PG_DSN skips the Postgres container.
	RedisAddr      string // RATEMATCH_TEST_REDIS_ADDR skips the Redis container.
	StartupTimeout time.Duration
	KeepContainers bool
}

// LoadConfig reads RATEMATCH_TEST_* environment variables.
func LoadConfig() Config {
	return Config{
		PGImage:        env("RATEMATCH_TEST_PG_IMAGE", "postgres:18.1-alpine"),
		RedisImage:     env("RATEMATCH_TEST_REDIS_IMAGE", "redis:8.4.0-alpine"),
		PGDSN:          os.Getenv("RATEMATCH_TEST_PG_DSN"),
		RedisAddr:      os.Getenv("RATEMATCH_TEST_REDIS_ADDR"),
		StartupTimeout: envSeconds("RATEMATCH_TEST_STARTUP_SEC", 90*time.Second),
		KeepContainers: envBool("RATEMATCH_TEST_KEEP_CONTAINERS"),
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envSeconds(key string, def time.Duration) time.Duration {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}
