// Package utils holds connection helpers shared by the server and the
// ingest CLI: postgres, redis and TLS bootstrap.
package utils

import (
	"os"
	"strconv"

	"district-api/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedis opens a client from explicit parameters, kept for tests and
// manual injection. A missing address disables the tier (nil client).
func OpenRedis(addr, pass string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass})
}

// OpenRedisFromEnv opens a client from REDIS_* variables. REDIS_DB parse
// failures fall back to 0 silently; redis stays optional for the service.
func OpenRedisFromEnv() *redis.Client {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	addr := host + ":" + port
	pass := os.Getenv("REDIS_PASS")
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, _ := strconv.Atoi(v); n >= 0 {
			db = n
		}
	}
	logger.L().Debug("redis_env", "addr", addr, "db", db)
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}
