package config

// Redis backs the two protections in front of the availability read
// path: the shared response cache and the distributed rate limiter.
// Neither is load-bearing for correctness, since snapshots are
// advisory and bookings re-validate under their own locks, so a
// missing Redis degrades the service to uncached, unthrottled reads
// instead of failing startup.

import (
	"context"
	"crypto/tls"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a client from the environment:
//
//	REDIS_ADDR       host:port (REDIS_HOST/REDIS_PORT override it)
//	REDIS_PASSWORD   optional password
//	REDIS_DB         database number, default 0
//	REDIS_TLS        "true"/"1" enables TLS
//
// It pings once with a short timeout and returns nil when the server is
// unreachable; callers treat nil as "run without Redis".
func NewRedisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}

	var tlsConf *tls.Config
	if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
		tlsConf = &tls.Config{InsecureSkipVerify: true}
	}

	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        envInt("REDIS_DB", 0),
		TLSConfig: tlsConf,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}
