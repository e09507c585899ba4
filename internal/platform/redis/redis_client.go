// Package redis connects to an external Redis server.
package redis

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	EnvKeyRedisHost     = "REDIS_HOST"
	EnvKeyRedisPort     = "REDIS_PORT"
	EnvKeyRedisPassword = "REDIS_PASSWORD"
	EnvKeyRedisDB       = "REDIS_DB"

	defaultPort = "6379"
	pingTimeout = 3 * time.Second
)

// Config holds the Redis connection settings.
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// ConfigFromEnv reads REDIS_*. The second result is false when REDIS_HOST is unset,
// meaning Redis is not configured.
func ConfigFromEnv() (Config, bool, error) {
	cfg := Config{
		Host:     os.Getenv(EnvKeyRedisHost),
		Port:     os.Getenv(EnvKeyRedisPort),
		Password: os.Getenv(EnvKeyRedisPassword),
	}
	if cfg.Host == "" {
		return Config{}, false, nil
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if v := os.Getenv(EnvKeyRedisDB); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil || db < 0 {
			return Config{}, false, fmt.Errorf("invalid %s: %q", EnvKeyRedisDB, v)
		}
		cfg.DB = db
	}
	return cfg, true, nil
}

// NewRedisClient connects and pings. The client is closed when the ping fails.
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// verify the connection
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		zap.L().Error("Redis connection failed", zap.String("address", cfg.Addr()), zap.Error(err))
		return nil, err
	}

	zap.L().Info("Redis connection successful", zap.String("address", cfg.Addr()))
	return rdb, nil
}
