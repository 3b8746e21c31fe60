// Package redisclient provides Redis connection utilities.
package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/bissquit/bloomshop/internal/pkg/retry"
	"github.com/redis/go-redis/v9"
)

const dialTimeout = 5 * time.Second

// Config contains Redis connection configuration.
type Config struct {
	Addr            string
	Password        string
	DB              int
	ConnectAttempts int
}

// Connect creates a client and verifies it with PING.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	err := retry.Do(ctx, cfg.ConnectAttempts, "redis", func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()
		return client.Ping(pingCtx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}
