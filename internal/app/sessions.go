package app

import (
	"context"
	"fmt"

	"github.com/bissquit/bloomshop/internal/config"
	"github.com/bissquit/bloomshop/internal/pkg/metrics"
	"github.com/bissquit/bloomshop/internal/pkg/redisclient"
	"github.com/bissquit/bloomshop/internal/session"
	sessionredis "github.com/bissquit/bloomshop/internal/session/redis"
)

func (a *App) openSessionStore(ctx, bgCtx context.Context) (session.Store, error) {
	cfg := a.config.Session

	if cfg.Store == config.DriverRedis {
		client, err := redisclient.Connect(ctx, redisclient.Config{
			Addr:            a.config.Redis.Addr,
			Password:        a.config.Redis.Password,
			DB:              a.config.Redis.DB,
			ConnectAttempts: a.config.Database.ConnectAttempts,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := client.Close(); err != nil {
				a.logger.Error("close redis client", "error", err)
			}
		})
		a.pools["redis"] = metrics.RedisPool(client)
		return sessionredis.NewStore(client, cfg.IdleTimeout), nil
	}

	store := session.NewMemoryStore()
	a.goBackground(func() {
		store.RunJanitor(bgCtx, cfg.CleanupInterval, cfg.IdleTimeout)
	})
	return store, nil
}
