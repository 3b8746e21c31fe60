package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// PoolStats is a point-in-time view of a connection pool.
type PoolStats struct {
	InUse int64
	Idle  int64
	Max   int64
	Total int64
}

// PoolSampler returns the current stats of one pool.
type PoolSampler func() PoolStats

// PgxPool samples a pgx connection pool.
func PgxPool(pool *pgxpool.Pool) PoolSampler {
	return func() PoolStats {
		s := pool.Stat()
		return PoolStats{
			InUse: int64(s.AcquiredConns()),
			Idle:  int64(s.IdleConns()),
			Max:   int64(s.MaxConns()),
			Total: int64(s.TotalConns()),
		}
	}
}

// RedisPool samples a go-redis client pool. Max is the configured PoolSize.
func RedisPool(client *redis.Client) PoolSampler {
	return func() PoolStats {
		s := client.PoolStats()
		return PoolStats{
			InUse: int64(s.TotalConns) - int64(s.IdleConns),
			Idle:  int64(s.IdleConns),
			Max:   int64(client.Options().PoolSize),
			Total: int64(s.TotalConns),
		}
	}
}

// RecordPoolStats publishes s under the pool label.
func RecordPoolStats(pool string, s PoolStats) {
	PoolConnections.WithLabelValues(pool, "in_use").Set(float64(s.InUse))
	PoolConnections.WithLabelValues(pool, "idle").Set(float64(s.Idle))
	PoolConnections.WithLabelValues(pool, "max").Set(float64(s.Max))
	PoolConnections.WithLabelValues(pool, "total").Set(float64(s.Total))
}
