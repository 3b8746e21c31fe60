// Package redis provides a Redis-backed session store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/bloomshop/internal/domain"
	"github.com/bissquit/bloomshop/internal/session"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// Store keeps sessions as JSON values whose TTL equals the idle timeout,
// so Redis evicts abandoned sessions on its own.
type Store struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewStore creates a Redis session store.
func NewStore(client *goredis.Client, idleTimeout time.Duration) *Store {
	return &Store{client: client, ttl: idleTimeout}
}

func key(id string) string {
	return keyPrefix + id
}

// Get loads a session.
func (s *Store) Get(ctx context.Context, id string) (*domain.Session, error) {
	val, err := s.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(val, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Save writes the session and resets its TTL.
func (s *Store) Save(ctx context.Context, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, key(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Update rewrites the session and resets its TTL only if the key still exists (SET XX).
func (s *Store) Update(ctx context.Context, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ok, err := s.client.SetXX(ctx, key(sess.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if !ok {
		return session.ErrNotFound
	}
	return nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return session.ErrNotFound
	}
	return nil
}
