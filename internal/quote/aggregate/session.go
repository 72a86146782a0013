// internal/quote/aggregate/session.go
package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quoteflow-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps the working pool for an open evaluation session in
// Redis so the screen can be reopened without losing manual entries.
type SessionStore struct {
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration, log logger.Logger) *SessionStore {
	return &SessionStore{
		redis:  rdb,
		ttl:    ttl,
		logger: log,
	}
}

func sessionKey(quoteID string) string {
	return "quote:pool:" + quoteID
}

// Save serializes the pool under the quote's session key and resets the TTL.
func (s *SessionStore) Save(ctx context.Context, quoteID string, pool *Pool) error {
	data, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("marshal pool for quote %s: %w", quoteID, err)
	}

	if err := s.redis.Set(ctx, sessionKey(quoteID), string(data), s.ttl).Err(); err != nil {
		return fmt.Errorf("save pool session for quote %s: %w", quoteID, err)
	}

	s.logger.Debug("pool session saved", map[string]interface{}{
		"quoteId":    quoteID,
		"dispatched": len(pool.Dispatched),
		"manual":     len(pool.Manual),
	})
	return nil
}

// Load restores a saved pool. A missing session returns (nil, nil) so the
// caller can seed a fresh pool from dispatch data.
func (s *SessionStore) Load(ctx context.Context, quoteID string) (*Pool, error) {
	data, err := s.redis.Get(ctx, sessionKey(quoteID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load pool session for quote %s: %w", quoteID, err)
	}

	var pool Pool
	if err := json.Unmarshal([]byte(data), &pool); err != nil {
		return nil, fmt.Errorf("decode pool session for quote %s: %w", quoteID, err)
	}
	return &pool, nil
}

// Delete drops the session, typically after a successful forward.
func (s *SessionStore) Delete(ctx context.Context, quoteID string) error {
	return s.redis.Del(ctx, sessionKey(quoteID)).Err()
}
