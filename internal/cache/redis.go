// Package cache wraps the Redis client shared by the change-feed bridge and session revocation.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Connect opens a Redis client for addr, which is either host:port or a
// redis:// URL. An empty addr or an unreachable server yields a nil client and
// the caller runs without Redis.
func Connect(ctx context.Context, addr, password string, db int) *redis.Client {
	if addr == "" {
		log.Info().Msg("Redis not configured, running single instance")
		return nil
	}

	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			log.Warn().Err(err).Str("addr", addr).Msg("Invalid Redis URL, continuing without Redis")
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr, Password: password, DB: db}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("Redis unreachable, continuing without Redis")
		_ = client.Close()
		return nil
	}

	log.Info().Str("addr", addr).Msg("Redis connected successfully")
	return client
}

// Revocations remembers signed-out token ids until the token would have expired anyway
type Revocations struct {
	rdb *redis.Client
}

// NewRevocations creates a revocation list. A nil client makes every check pass.
func NewRevocations(rdb *redis.Client) *Revocations {
	return &Revocations{rdb: rdb}
}

func revocationKey(tokenID string) string {
	return "revoked:" + tokenID
}

// Revoke marks tokenID as signed out for ttl
func (r *Revocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if r.rdb == nil || tokenID == "" {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	if err := r.rdb.Set(ctx, revocationKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID was signed out
func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if r.rdb == nil || tokenID == "" {
		return false, nil
	}
	n, err := r.rdb.Exists(ctx, revocationKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}
