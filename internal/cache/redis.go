package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/clatterlab/clatter/internal/common/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisMirror implements Mirror using Redis hashes, one per online account.
type RedisMirror struct {
	logger *zap.Logger
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Mirror = (*RedisMirror)(nil)

// NewRedisMirror creates a Redis-backed presence mirror.
func NewRedisMirror(logger *zap.Logger, cfg *config.RedisConfig) (*RedisMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &RedisMirror{
		logger: logger.Named("cache.redis"),
		client: client,
		prefix: prefix,
		ttl:    cfg.TTL,
	}, nil
}

// SetUser implements Mirror.SetUser
func (m *RedisMirror) SetUser(ctx context.Context, u User) error {
	key := m.key(u.AccountID)
	fields := map[string]any{
		"conn_id":  u.ConnID,
		"nickname": u.Nickname,
		"room_id":  strconv.FormatInt(u.RoomID, 10),
		"rank":     u.Rank,
	}
	if err := m.client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("mirror user %d: %w", u.AccountID, err)
	}
	if m.ttl > 0 {
		if err := m.client.Expire(ctx, key, m.ttl).Err(); err != nil {
			m.logger.Warn("failed to refresh mirror TTL",
				zap.Int64("account_id", u.AccountID),
				zap.Error(err))
		}
	}
	return nil
}

// RemoveUser implements Mirror.RemoveUser
func (m *RedisMirror) RemoveUser(ctx context.Context, accountID int64) error {
	if err := m.client.Del(ctx, m.key(accountID)).Err(); err != nil {
		return fmt.Errorf("unmirror user %d: %w", accountID, err)
	}
	return nil
}

// Close implements Mirror.Close
func (m *RedisMirror) Close() error {
	return m.client.Close()
}

// key builds "user:<id>", namespaced by the configured prefix.
func (m *RedisMirror) key(accountID int64) string {
	return m.prefix + "user:" + strconv.FormatInt(accountID, 10)
}
