// Package cache mirrors online-user state into an external cache so sibling
// services can read presence without talking to the chat process. The mirror
// is advisory: the in-memory registry stays the single authority and a
// mirror failure never fails the user's request.
package cache

import (
	"context"
	"fmt"

	"github.com/clatterlab/clatter/internal/common/config"
	"go.uber.org/zap"
)

// User is the projection of a live session written to the cache.
type User struct {
	AccountID int64
	ConnID    string
	Nickname  string
	RoomID    int64 // zero means the lobby
	Rank      string
}

// Mirror publishes presence changes.
type Mirror interface {
	// SetUser writes or refreshes the cache entry for an online account.
	SetUser(ctx context.Context, u User) error

	// RemoveUser drops the cache entry when the account goes offline.
	RemoveUser(ctx context.Context, accountID int64) error

	// Close releases the underlying connection.
	Close() error
}

// NewMirror creates a mirror based on configuration.
func NewMirror(logger *zap.Logger, cfg *config.CacheConfig) (Mirror, error) {
	switch cfg.Type {
	case "", "none":
		return NoopMirror{}, nil
	case "redis":
		return NewRedisMirror(logger, &cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// NoopMirror is used when no external cache is configured.
type NoopMirror struct{}

var _ Mirror = NoopMirror{}

func (NoopMirror) SetUser(context.Context, User) error     { return nil }
func (NoopMirror) RemoveUser(context.Context, int64) error { return nil }
func (NoopMirror) Close() error                            { return nil }
