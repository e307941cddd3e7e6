package storage

import (
	"context"
	"errors"
)

// Sentinel errors the core maps onto wire error kinds. Driver-specific
// failures never leak past this package.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned on a uniqueness violation (nickname, room title).
	ErrDuplicate = errors.New("duplicate record")
)

// Database defines the persistence operations the chat core depends on.
type Database interface {
	// Close closes the database connection.
	Close() error

	// CreateAccount inserts a new account with a hashed password.
	CreateAccount(ctx context.Context, nickname, passwordHash string) (*Account, error)

	// FindAccountByNickname looks an account up by its unique nickname.
	FindAccountByNickname(ctx context.Context, nickname string) (*Account, error)

	// GetAccount looks an account up by id.
	GetAccount(ctx context.Context, id int64) (*Account, error)

	// UpdateNickname changes an account's nickname.
	UpdateNickname(ctx context.Context, accountID int64, nickname string) error

	// UpdatePassword replaces an account's password hash.
	UpdatePassword(ctx context.Context, accountID int64, passwordHash string) error

	// CreateRoom inserts a new room.
	CreateRoom(ctx context.Context, title string) (*Room, error)

	// GetRoom looks a room up by id.
	GetRoom(ctx context.Context, id int64) (*Room, error)

	// ListRooms returns all rooms.
	ListRooms(ctx context.Context) ([]*Room, error)

	// SetLocation records an account's durable room; nil means the lobby.
	SetLocation(ctx context.Context, accountID int64, roomID *int64) error

	// GetLocation returns an account's durable room; nil means the lobby.
	GetLocation(ctx context.Context, accountID int64) (*int64, error)

	// GetRoomRank returns the persisted rank of an account within a room,
	// or "" when none has been assigned.
	GetRoomRank(ctx context.Context, accountID, roomID int64) (string, error)

	// SetRoomRank persists an account's rank within a room; "" removes it.
	SetRoomRank(ctx context.Context, accountID, roomID int64, rank string) error

	// SaveMessage persists one public message.
	SaveMessage(ctx context.Context, msg *PublicMessage) error

	// ListRoomMessages returns a room's message history, newest last.
	ListRoomMessages(ctx context.Context, roomID int64, limit, offset int) ([]*PublicMessage, error)
}
