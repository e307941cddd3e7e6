package storage

import "time"

// Account is a durable user account.
type Account struct {
	ID        int64     `json:"user_id" gorm:"primaryKey;autoIncrement"`
	Nickname  string    `json:"nickname" gorm:"type:varchar(16);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"type:varchar(100);not null"` // bcrypt digest, never exposed
	CreatedAt time.Time `json:"created_at"`
}

// Room is a durable chat room.
type Room struct {
	ID        int64     `json:"room_id" gorm:"primaryKey;autoIncrement"`
	Title     string    `json:"title" gorm:"type:varchar(24);uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Location is an account's last known room, restored on signin. A null
// RoomID means the lobby.
type Location struct {
	AccountID int64  `gorm:"primaryKey"`
	RoomID    *int64 `gorm:"index"`
}

// LocalRank is the persisted rank of an account within one room.
type LocalRank struct {
	AccountID int64  `gorm:"primaryKey"`
	RoomID    int64  `gorm:"primaryKey"`
	Rank      string `gorm:"type:varchar(16);not null"`
}

// PublicMessage is one message sent to a room.
type PublicMessage struct {
	ID        int64     `json:"message_id" gorm:"primaryKey;autoIncrement"`
	CreatorID int64     `json:"creator" gorm:"index;not null"`
	RoomID    int64     `json:"room_id" gorm:"index;not null"`
	Text      string    `json:"text" gorm:"type:varchar(128);not null"`
	CreatedAt time.Time `json:"created_at"`
}
