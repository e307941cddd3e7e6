package storage

import (
	"context"
	"testing"

	"github.com/clatterlab/clatter/internal/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) Database {
	t.Helper()
	db, err := NewSQLite(&config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAccounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	acc, err := db.CreateAccount(ctx, "alice", "digest")
	require.NoError(t, err)
	assert.NotZero(t, acc.ID)

	// unique nickname
	_, err = db.CreateAccount(ctx, "alice", "other")
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := db.FindAccountByNickname(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, found.ID)

	_, err = db.FindAccountByNickname(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)

	byID, err := db.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Nickname)
}

func TestUpdateNickname(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice, err := db.CreateAccount(ctx, "alice", "digest")
	require.NoError(t, err)
	_, err = db.CreateAccount(ctx, "bob", "digest")
	require.NoError(t, err)

	require.NoError(t, db.UpdateNickname(ctx, alice.ID, "alisa"))
	got, err := db.GetAccount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alisa", got.Nickname)

	// collision with an existing nickname
	assert.ErrorIs(t, db.UpdateNickname(ctx, alice.ID, "bob"), ErrDuplicate)
}

func TestRooms(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	room, err := db.CreateRoom(ctx, "главная")
	require.NoError(t, err)
	assert.NotZero(t, room.ID)

	_, err = db.CreateRoom(ctx, "главная")
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = db.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	_, err = db.GetRoom(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.CreateRoom(ctx, "вторая")
	require.NoError(t, err)
	rooms, err := db.ListRooms(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}

func TestLocations(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	acc, err := db.CreateAccount(ctx, "alice", "digest")
	require.NoError(t, err)

	// no location yet means the lobby
	loc, err := db.GetLocation(ctx, acc.ID)
	require.NoError(t, err)
	assert.Nil(t, loc)

	roomID := int64(7)
	require.NoError(t, db.SetLocation(ctx, acc.ID, &roomID))
	loc, err = db.GetLocation(ctx, acc.ID)
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, roomID, *loc)

	// upsert back to the lobby
	require.NoError(t, db.SetLocation(ctx, acc.ID, nil))
	loc, err = db.GetLocation(ctx, acc.ID)
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestRoomRanks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rank, err := db.GetRoomRank(ctx, 1, 7)
	require.NoError(t, err)
	assert.Empty(t, rank)

	require.NoError(t, db.SetRoomRank(ctx, 1, 7, "moderator"))
	rank, err = db.GetRoomRank(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, "moderator", rank)

	// update in place
	require.NoError(t, db.SetRoomRank(ctx, 1, 7, "banned"))
	rank, err = db.GetRoomRank(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, "banned", rank)

	// empty rank removes the row
	require.NoError(t, db.SetRoomRank(ctx, 1, 7, ""))
	rank, err = db.GetRoomRank(ctx, 1, 7)
	require.NoError(t, err)
	assert.Empty(t, rank)
}

func TestMessages(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, text := range []string{"hi", "hello", "привет"} {
		require.NoError(t, db.SaveMessage(ctx, &PublicMessage{CreatorID: 1, RoomID: 7, Text: text}))
	}
	require.NoError(t, db.SaveMessage(ctx, &PublicMessage{CreatorID: 1, RoomID: 8, Text: "other room"}))

	msgs, err := db.ListRoomMessages(ctx, 7, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	msgs, err = db.ListRoomMessages(ctx, 7, 2, 1)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestNewDatabase_UnsupportedType(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Type: "oracle"})
	assert.Error(t, err)
}
