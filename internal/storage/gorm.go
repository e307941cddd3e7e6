package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormDB implements Database on top of a gorm connection. The driver
// factories in factory.go only differ in how they open the connection.
type gormDB struct {
	db *gorm.DB
}

var _ Database = (*gormDB)(nil)

// newGormDB migrates the schema and wraps the connection.
func newGormDB(db *gorm.DB) (*gormDB, error) {
	if err := db.AutoMigrate(&Account{}, &Room{}, &Location{}, &LocalRank{}, &PublicMessage{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &gormDB{db: db}, nil
}

// Close closes the database connection
func (g *gormDB) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (g *gormDB) CreateAccount(ctx context.Context, nickname, passwordHash string) (*Account, error) {
	account := &Account{Nickname: nickname, Password: passwordHash}
	if err := g.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, translate(err)
	}
	return account, nil
}

func (g *gormDB) FindAccountByNickname(ctx context.Context, nickname string) (*Account, error) {
	var account Account
	err := g.db.WithContext(ctx).Where("nickname = ?", nickname).First(&account).Error
	if err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (g *gormDB) GetAccount(ctx context.Context, id int64) (*Account, error) {
	var account Account
	if err := g.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (g *gormDB) UpdateNickname(ctx context.Context, accountID int64, nickname string) error {
	err := g.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", accountID).
		Update("nickname", nickname).Error
	return translate(err)
}

func (g *gormDB) UpdatePassword(ctx context.Context, accountID int64, passwordHash string) error {
	err := g.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", accountID).
		Update("password", passwordHash).Error
	return translate(err)
}

func (g *gormDB) CreateRoom(ctx context.Context, title string) (*Room, error) {
	room := &Room{Title: title}
	if err := g.db.WithContext(ctx).Create(room).Error; err != nil {
		return nil, translate(err)
	}
	return room, nil
}

func (g *gormDB) GetRoom(ctx context.Context, id int64) (*Room, error) {
	var room Room
	if err := g.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (g *gormDB) ListRooms(ctx context.Context) ([]*Room, error) {
	var rooms []*Room
	if err := g.db.WithContext(ctx).Order("id asc").Find(&rooms).Error; err != nil {
		return nil, translate(err)
	}
	return rooms, nil
}

func (g *gormDB) SetLocation(ctx context.Context, accountID int64, roomID *int64) error {
	loc := &Location{AccountID: accountID, RoomID: roomID}
	err := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"room_id"}),
		}).
		Create(loc).Error
	return translate(err)
}

func (g *gormDB) GetLocation(ctx context.Context, accountID int64) (*int64, error) {
	var loc Location
	err := g.db.WithContext(ctx).Where("account_id = ?", accountID).First(&loc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate(err)
	}
	return loc.RoomID, nil
}

func (g *gormDB) GetRoomRank(ctx context.Context, accountID, roomID int64) (string, error) {
	var lr LocalRank
	err := g.db.WithContext(ctx).
		Where("account_id = ? AND room_id = ?", accountID, roomID).
		First(&lr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", translate(err)
	}
	return lr.Rank, nil
}

func (g *gormDB) SetRoomRank(ctx context.Context, accountID, roomID int64, rank string) error {
	if rank == "" {
		err := g.db.WithContext(ctx).
			Where("account_id = ? AND room_id = ?", accountID, roomID).
			Delete(&LocalRank{}).Error
		return translate(err)
	}
	lr := &LocalRank{AccountID: accountID, RoomID: roomID, Rank: rank}
	err := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "room_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rank"}),
		}).
		Create(lr).Error
	return translate(err)
}

func (g *gormDB) SaveMessage(ctx context.Context, msg *PublicMessage) error {
	return translate(g.db.WithContext(ctx).Create(msg).Error)
}

func (g *gormDB) ListRoomMessages(ctx context.Context, roomID int64, limit, offset int) ([]*PublicMessage, error) {
	var messages []*PublicMessage
	q := g.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at asc").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&messages).Error; err != nil {
		return nil, translate(err)
	}
	return messages, nil
}

// translate maps gorm errors onto the package sentinels so callers never
// depend on driver-specific error types.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
