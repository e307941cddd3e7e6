package chat

import (
	"context"
	"errors"
	"sort"

	"github.com/clatterlab/clatter/internal/authz"
	"github.com/clatterlab/clatter/internal/common/cnst"
	"github.com/clatterlab/clatter/internal/common/errorx"
	"github.com/clatterlab/clatter/internal/dispatch"
	"github.com/clatterlab/clatter/internal/presence"
	"github.com/clatterlab/clatter/internal/storage"
)

// Relocate moves the caller into another room.
func (s *Service) Relocate(ctx context.Context, req *dispatch.Request) error {
	var payload relocatePayload
	if err := decodePayload(req.Payload, &payload); err != nil {
		return err
	}
	var fields fieldSet
	roomID := fields.requireInt("room_id", payload.RoomID)
	if err := fields.err(); err != nil {
		return err
	}

	room, err := s.db.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errorx.NotFound("error.room_not_found")
		}
		return errorx.Internal(err)
	}
	return s.moveTo(ctx, req, room)
}

// CreateRoom creates a room, grants the creator ownership in it, and moves
// the creator inside.
func (s *Service) CreateRoom(ctx context.Context, req *dispatch.Request) error {
	var payload createRoomPayload
	if err := decodePayload(req.Payload, &payload); err != nil {
		return err
	}
	var fields fieldSet
	title := fields.requireString("title", payload.Title)
	if err := fields.err(); err != nil {
		return err
	}
	if err := s.checkLen("title", title, maxTitleLen); err != nil {
		return err
	}

	room, err := s.db.CreateRoom(ctx, title)
	if err != nil {
		return storeErr(err, "error.room_exists", "error.room_not_found")
	}
	if err := s.db.SetRoomRank(ctx, req.Session.AccountID, room.ID, presence.RankOwner.String()); err != nil {
		return errorx.Internal(err)
	}

	s.reply(req.ConnID, cnst.EventSuccess, s.translator.T("msg.room_created", nil))
	return s.moveTo(ctx, req, room)
}

// moveTo performs the shared relocation flow: announce the departure to the
// old room, switch the session, persist the location, and announce the
// arrival to the new room. Both notices travel as public messages authored
// by the mover.
func (s *Service) moveTo(ctx context.Context, req *dispatch.Request, room *storage.Room) error {
	if req.Session.InRoom() && req.Session.RoomID != room.ID {
		s.publishPublic(ctx, req.Session,
			s.translator.T("msg.moved_to_room", map[string]any{"Title": room.Title}))
	}

	rank, err := s.roomRank(ctx, req.Session.AccountID, room.ID)
	if err != nil {
		return err
	}
	sess, err := s.registry.Join(req.ConnID, room.ID, rank)
	if err != nil {
		return errorx.Internal(err)
	}
	if err := s.db.SetLocation(ctx, sess.AccountID, &room.ID); err != nil {
		return errorx.Internal(err)
	}
	s.mirrorSession(ctx, req.ConnID)

	s.publishPublic(ctx, sess,
		s.translator.T("msg.entered_room", map[string]any{"Nickname": sess.Nickname}))
	s.reply(req.ConnID, cnst.EventSuccess, roomOut{RoomID: room.ID, Title: room.Title})
	return nil
}

// OnlineRoomList returns every known room with its live occupant count.
func (s *Service) OnlineRoomList(ctx context.Context, req *dispatch.Request) error {
	rooms, err := s.db.ListRooms(ctx)
	if err != nil {
		return errorx.Internal(err)
	}
	counts := s.registry.RoomCounts()

	out := make([]roomOut, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, roomOut{
			RoomID: room.ID,
			Title:  room.Title,
			Online: counts[room.ID],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })

	s.reply(req.ConnID, cnst.EventRoomList, out)
	return nil
}

// UpdatePermission assigns a target account's rank inside the caller's
// current room. The target must be online in the same room, and the caller
// must outrank both the target and the rank being assigned.
func (s *Service) UpdatePermission(ctx context.Context, req *dispatch.Request) error {
	var payload updatePermissionPayload
	if err := decodePayload(req.Payload, &payload); err != nil {
		return err
	}
	var fields fieldSet
	userID := fields.requireInt("user_id", payload.UserID)
	newRank := fields.requireRank("local_rank", payload.Rank)
	if err := fields.err(); err != nil {
		return err
	}

	target, _ := s.registry.ByAccount(userID)
	if err := authz.CanAssign(req.Session, target, newRank); err != nil {
		return err
	}

	if err := s.db.SetRoomRank(ctx, userID, req.Session.RoomID, newRank.String()); err != nil {
		return errorx.Internal(err)
	}
	if sess, ok := s.registry.SetRank(userID, newRank); ok {
		s.mirrorSession(ctx, sess.ConnID)
		s.reply(sess.ConnID, cnst.EventRankUpdated, rankUpdateOut{
			RoomID: req.Session.RoomID,
			Rank:   newRank,
		})
	}

	s.reply(req.ConnID, cnst.EventSuccess, s.translator.T("msg.rank_updated", nil))
	return nil
}
