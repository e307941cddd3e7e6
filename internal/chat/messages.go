package chat

import (
	"context"
	"time"

	"github.com/clatterlab/clatter/internal/common/cnst"
	"github.com/clatterlab/clatter/internal/common/errorx"
	"github.com/clatterlab/clatter/internal/dispatch"
	"github.com/clatterlab/clatter/internal/presence"
	"github.com/clatterlab/clatter/internal/storage"
	"go.uber.org/zap"
)

// SendPublic fans a message out to everyone in the caller's room, the caller
// included, and records it.
func (s *Service) SendPublic(ctx context.Context, req *dispatch.Request) error {
	var payload sendPublicPayload
	if err := decodePayload(req.Payload, &payload); err != nil {
		return err
	}
	var fields fieldSet
	text := fields.requireString("text", payload.Text)
	if err := fields.err(); err != nil {
		return err
	}
	if err := s.checkLen("text", text, maxTextLen); err != nil {
		return err
	}

	if !req.Session.InRoom() {
		return errorx.PreconditionFailed("error.no_room")
	}
	if req.Session.Rank == presence.RankBanned {
		return errorx.Forbidden("error.banned")
	}

	s.publishPublic(ctx, req.Session, text)
	return nil
}

// publishPublic delivers text to every member of the session's room as a
// public message authored by the session, then records it. Room entry and
// departure notices go through here too, so they reach clients and history
// exactly like ordinary messages.
func (s *Service) publishPublic(ctx context.Context, sess presence.Session, text string) {
	if !sess.InRoom() {
		return
	}

	now := time.Now().UTC()
	s.engine.SendToRoom(sess.RoomID, cnst.EventNewMessage, messageOut{
		Text: text,
		Author: authorOut{
			UserID:   sess.AccountID,
			Nickname: sess.Nickname,
			Rank:     sess.Rank,
		},
		CreatedAt: now.Format(timeLayout),
	})

	// Delivery already happened; a history write failure is logged and the
	// sender is not bothered.
	if err := s.db.SaveMessage(ctx, &storage.PublicMessage{
		CreatorID: sess.AccountID,
		RoomID:    sess.RoomID,
		Text:      text,
		CreatedAt: now,
	}); err != nil {
		s.logger.Error("message history write failed",
			zap.Int64("room_id", sess.RoomID),
			zap.Int64("account_id", sess.AccountID),
			zap.Error(err))
	}
}
