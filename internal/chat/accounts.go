package chat

import (
	"context"
	"errors"
	"time"

	"github.com/clatterlab/clatter/internal/cache"
	"github.com/clatterlab/clatter/internal/common/cnst"
	"github.com/clatterlab/clatter/internal/common/errorx"
	"github.com/clatterlab/clatter/internal/dispatch"
	"github.com/clatterlab/clatter/internal/presence"
	"github.com/clatterlab/clatter/internal/storage"
	"go.uber.org/zap"
)

const timeLayout = time.RFC3339

// Signup creates an account, binds it to the connection, and issues the
// session token.
func (s *Service) Signup(ctx context.Context, req *dispatch.Request) error {
	var payload credentialsPayload
	if err := decodePayload(req.Payload, &payload); err != nil {
		return err
	}
	var fields fieldSet
	nickname := fields.requireString("nickname", payload.Nickname)
	password := fields.requireString("password", payload.Password)
	if err := fields.err(); err != nil {
		return err
	}
	if err := s.checkLen("nickname", nickname, maxNicknameLen); err != nil {
		return err
	}
	if err := s.checkLen("password", password, maxPasswordLen); err != nil {
		return err
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return errorx.Internal(err)
	}
	account, err := s.db.CreateAccount(ctx, nickname, digest)
	if err != nil {
		return storeErr(err, "error.nickname_taken", "error.user_not_found")
	}
	// Fresh accounts start in the lobby.
	if err := s.db.SetLocation(ctx, account.ID, nil); err != nil {
		return errorx.Internal(err)
	}

	return s.bindSession(ctx, req.ConnID, account)
}

// Signin verifies credentials, evicts any previous connection of the same
// account, restores the durable room, and issues a fresh token.
func (s *Service) Signin(ctx context.Context, req *dispatch.Request) error {
	var payload credentialsPayload
	if err := decodePayload(req.Payload, &payload); err != nil {
		return err
	}
	var fields fieldSet
	nickname := fields.requireString("nickname", payload.Nickname)
	password := fields.requireString("password", payload.Password)
	if err := fields.err(); err != nil {
		return err
	}

	account, err := s.db.FindAccountByNickname(ctx, nickname)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errorx.NotFound("error.user_not_found")
		}
		return errorx.Internal(err)
	}
	if !s.hasher.Verify(password, account.Password) {
		return errorx.InvalidData("error.wrong_password")
	}

	if err := s.bindSession(ctx, req.ConnID, account); err != nil {
		return err
	}

	// Restore the durable location, loading the room rank alongside.
	roomID, err := s.db.GetLocation(ctx, account.ID)
	if err != nil {
		return errorx.Internal(err)
	}
	if roomID != nil {
		rank, err := s.roomRank(ctx, account.ID, *roomID)
		if err != nil {
			return err
		}
		if _, err := s.registry.Join(req.ConnID, *roomID, rank); err != nil {
			return errorx.Internal(err)
		}
		s.mirrorSession(ctx, req.ConnID)
	}
	return nil
}

// bindSession issues a token, binds the account to the connection, notifies
// and closes an evicted prior connection, and replies with the new token.
func (s *Service) bindSession(ctx context.Context, connID string, account *storage.Account) error {
	token := s.tokens.Generate()
	evicted, err := s.registry.Authenticate(connID, account.ID, token, account.Nickname)
	if err != nil {
		return errorx.Internal(err)
	}
	if evicted != "" {
		s.reply(evicted, cnst.EventSystem, s.translator.T("msg.evicted", nil))
		if s.closer != nil {
			s.closer.CloseConn(evicted)
		}
	}
	s.mirrorSession(ctx, connID)
	s.reply(connID, cnst.EventNewToken, tokenOut{Token: token})
	return nil
}

// GetOneUser returns profile, durable location, and live status of an account.
func (s *Service) GetOneUser(ctx context.Context, req *dispatch.Request) error {
	var payload getOneUserPayload
	if err := decodePayload(req.Payload, &payload); err != nil {
		return err
	}
	var fields fieldSet
	userID := fields.requireInt("user_id", payload.UserID)
	if err := fields.err(); err != nil {
		return err
	}

	account, err := s.db.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errorx.NotFound("error.user_not_found")
		}
		return errorx.Internal(err)
	}

	info := userInfoOut{
		UserID:    account.ID,
		Nickname:  account.Nickname,
		CreatedAt: account.CreatedAt.Format(timeLayout),
		Status:    "offline",
	}
	if _, online := s.registry.ByAccount(account.ID); online {
		info.Status = "online"
	}
	if roomID, err := s.db.GetLocation(ctx, account.ID); err == nil && roomID != nil {
		if room, err := s.db.GetRoom(ctx, *roomID); err == nil {
			info.Location = &roomOut{RoomID: room.ID, Title: room.Title}
		}
	}

	s.reply(req.ConnID, cnst.EventUserInfo, info)
	return nil
}

// OnlineList returns the authenticated live sessions, optionally filtered
// by room.
func (s *Service) OnlineList(_ context.Context, req *dispatch.Request) error {
	var payload onlineListPayload
	if err := decodePayload(req.Payload, &payload); err != nil {
		return err
	}

	out := make([]onlineUserOut, 0)
	for _, sess := range s.registry.Snapshot() {
		if !sess.Authenticated() {
			continue
		}
		if payload.RoomID != nil && sess.RoomID != *payload.RoomID {
			continue
		}
		out = append(out, onlineUserOut{
			UserID:   sess.AccountID,
			Nickname: sess.Nickname,
			RoomID:   sess.RoomID,
		})
	}

	s.reply(req.ConnID, cnst.EventOnlineUsers, out)
	return nil
}

// ChangeNickname renames the caller's own account.
func (s *Service) ChangeNickname(ctx context.Context, req *dispatch.Request) error {
	var payload changeNicknamePayload
	if err := decodePayload(req.Payload, &payload); err != nil {
		return err
	}
	var fields fieldSet
	nickname := fields.requireString("nickname", payload.Nickname)
	if err := fields.err(); err != nil {
		return err
	}
	if err := s.checkLen("nickname", nickname, maxNicknameLen); err != nil {
		return err
	}

	if err := s.db.UpdateNickname(ctx, req.Session.AccountID, nickname); err != nil {
		return storeErr(err, "error.nickname_taken", "error.user_not_found")
	}
	if err := s.registry.SetNickname(req.ConnID, nickname); err != nil {
		return errorx.Internal(err)
	}
	s.mirrorSession(ctx, req.ConnID)

	s.reply(req.ConnID, cnst.EventSuccess, s.translator.T("msg.nick_changed", nil))
	return nil
}

// ChangePassword rehashes and stores a new password for the caller.
func (s *Service) ChangePassword(ctx context.Context, req *dispatch.Request) error {
	var payload changePasswordPayload
	if err := decodePayload(req.Payload, &payload); err != nil {
		return err
	}
	var fields fieldSet
	password := fields.requireString("password", payload.Password)
	if err := fields.err(); err != nil {
		return err
	}
	if err := s.checkLen("password", password, maxPasswordLen); err != nil {
		return err
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return errorx.Internal(err)
	}
	if err := s.db.UpdatePassword(ctx, req.Session.AccountID, digest); err != nil {
		return errorx.Internal(err)
	}

	s.reply(req.ConnID, cnst.EventSuccess, s.translator.T("msg.password_changed", nil))
	return nil
}

// roomRank loads the persisted rank for (account, room); an absent row
// means a plain user.
func (s *Service) roomRank(ctx context.Context, accountID, roomID int64) (presence.Rank, error) {
	rankStr, err := s.db.GetRoomRank(ctx, accountID, roomID)
	if err != nil {
		return presence.RankNone, errorx.Internal(err)
	}
	if rankStr == "" {
		return presence.RankUser, nil
	}
	rank, err := presence.ParseRank(rankStr)
	if err != nil {
		return presence.RankNone, errorx.Internal(err)
	}
	return rank, nil
}

// mirrorSession pushes the session's current state into the presence cache.
// Mirror failures are logged, never surfaced to the user.
func (s *Service) mirrorSession(ctx context.Context, connID string) {
	sess, err := s.registry.Get(connID)
	if err != nil || !sess.Authenticated() {
		return
	}
	if err := s.mirror.SetUser(ctx, cache.User{
		AccountID: sess.AccountID,
		ConnID:    sess.ConnID,
		Nickname:  sess.Nickname,
		RoomID:    sess.RoomID,
		Rank:      sess.Rank.String(),
	}); err != nil {
		s.logger.Warn("presence mirror update failed",
			zap.Int64("account_id", sess.AccountID),
			zap.Error(err))
	}
}
