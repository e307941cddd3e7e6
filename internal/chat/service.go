// Package chat implements the event handlers of the room chat protocol:
// account lifecycle, room navigation, public messages, and per-room
// permission management.
package chat

import (
	"github.com/clatterlab/clatter/internal/auth"
	"github.com/clatterlab/clatter/internal/broadcast"
	"github.com/clatterlab/clatter/internal/cache"
	"github.com/clatterlab/clatter/internal/common/cnst"
	"github.com/clatterlab/clatter/internal/dispatch"
	"github.com/clatterlab/clatter/internal/i18n"
	"github.com/clatterlab/clatter/internal/presence"
	"github.com/clatterlab/clatter/internal/storage"
	"go.uber.org/zap"
)

// Closer terminates a live connection; used to evict a prior session when
// an account signs in again from elsewhere.
type Closer interface {
	CloseConn(connID string)
}

// Service wires the handlers to their collaborators. All state is injected;
// tests build an isolated Service per case.
type Service struct {
	logger     *zap.Logger
	registry   *presence.Registry
	db         storage.Database
	hasher     auth.Hasher
	tokens     auth.TokenIssuer
	engine     *broadcast.Engine
	mirror     cache.Mirror
	translator *i18n.Translator
	closer     Closer
}

// NewService creates the handler set.
func NewService(
	logger *zap.Logger,
	registry *presence.Registry,
	db storage.Database,
	hasher auth.Hasher,
	tokens auth.TokenIssuer,
	engine *broadcast.Engine,
	mirror cache.Mirror,
	translator *i18n.Translator,
	closer Closer,
) *Service {
	return &Service{
		logger:     logger.Named("chat"),
		registry:   registry,
		db:         db,
		hasher:     hasher,
		tokens:     tokens,
		engine:     engine,
		mirror:     mirror,
		translator: translator,
		closer:     closer,
	}
}

// RegisterHandlers installs every protocol event on the dispatcher.
func (s *Service) RegisterHandlers(d *dispatch.Dispatcher) {
	d.Register(dispatch.Handler{Event: cnst.EventSignup, Auth: dispatch.AuthNone, Fn: s.Signup})
	d.Register(dispatch.Handler{Event: cnst.EventSignin, Auth: dispatch.AuthNone, Fn: s.Signin})
	d.Register(dispatch.Handler{Event: cnst.EventGetOneUser, Auth: dispatch.AuthToken, Fn: s.GetOneUser})
	d.Register(dispatch.Handler{Event: cnst.EventOnlineList, Auth: dispatch.AuthToken, Fn: s.OnlineList})
	d.Register(dispatch.Handler{Event: cnst.EventChangeNickname, Auth: dispatch.AuthToken, Fn: s.ChangeNickname})
	d.Register(dispatch.Handler{Event: cnst.EventChangePassword, Auth: dispatch.AuthToken, Fn: s.ChangePassword})
	d.Register(dispatch.Handler{Event: cnst.EventRelocate, Auth: dispatch.AuthToken, Fn: s.Relocate})
	d.Register(dispatch.Handler{Event: cnst.EventCreateRoom, Auth: dispatch.AuthToken, Fn: s.CreateRoom})
	d.Register(dispatch.Handler{Event: cnst.EventOnlineRoomList, Auth: dispatch.AuthToken, Fn: s.OnlineRoomList})
	d.Register(dispatch.Handler{Event: cnst.EventSendPublic, Auth: dispatch.AuthToken, Fn: s.SendPublic})
	d.Register(dispatch.Handler{Event: cnst.EventUpdatePermission, Auth: dispatch.AuthToken, Fn: s.UpdatePermission})
}

// reply sends an event to the originating connection only.
func (s *Service) reply(connID string, event cnst.EventType, payload any) {
	s.engine.SendTo([]string{connID}, event, payload)
}
