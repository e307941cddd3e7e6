package presence

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrSessionNotFound is returned when a connection id has no live session.
var ErrSessionNotFound = errors.New("session not found")

// Registry owns every live session together with the room membership index
// and the identity index (account id -> connection id). One mutex guards all
// three so every compound transition — join, authenticate, disconnect — is
// atomic from the perspective of any other goroutine.
//
// Registries are injected values, not package globals; tests construct an
// isolated instance per case.
type Registry struct {
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	identity map[int64]string
	rooms    roomIndex
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger:   logger.Named("presence"),
		sessions: make(map[string]*Session),
		identity: make(map[int64]string),
		rooms:    make(roomIndex),
	}
}

// Create registers a session for a freshly accepted connection. A duplicate
// connection id is a programmer error in the transport layer and panics.
func (r *Registry) Create(connID string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[connID]; exists {
		panic(fmt.Sprintf("presence: connection %s already registered", connID))
	}
	s := &Session{ConnID: connID}
	r.sessions[connID] = s
	return *s
}

// Get returns a snapshot of the session for connID.
func (r *Registry) Get(connID string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return *s, nil
}

// ByAccount returns a snapshot of the live session bound to accountID.
func (r *Registry) ByAccount(accountID int64) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connID, ok := r.identity[accountID]
	if !ok {
		return Session{}, false
	}
	s, ok := r.sessions[connID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Authenticate binds an account and its freshly issued token to the session.
// The session always leaves its current room: rank and membership belong to
// the account being bound, never to the connection, so callers re-enter the
// new account's durable room afterwards. If the account is already online
// from another connection, that connection is evicted: its session is
// detached from the account and its room, and its id is returned so the
// transport can notify and close it.
func (r *Registry) Authenticate(connID string, accountID int64, token, nickname string) (evicted string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return "", ErrSessionNotFound
	}

	if prev, ok := r.identity[accountID]; ok && prev != connID {
		if prevSession, ok := r.sessions[prev]; ok {
			r.detachLocked(prevSession)
			evicted = prev
			r.logger.Info("evicted previous session for account",
				zap.Int64("account_id", accountID),
				zap.String("conn_id", prev))
		}
	}

	// Re-authenticating under a different account releases the old binding.
	if s.AccountID != 0 && s.AccountID != accountID {
		delete(r.identity, s.AccountID)
	}

	// Room membership and rank never survive an account change.
	r.leaveLocked(s)

	s.AccountID = accountID
	s.Token = token
	s.Nickname = nickname
	r.identity[accountID] = connID
	return evicted, nil
}

// ValidateToken reports whether token is the exact secret currently bound to
// the session. Unauthenticated sessions never validate.
func (r *Registry) ValidateToken(connID, token string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connID]
	if !ok || !s.Authenticated() || token == "" {
		return false
	}
	return s.Token == token
}

// Join moves the session into roomID with the given rank. The removal from
// the previous room's set, the insertion into the new one, and the session
// field updates happen under one lock so no observer can see the connection
// in two rooms or in none while its RoomID is set.
func (r *Registry) Join(connID string, roomID int64, rank Rank) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}

	if s.RoomID != 0 {
		r.rooms.remove(s.RoomID, connID)
	}
	r.rooms.add(roomID, connID)
	s.RoomID = roomID
	s.Rank = rank
	return *s, nil
}

// Leave removes the session from its current room. It is a no-op for
// sessions that are not in a room.
func (r *Registry) Leave(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return ErrSessionNotFound
	}
	r.leaveLocked(s)
	return nil
}

// Members returns the connection ids currently in roomID. Unknown rooms
// yield an empty slice, not an error. The result is a snapshot: membership
// may change immediately after.
func (r *Registry) Members(roomID int64) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms.members(roomID)
}

// RoomCounts returns the member count of every occupied room.
func (r *Registry) RoomCounts() map[int64]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms.counts()
}

// SetRank updates the live rank of the session bound to accountID, if any.
// Used to mirror persisted rank changes into a target that is online.
func (r *Registry) SetRank(accountID int64, rank Rank) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	connID, ok := r.identity[accountID]
	if !ok {
		return Session{}, false
	}
	s, ok := r.sessions[connID]
	if !ok {
		return Session{}, false
	}
	s.Rank = rank
	return *s, true
}

// SetNickname updates the cached display name of the session.
func (r *Registry) SetNickname(connID, nickname string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return ErrSessionNotFound
	}
	s.Nickname = nickname
	return nil
}

// Snapshot returns a copy of every live session.
func (r *Registry) Snapshot() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out
}

// Remove runs the disconnect cleanup for connID: room membership first, then
// the identity index, then the session record itself. It is idempotent — a
// second call for the same connection does nothing.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return
	}
	r.detachLocked(s)
	delete(r.sessions, connID)
}

// detachLocked strips a session of its room membership and account binding.
// Callers must hold r.mu.
func (r *Registry) detachLocked(s *Session) {
	r.leaveLocked(s)
	if s.AccountID != 0 {
		// Only drop the identity entry if it still points at this
		// connection; an evicting login may have overwritten it.
		if cur, ok := r.identity[s.AccountID]; ok && cur == s.ConnID {
			delete(r.identity, s.AccountID)
		}
		s.AccountID = 0
		s.Token = ""
	}
}

// leaveLocked clears room state. Callers must hold r.mu.
func (r *Registry) leaveLocked(s *Session) {
	if s.RoomID == 0 {
		return
	}
	if !r.rooms.remove(s.RoomID, s.ConnID) {
		// The session claimed a room it was not indexed in: a
		// cleanup-ordering bug that must not pass silently.
		panic(fmt.Sprintf("presence: connection %s missing from room %d index", s.ConnID, s.RoomID))
	}
	s.RoomID = 0
	s.Rank = RankNone
}
