package presence

// Session is the in-memory record of one live connection. Values handed out
// by the Registry are snapshot copies; mutating them has no effect on the
// registry state.
type Session struct {
	// ConnID is the transport-level connection id, unique among live sessions.
	ConnID string
	// AccountID is the durable identity, zero until signup/signin completes.
	// AccountID and Token are always both set or both zero.
	AccountID int64
	// Token is the opaque secret issued at authentication, compared by exact
	// match on every privileged request.
	Token string
	// Nickname caches the account's display name to avoid a store round-trip
	// on every broadcast.
	Nickname string
	// RoomID is the room the session currently occupies; zero means
	// unassigned. While non-zero the connection is a member of exactly that
	// room's set in the membership index.
	RoomID int64
	// Rank is the session's authorization level within RoomID.
	Rank Rank
}

// Authenticated reports whether the session is bound to an account.
func (s *Session) Authenticated() bool {
	return s.AccountID != 0 && s.Token != ""
}

// InRoom reports whether the session currently occupies a room.
func (s *Session) InRoom() bool {
	return s.RoomID != 0
}
