package authz

import (
	"errors"
	"testing"

	"github.com/clatterlab/clatter/internal/common/errorx"
	"github.com/clatterlab/clatter/internal/presence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inRoom(rank presence.Rank) presence.Session {
	return presence.Session{RoomID: 7, Rank: rank}
}

func kindOf(t *testing.T, err error) errorx.Kind {
	t.Helper()
	var domain *errorx.Error
	require.True(t, errors.As(err, &domain))
	return domain.Kind
}

func TestCanAssign_TargetMustBeColocated(t *testing.T) {
	requester := inRoom(presence.RankOwner)

	other := presence.Session{RoomID: 8, Rank: presence.RankUser}
	err := CanAssign(requester, other, presence.RankModerator)
	assert.Equal(t, errorx.KindPreconditionFailed, kindOf(t, err))

	offline := presence.Session{}
	err = CanAssign(requester, offline, presence.RankModerator)
	assert.Equal(t, errorx.KindPreconditionFailed, kindOf(t, err))

	lobby := presence.Session{Rank: presence.RankOwner}
	err = CanAssign(lobby, offline, presence.RankModerator)
	assert.Equal(t, errorx.KindPreconditionFailed, kindOf(t, err),
		"requester outside any room can change nothing")
}

func TestCanAssign_UserAlwaysForbidden(t *testing.T) {
	requester := inRoom(presence.RankUser)
	for _, targetRank := range []presence.Rank{
		presence.RankBanned, presence.RankUser, presence.RankModerator, presence.RankOwner,
	} {
		err := CanAssign(requester, inRoom(targetRank), presence.RankBanned)
		assert.Equal(t, errorx.KindForbidden, kindOf(t, err),
			"USER must never change ranks (target %s)", targetRank)
	}
}

func TestCanAssign_BannedForbidden(t *testing.T) {
	err := CanAssign(inRoom(presence.RankBanned), inRoom(presence.RankUser), presence.RankBanned)
	assert.Equal(t, errorx.KindForbidden, kindOf(t, err))
}

func TestCanAssign_ModeratorScope(t *testing.T) {
	mod := inRoom(presence.RankModerator)

	// may demote a USER to BANNED
	assert.NoError(t, CanAssign(mod, inRoom(presence.RankUser), presence.RankBanned))

	// may not promote anyone to OWNER
	err := CanAssign(mod, inRoom(presence.RankUser), presence.RankOwner)
	assert.Equal(t, errorx.KindForbidden, kindOf(t, err))

	// may not hand out a rank equal to their own
	err = CanAssign(mod, inRoom(presence.RankUser), presence.RankModerator)
	assert.Equal(t, errorx.KindForbidden, kindOf(t, err))

	// may not act on another MODERATOR
	err = CanAssign(mod, inRoom(presence.RankModerator), presence.RankBanned)
	assert.Equal(t, errorx.KindForbidden, kindOf(t, err))

	// may not act on the OWNER
	err = CanAssign(mod, inRoom(presence.RankOwner), presence.RankBanned)
	assert.Equal(t, errorx.KindForbidden, kindOf(t, err))
}

func TestCanAssign_Owner(t *testing.T) {
	owner := inRoom(presence.RankOwner)

	assert.NoError(t, CanAssign(owner, inRoom(presence.RankUser), presence.RankModerator))
	assert.NoError(t, CanAssign(owner, inRoom(presence.RankModerator), presence.RankBanned))

	// cannot assign a rank equal to their own
	err := CanAssign(owner, inRoom(presence.RankUser), presence.RankOwner)
	assert.Equal(t, errorx.KindForbidden, kindOf(t, err))
}
