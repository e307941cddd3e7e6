// Package authz holds the rank-change decision rules. The rules are
// evaluated in a fixed order; the first failing rule decides the error the
// caller reports.
package authz

import (
	"github.com/clatterlab/clatter/internal/common/errorx"
	"github.com/clatterlab/clatter/internal/presence"
)

// CanAssign decides whether requester may set target's rank to newRank
// within the requester's current room. Token validity (rule one of the
// authorization chain) is enforced by the dispatcher before any handler
// runs; the remaining rules live here.
func CanAssign(requester, target presence.Session, newRank presence.Rank) error {
	// Rank changes are scoped to a room, so both parties must be online
	// in the same one.
	if !requester.InRoom() || requester.RoomID != target.RoomID {
		return errorx.PreconditionFailed("error.target_offline")
	}
	if !requester.Rank.Above(presence.RankUser) {
		return errorx.Forbidden("error.insufficient_rank")
	}
	if !requester.Rank.Above(newRank) {
		return errorx.Forbidden("error.rank_too_high")
	}
	if !requester.Rank.Above(target.Rank) {
		return errorx.Forbidden("error.peer_or_superior")
	}
	return nil
}
