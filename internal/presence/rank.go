package presence

import (
	"encoding/json"
	"fmt"
)

// Rank is a session's authorization level within its current room. The zero
// value means the rank has not been computed yet; it never grants anything.
type Rank int

const (
	RankNone Rank = iota
	RankBanned
	RankUser
	RankModerator
	RankOwner
)

var rankNames = map[Rank]string{
	RankBanned:    "banned",
	RankUser:      "user",
	RankModerator: "moderator",
	RankOwner:     "owner",
}

var ranksByName = map[string]Rank{
	"banned":    RankBanned,
	"user":      RankUser,
	"moderator": RankModerator,
	"owner":     RankOwner,
}

// ParseRank converts a wire value into a Rank.
func ParseRank(s string) (Rank, error) {
	r, ok := ranksByName[s]
	if !ok {
		return RankNone, fmt.Errorf("unknown rank %q", s)
	}
	return r, nil
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return "none"
}

// Above reports whether r strictly outranks other.
func (r Rank) Above(other Rank) bool {
	return r > other
}

// MarshalJSON serializes the rank as its wire name; an unset rank is null.
func (r Rank) MarshalJSON() ([]byte, error) {
	if name, ok := rankNames[r]; ok {
		return json.Marshal(name)
	}
	return []byte("null"), nil
}

// UnmarshalJSON parses a wire rank name; null yields RankNone.
func (r *Rank) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = RankNone
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseRank(name)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
