package presence

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank_Order(t *testing.T) {
	assert.True(t, RankUser.Above(RankBanned))
	assert.True(t, RankModerator.Above(RankUser))
	assert.True(t, RankOwner.Above(RankModerator))
	assert.False(t, RankUser.Above(RankUser))
	assert.False(t, RankNone.Above(RankBanned))
}

func TestParseRank(t *testing.T) {
	for name, want := range map[string]Rank{
		"banned":    RankBanned,
		"user":      RankUser,
		"moderator": RankModerator,
		"owner":     RankOwner,
	} {
		got, err := ParseRank(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseRank("tsar")
	assert.Error(t, err)
}

func TestRank_JSON(t *testing.T) {
	data, err := json.Marshal(RankModerator)
	require.NoError(t, err)
	assert.Equal(t, `"moderator"`, string(data))

	data, err = json.Marshal(RankNone)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	var r Rank
	require.NoError(t, json.Unmarshal([]byte(`"owner"`), &r))
	assert.Equal(t, RankOwner, r)

	require.NoError(t, json.Unmarshal([]byte("null"), &r))
	assert.Equal(t, RankNone, r)

	assert.Error(t, json.Unmarshal([]byte(`"emperor"`), &r))
}
