package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlayer(t *testing.T, name string) *Player {
	t.Helper()
	p, err := NewPlayer(name, 0)
	require.NoError(t, err)
	return p
}

func TestGenerateCode_FormatAndAlphabet(t *testing.T) {
	for range 50 {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		for _, c := range code {
			assert.Contains(t, codeChars, string(c))
		}
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "1")
		assert.NotContains(t, code, "I")
	}
}

func TestNewRoom_HostIsSeatedFirst(t *testing.T) {
	host := newTestPlayer(t, "Alice")
	room, err := NewRoom(host)
	require.NoError(t, err)

	assert.Equal(t, RoomWaiting, room.Status)
	require.Len(t, room.Players, 1)
	assert.True(t, room.Players[0].IsHost)
	assert.Same(t, host, room.Host())
}

func TestAddPlayer_SeatLimit(t *testing.T) {
	room, err := NewRoom(newTestPlayer(t, "host"))
	require.NoError(t, err)

	for _, name := range []string{"bob", "carol", "dave"} {
		require.NoError(t, room.AddPlayer(newTestPlayer(t, name)))
	}

	err = room.AddPlayer(newTestPlayer(t, "eve"))
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestAddPlayer_RejectedOnceStarted(t *testing.T) {
	room, err := NewRoom(newTestPlayer(t, "host"))
	require.NoError(t, err)

	room.Status = RoomActive
	err = room.AddPlayer(newTestPlayer(t, "bob"))
	assert.ErrorIs(t, err, ErrGameInProgress)

	room.Status = RoomFinished
	err = room.AddPlayer(newTestPlayer(t, "bob"))
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestRemovePlayer_HostPromotionFollowsJoinOrder(t *testing.T) {
	host := newTestPlayer(t, "host")
	room, err := NewRoom(host)
	require.NoError(t, err)

	bob := newTestPlayer(t, "bob")
	carol := newTestPlayer(t, "carol")
	require.NoError(t, room.AddPlayer(bob))
	require.NoError(t, room.AddPlayer(carol))

	removed, empty := room.RemovePlayer(host.ID)
	assert.Same(t, host, removed)
	assert.False(t, empty)
	assert.True(t, bob.IsHost)
	assert.False(t, carol.IsHost)
}

func TestRemovePlayer_LastPlayerEmptiesRoom(t *testing.T) {
	host := newTestPlayer(t, "host")
	room, err := NewRoom(host)
	require.NoError(t, err)

	removed, empty := room.RemovePlayer(host.ID)
	assert.Same(t, host, removed)
	assert.True(t, empty)
}

func TestRemovePlayer_UnknownID(t *testing.T) {
	room, err := NewRoom(newTestPlayer(t, "host"))
	require.NoError(t, err)

	removed, empty := room.RemovePlayer("nope")
	assert.Nil(t, removed)
	assert.False(t, empty)
}

func TestFinalScores_SortedDescendingTiesByJoinOrder(t *testing.T) {
	host := newTestPlayer(t, "host")
	room, err := NewRoom(host)
	require.NoError(t, err)

	bob := newTestPlayer(t, "bob")
	carol := newTestPlayer(t, "carol")
	require.NoError(t, room.AddPlayer(bob))
	require.NoError(t, room.AddPlayer(carol))

	host.Score = 1
	bob.Score = 3
	carol.Score = 1

	scores := room.FinalScores()
	require.Len(t, scores, 3)
	assert.Equal(t, bob.ID, scores[0].PlayerID)
	assert.Equal(t, host.ID, scores[1].PlayerID) // tie broken by join order
	assert.Equal(t, carol.ID, scores[2].PlayerID)
}

func TestRestart_OnlyFromFinished(t *testing.T) {
	host := newTestPlayer(t, "host")
	room, err := NewRoom(host)
	require.NoError(t, err)

	assert.ErrorIs(t, room.Restart(), ErrMatchNotOver)

	room.Status = RoomActive
	assert.ErrorIs(t, room.Restart(), ErrMatchNotOver)

	room.Status = RoomFinished
	host.Score = 5
	host.Status = StatusEliminated
	room.Round = NextRound(nil, func(int) int { return 0 })

	require.NoError(t, room.Restart())
	assert.Equal(t, RoomWaiting, room.Status)
	assert.Nil(t, room.Round)
	assert.Zero(t, host.Score)
	assert.Equal(t, StatusPlaying, host.Status)
}

func TestNewPlayer_Validation(t *testing.T) {
	cases := []struct {
		name    string
		avatar  int
		wantErr bool
	}{
		{"Alice", 0, false},
		{"al", 11, false},
		{"a", 0, true},                     // too short
		{strings.Repeat("a", 25), 0, true}, // too long
		{"has space", 0, true},
		{"bad!chars", 0, true},
		{"", 0, true},
		{"Alice", -1, true},
		{"Alice", 12, true},
	}

	for _, tc := range cases {
		_, err := NewPlayer(tc.name, tc.avatar)
		if tc.wantErr {
			assert.Error(t, err, "name=%q avatar=%d", tc.name, tc.avatar)
		} else {
			assert.NoError(t, err, "name=%q avatar=%d", tc.name, tc.avatar)
		}
	}
}
