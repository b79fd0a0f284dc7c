package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunahex/mimic/internal/domain"
	"github.com/lunahex/mimic/internal/infrastructure/ws"
)

// startMatch creates a room with the given players, runs the countdown
// to completion, and returns the room state with round 1 collecting.
func startMatch(t *testing.T, f *fixture, names ...string) (*roomState, []*domain.Player) {
	t.Helper()

	room, host, err := f.engine.CreateRoom(names[0], 0)
	require.NoError(t, err)

	players := []*domain.Player{host}
	for _, name := range names[1:] {
		_, p, err := f.engine.JoinRoom(room.Code, name, 1)
		require.NoError(t, err)
		players = append(players, p)
	}

	require.NoError(t, f.engine.StartGame(room.Code, host.ID))
	for f.sched.fireNext() && room.Status == domain.RoomCountdown {
	}

	rs, err := f.store.get(room.Code)
	require.NoError(t, err)
	require.Equal(t, domain.RoomActive, room.Status)
	require.Equal(t, phaseCollecting, rs.phase)

	f.gw.reset()
	return rs, players
}

func TestCreateRoom_SeatsHostAndNotifiesSink(t *testing.T) {
	f := newFixture()

	room, host, err := f.engine.CreateRoom("Alice", 3)
	require.NoError(t, err)

	assert.Len(t, room.Code, 6)
	assert.True(t, host.IsHost)
	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, []string{room.Code}, f.sink.created)
}

func TestCreateRoom_RejectsBadProfile(t *testing.T) {
	f := newFixture()

	_, _, err := f.engine.CreateRoom("", 0)
	assert.Error(t, err)

	_, _, err = f.engine.CreateRoom("Alice", 99)
	assert.Error(t, err)
	assert.Equal(t, 0, f.store.Len())
}

func TestJoinRoom_BroadcastsPlayerJoined(t *testing.T) {
	f := newFixture()

	room, _, err := f.engine.CreateRoom("Alice", 0)
	require.NoError(t, err)

	_, bob, err := f.engine.JoinRoom(room.Code, "Bob", 1)
	require.NoError(t, err)

	msg := f.gw.lastOfType(ws.PlayerJoined)
	require.NotNil(t, msg)
	assert.Equal(t, []string{bob.ID}, f.sink.joined)

	_, _, err = f.engine.JoinRoom("ZZZZZZ", "Carol", 0)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestStartGame_HostOnly(t *testing.T) {
	f := newFixture()

	room, _, err := f.engine.CreateRoom("Alice", 0)
	require.NoError(t, err)
	_, bob, err := f.engine.JoinRoom(room.Code, "Bob", 1)
	require.NoError(t, err)

	assert.ErrorIs(t, f.engine.StartGame(room.Code, bob.ID), domain.ErrNotHost)
	assert.ErrorIs(t, f.engine.StartGame(room.Code, "ghost"), domain.ErrPlayerNotInRoom)
}

func TestStartGame_CountdownTicksIntoRoundOne(t *testing.T) {
	f := newFixture()

	room, host, err := f.engine.CreateRoom("Alice", 0)
	require.NoError(t, err)

	require.NoError(t, f.engine.StartGame(room.Code, host.ID))
	assert.Equal(t, domain.RoomCountdown, room.Status)

	// A second start while counting down is rejected.
	assert.ErrorIs(t, f.engine.StartGame(room.Code, host.ID), domain.ErrAlreadyStarted)

	for f.sched.fireNext() && room.Status == domain.RoomCountdown {
	}

	// Ticks 3..0, then the showing/collecting burst.
	assert.Equal(t, 4, f.gw.countOfType(ws.CountdownTick))
	assert.Equal(t, 1, f.gw.countOfType(ws.ShowSequence))
	assert.Equal(t, 1, f.gw.countOfType(ws.SequenceComplete))
	assert.Equal(t, 1, f.gw.countOfType(ws.InputPhaseOpened))

	assert.Equal(t, domain.RoomActive, room.Status)
	require.NotNil(t, room.Round)
	assert.Equal(t, 1, room.Round.Number)
	assert.Len(t, room.Round.Sequence, 1)
}

func TestSubmit_WrongAnswerEliminatesAndEndsTwoPlayerMatch(t *testing.T) {
	f := newFixture()
	rs, players := startMatch(t, f, "Alice", "Bob")
	alice, bob := players[0], players[1]

	f.engine.Submit(rs.room.Code, alice.ID, []string{"red"})
	f.engine.Submit(rs.room.Code, bob.ID, []string{"blue"})

	assert.Equal(t, domain.StatusEliminated, bob.Status)
	assert.Equal(t, 1, alice.Score)
	assert.Equal(t, domain.RoomFinished, rs.room.Status)

	types := f.gw.types()
	assert.Contains(t, types, ws.PlayerEliminated)
	assert.Contains(t, types, ws.RoundResult)
	assert.Contains(t, types, ws.MatchFinished)

	require.Len(t, f.sink.finished, 1)
	rec := f.sink.finished[0]
	assert.Equal(t, alice.ID, rec.WinnerID)
	assert.Equal(t, 1, rec.RoundsCount)
}

func TestSubmit_AllCorrectAdvancesToNextRound(t *testing.T) {
	f := newFixture()
	rs, players := startMatch(t, f, "Alice", "Bob", "Carol")

	for _, p := range players {
		f.engine.Submit(rs.room.Code, p.ID, []string{"red"})
	}

	// First correct submitter in arrival order takes the point.
	assert.Equal(t, 1, players[0].Score)
	assert.Equal(t, 0, players[1].Score)
	assert.Equal(t, 0, players[2].Score)

	require.NotNil(t, rs.room.Round)
	assert.Equal(t, 2, rs.room.Round.Number)
	assert.Len(t, rs.room.Round.Sequence, 2)
	assert.Equal(t, phaseCollecting, rs.phase)

	result := f.gw.lastOfType(ws.RoundResult)
	require.NotNil(t, result)
	payload := result.Data.(ws.RoundResultPayload)
	require.NotNil(t, payload.Winner)
	assert.Equal(t, players[0].ID, payload.Winner.PlayerID)
	assert.Empty(t, payload.Eliminated)
}

func TestSubmit_MalformedSequenceOnlyWarnsSubmitter(t *testing.T) {
	f := newFixture()
	rs, players := startMatch(t, f, "Alice", "Bob")
	alice := players[0]

	f.engine.Submit(rs.room.Code, alice.ID, []string{"magenta"})

	assert.Equal(t, []string{ws.ErrorEvent}, f.gw.directTo(alice.ID))
	assert.False(t, rs.room.Round.Submitted(alice.ID))
	assert.Zero(t, f.gw.countOfType(ws.PlayerSubmitted))
}

func TestSubmit_DuplicateAndForeignSubmissionsIgnored(t *testing.T) {
	f := newFixture()
	rs, players := startMatch(t, f, "Alice", "Bob")
	alice := players[0]

	f.engine.Submit(rs.room.Code, alice.ID, []string{"red"})
	f.engine.Submit(rs.room.Code, alice.ID, []string{"blue"})
	f.engine.Submit(rs.room.Code, "ghost", []string{"red"})

	assert.Equal(t, 1, f.gw.countOfType(ws.PlayerSubmitted))
	assert.True(t, rs.room.Round.Verdicts[alice.ID])
}

func TestDeadline_TimesOutSilentPlayers(t *testing.T) {
	f := newFixture()
	rs, players := startMatch(t, f, "Alice", "Bob", "Carol")
	alice := players[0]

	f.engine.Submit(rs.room.Code, alice.ID, []string{"red"})

	// The round is still waiting on Bob and Carol.
	assert.Equal(t, phaseCollecting, rs.phase)

	require.True(t, f.sched.fireNext()) // input deadline

	timeout := f.gw.lastOfType(ws.InputTimeout)
	require.NotNil(t, timeout)
	assert.Len(t, timeout.Data.(ws.TimeoutPayload).Players, 2)

	assert.Equal(t, domain.StatusEliminated, players[1].Status)
	assert.Equal(t, domain.StatusEliminated, players[2].Status)
	assert.Equal(t, 2, f.gw.countOfType(ws.PlayerEliminated))

	// Alice is the lone survivor, so the match ends.
	assert.Equal(t, domain.RoomFinished, rs.room.Status)
	assert.Equal(t, 1, f.gw.countOfType(ws.MatchFinished))
}

func TestDeadline_StaleCallbackIsNoop(t *testing.T) {
	f := newFixture()
	rs, players := startMatch(t, f, "Alice", "Bob", "Carol")

	staleGen := rs.roundGen

	for _, p := range players {
		f.engine.Submit(rs.room.Code, p.ID, []string{"red"})
	}
	require.Equal(t, 2, rs.room.Round.Number)

	before := len(f.gw.types())
	f.engine.onDeadline(rs, staleGen)
	assert.Len(t, f.gw.types(), before)
}

func TestAllSubmitted_StopsDeadlineTimer(t *testing.T) {
	f := newFixture()
	rs, players := startMatch(t, f, "Alice", "Bob")

	f.engine.Submit(rs.room.Code, players[0].ID, []string{"red"})
	f.engine.Submit(rs.room.Code, players[1].ID, []string{"red"})
	require.Equal(t, 2, rs.room.Round.Number)

	// Exactly one pending timer survives: round 2's deadline.
	assert.Equal(t, 1, f.sched.pending())
}

func TestInputWindow_ShrinksPerRoundAndFloors(t *testing.T) {
	f := newFixture()
	rs, players := startMatch(t, f, "Alice", "Bob")

	assert.Equal(t, 30*time.Second, rs.room.Round.Duration)

	// The fixture's pinned pick makes round N's target N reds; submit
	// the full growing sequence so every round is answered correctly.
	var target []string
	for round := 1; round <= 25; round++ {
		target = append(target, "red")
		for _, p := range players {
			f.engine.Submit(rs.room.Code, p.ID, append([]string(nil), target...))
		}
	}

	require.Equal(t, 26, rs.room.Round.Number)
	assert.Equal(t, 10*time.Second, rs.room.Round.Duration)
}

func TestSoloMatch_EndsOnFirstElimination(t *testing.T) {
	f := newFixture()
	rs, players := startMatch(t, f, "Alice")
	alice := players[0]

	f.engine.Submit(rs.room.Code, alice.ID, []string{"red"})
	require.Equal(t, 2, rs.room.Round.Number)
	assert.Equal(t, 1, alice.Score)

	f.engine.Submit(rs.room.Code, alice.ID, []string{"blue", "blue"})

	assert.Equal(t, domain.StatusEliminated, alice.Status)
	assert.Equal(t, domain.RoomFinished, rs.room.Status)

	// Solo play: the player is still the match winner; their score
	// counts the rounds they survived.
	require.Len(t, f.sink.finished, 1)
	assert.Equal(t, alice.ID, f.sink.finished[0].WinnerID)
}

func TestRestart_RewindsFinishedMatchToLobby(t *testing.T) {
	f := newFixture()
	rs, players := startMatch(t, f, "Alice", "Bob")
	alice, bob := players[0], players[1]

	assert.ErrorIs(t, f.engine.Restart(rs.room.Code, alice.ID), domain.ErrMatchNotOver)

	f.engine.Submit(rs.room.Code, alice.ID, []string{"red"})
	f.engine.Submit(rs.room.Code, bob.ID, []string{"blue"})
	require.Equal(t, domain.RoomFinished, rs.room.Status)

	assert.ErrorIs(t, f.engine.Restart(rs.room.Code, bob.ID), domain.ErrNotHost)

	require.NoError(t, f.engine.Restart(rs.room.Code, alice.ID))
	assert.Equal(t, domain.RoomWaiting, rs.room.Status)
	assert.Equal(t, phaseIdle, rs.phase)
	assert.Nil(t, rs.room.Round)
	assert.Zero(t, alice.Score)
	assert.Equal(t, domain.StatusPlaying, bob.Status)
	assert.Equal(t, 1, f.gw.countOfType(ws.GameRestarted))
}

func TestLeave_LastPlayerClosesRoom(t *testing.T) {
	f := newFixture()

	room, host, err := f.engine.CreateRoom("Alice", 0)
	require.NoError(t, err)

	f.engine.Leave(room.Code, host.ID)

	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, 1, f.gw.countOfType(ws.RoomClosed))
	assert.Equal(t, []string{room.Code}, f.sink.closed)
}

func TestLeave_MidRoundDiscardsAndReevaluates(t *testing.T) {
	f := newFixture()
	rs, players := startMatch(t, f, "Alice", "Bob")
	alice, bob := players[0], players[1]

	f.engine.Submit(rs.room.Code, alice.ID, []string{"red"})

	// Bob leaving makes Alice's submission the whole round.
	f.engine.Leave(rs.room.Code, bob.ID)

	assert.Equal(t, 1, f.gw.countOfType(ws.PlayerLeft))
	assert.Equal(t, 1, alice.Score)
	assert.True(t, alice.IsHost)

	// With one playing seat left the match carries on solo.
	require.NotNil(t, rs.room.Round)
	assert.Equal(t, 2, rs.room.Round.Number)
	assert.Equal(t, domain.RoomActive, rs.room.Status)
}

func TestSnapshot_ReportsRoundAndRemainingTime(t *testing.T) {
	f := newFixture()
	now := time.Now()
	f.engine.now = func() time.Time { return now }

	rs, _ := startMatch(t, f, "Alice", "Bob")

	now = now.Add(10 * time.Second)

	snap, err := f.engine.Snapshot(rs.room.Code)
	require.NoError(t, err)

	assert.Equal(t, rs.room.Code, snap.Code)
	assert.Equal(t, string(domain.RoomActive), snap.Status)
	assert.Len(t, snap.Players, 2)
	assert.Equal(t, 1, snap.Round)
	assert.Equal(t, []string{"red"}, snap.Sequence)
	assert.Equal(t, int64(20000), snap.RemainingMs)
	assert.Equal(t, int64(30000), snap.DurationMs)

	_, err = f.engine.Snapshot("ZZZZZZ")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestCountdown_TickAfterRoomTeardownIsNoop(t *testing.T) {
	f := newFixture()

	room, host, err := f.engine.CreateRoom("Alice", 0)
	require.NoError(t, err)
	require.NoError(t, f.engine.StartGame(room.Code, host.ID))

	// Simulate a tick callback that has already left AfterFunc when the
	// last seat leaves: Stop can no longer reach it, only its re-check.
	tick := f.sched.timers[len(f.sched.timers)-1]
	tick.fired = true

	f.engine.Leave(room.Code, host.ID)
	require.Equal(t, 0, f.store.Len())
	f.gw.reset()

	tick.f()

	// The resumed callback must not march the torn-down room through
	// rounds or emit anything for its freed code.
	assert.Empty(t, f.gw.types())
	assert.Empty(t, f.sink.finished)
	assert.Zero(t, f.sched.pending())
}
