package game

import (
	"sync"
	"time"

	"github.com/lunahex/mimic/internal/domain"
	"github.com/lunahex/mimic/internal/infrastructure/ws"
)

type phase int

const (
	phaseIdle phase = iota
	phaseCountdown
	phaseShowing
	phaseCollecting
	phaseFinished
	phaseClosed
)

// seatTimers holds the pending disconnect windows for one seat. Both
// are cancelled outright on reconnect so a stale removal can never
// fire after the player has legitimately returned.
type seatTimers struct {
	buffer Timer
	grace  Timer
}

func (t *seatTimers) cancel() {
	if t == nil {
		return
	}
	if t.buffer != nil {
		t.buffer.Stop()
	}
	if t.grace != nil {
		t.grace.Stop()
	}
}

// roomState wraps a domain.Room with its runtime machinery: the
// per-room mutex that serializes every mutation, live connection
// bindings, and the cancellable timers the round engine and the
// connection supervisor arm.
//
// Lock ordering: a roomState.mu may be held while taking the store
// lock (room teardown does this), never the other way around. Store
// methods holding the map lock must not touch any roomState.mu.
type roomState struct {
	mu   sync.Mutex
	room *domain.Room

	phase     phase
	countdown Timer
	deadline  Timer

	// deadlineAt is the absolute end of the input window; remaining
	// time is always recomputed as max(0, deadlineAt-now).
	deadlineAt time.Time

	// roundGen is bumped whenever an input window closes, so a stale
	// deadline callback can detect it lost the race and bail.
	roundGen uint64

	clients     map[string]*ws.Client  // playerID -> bound connection
	disconnects map[string]*seatTimers // playerID -> pending windows
	emptySince  time.Time              // zero while anyone is connected
}

func newRoomState(room *domain.Room, now time.Time) *roomState {
	return &roomState{
		room:        room,
		phase:       phaseIdle,
		clients:     make(map[string]*ws.Client),
		disconnects: make(map[string]*seatTimers),
		emptySince:  now,
	}
}

// cancelTimers stops everything pending and marks the room closed;
// called on teardown. The phase change covers a timer callback that
// has already fired and is waiting on rs.mu: Stop cannot reach it, but
// its phase re-check will.
func (rs *roomState) cancelTimers() {
	rs.phase = phaseClosed
	if rs.countdown != nil {
		rs.countdown.Stop()
		rs.countdown = nil
	}
	rs.stopDeadline()
	for _, t := range rs.disconnects {
		t.cancel()
	}
	rs.disconnects = make(map[string]*seatTimers)
}

// stopDeadline cancels the input-window timer and invalidates any
// callback already in flight.
func (rs *roomState) stopDeadline() {
	rs.roundGen++
	if rs.deadline != nil {
		rs.deadline.Stop()
		rs.deadline = nil
	}
}

// remaining reports the input window time left, never negative.
func (rs *roomState) remaining(now time.Time) time.Duration {
	if rs.phase != phaseCollecting {
		return 0
	}
	if d := rs.deadlineAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// connectedCount is the number of seats with a live binding.
func (rs *roomState) connectedCount() int {
	return len(rs.clients)
}

// markConnectivity keeps emptySince in step with the bindings map.
func (rs *roomState) markConnectivity(now time.Time) {
	if len(rs.clients) == 0 {
		if rs.emptySince.IsZero() {
			rs.emptySince = now
		}
		return
	}
	rs.emptySince = time.Time{}
}
