package game

import (
	"github.com/lunahex/mimic/internal/domain"
	"github.com/lunahex/mimic/internal/infrastructure/logging"
	"github.com/lunahex/mimic/internal/infrastructure/ws"
)

// Connection supervision. A dropped socket walks through two stages
// before the seat is reclaimed:
//
//	online --drop--> silent buffer --expire--> announced grace --expire--> removed
//
// A reconnect at any point before removal cancels both windows and
// restores the seat untouched. Disconnection never eliminates anyone
// mid-round; the input deadline deals with silent players on its own.

// Attach binds an authenticated socket to its seat and replays the
// room state to it. It handles both the first connection after the
// HTTP join and every reconnect after a drop.
func (e *Engine) Attach(c *ws.Client) error {
	rs, err := e.store.get(c.RoomID)
	if err != nil {
		return err
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	player := rs.room.Player(c.PlayerID)
	if player == nil {
		return domain.ErrPlayerNotInRoom
	}

	if t, ok := rs.disconnects[c.PlayerID]; ok {
		t.cancel()
		delete(rs.disconnects, c.PlayerID)
	}

	reconnecting := player.Conn != domain.ConnOnline
	player.Conn = domain.ConnOnline

	if _, already := rs.clients[c.PlayerID]; !already {
		e.metrics.PlayersConnected.Inc()
	}
	rs.clients[c.PlayerID] = c
	rs.markConnectivity(e.now())

	// Publishing while the lock is held keeps queue order in step with
	// lock order, so a reconnect notice can never trail a stale
	// disconnect notice for the same seat.
	if reconnecting {
		e.gw.Publish(c.RoomID, ws.NewPlayerReconnected(c.RoomID, player.ID, player.Name))
		e.metrics.Reconnects.Inc()

		e.logger.Info(logging.Connection, logging.Reconnect, "player reconnected", map[logging.ExtraKey]any{
			logging.RoomCode: c.RoomID,
			logging.PlayerID: c.PlayerID,
		})
	}

	snap := e.snapshotLocked(rs)
	e.gw.SendTo(c.RoomID, c.PlayerID, &ws.Message{
		Type:   ws.RoomSnapshot,
		RoomID: c.RoomID,
		Data:   snap,
	})

	return nil
}

// HandleDisconnect is invoked by the transport when a socket dies. It
// starts the silent buffer window for the seat the socket was bound
// to. A stale callback for a socket that was already replaced by a
// reconnect is ignored.
func (e *Engine) HandleDisconnect(c *ws.Client) {
	rs, err := e.store.get(c.RoomID)
	if err != nil {
		return
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	bound, ok := rs.clients[c.PlayerID]
	if !ok || bound != c {
		return
	}

	delete(rs.clients, c.PlayerID)
	e.metrics.PlayersConnected.Dec()
	rs.markConnectivity(e.now())

	player := rs.room.Player(c.PlayerID)
	if player == nil {
		return
	}
	player.Conn = domain.ConnDropped

	e.logger.Debug(logging.Connection, logging.Reconnect, "socket dropped, buffer window open", map[logging.ExtraKey]any{
		logging.RoomCode: c.RoomID,
		logging.PlayerID: c.PlayerID,
	})

	timers := &seatTimers{}
	timers.buffer = e.sched.AfterFunc(e.cfg.DisconnectBuffer, func() {
		e.onBufferExpired(rs, c.PlayerID, timers)
	})
	rs.disconnects[c.PlayerID] = timers
}

// onBufferExpired promotes a silent drop to an announced disconnect
// and opens the grace window.
func (e *Engine) onBufferExpired(rs *roomState, playerID string, timers *seatTimers) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.disconnects[playerID] != timers {
		return
	}

	player := rs.room.Player(playerID)
	if player == nil {
		delete(rs.disconnects, playerID)
		return
	}

	player.Conn = domain.ConnGrace
	code := rs.room.Code
	name := player.Name

	timers.grace = e.sched.AfterFunc(e.cfg.DisconnectGrace, func() {
		e.onGraceExpired(rs, playerID, timers)
	})

	// Announced under the lock so a racing reconnect cannot slip its
	// notice into the queue ahead of this one.
	e.gw.Publish(code, ws.NewPlayerDisconnected(code, playerID, name))

	e.logger.Info(logging.Connection, logging.Reconnect, "player disconnected, grace window open", map[logging.ExtraKey]any{
		logging.RoomCode: code,
		logging.PlayerID: playerID,
	})
}

// onGraceExpired reclaims the seat for good.
func (e *Engine) onGraceExpired(rs *roomState, playerID string, timers *seatTimers) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.disconnects[playerID] != timers {
		return
	}
	delete(rs.disconnects, playerID)

	e.logger.Info(logging.Connection, logging.Reconnect, "grace expired, removing player", map[logging.ExtraKey]any{
		logging.RoomCode: rs.room.Code,
		logging.PlayerID: playerID,
	})

	e.removeSeatLocked(rs, playerID)
}
