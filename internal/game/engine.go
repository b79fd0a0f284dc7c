package game

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/lunahex/mimic/internal/domain"
	"github.com/lunahex/mimic/internal/infrastructure/configs"
	"github.com/lunahex/mimic/internal/infrastructure/logging"
	"github.com/lunahex/mimic/internal/infrastructure/metrics"
	"github.com/lunahex/mimic/internal/infrastructure/ws"
)

// Gateway is the only view the engine has of the transport: fan an
// event out to a room, or deliver it to a single seat.
type Gateway interface {
	Publish(roomID string, msg *ws.Message)
	SendTo(roomID, playerID string, msg *ws.Message)
}

// EventSink receives lifecycle events for out-of-band consumers
// (message bus, audit). All calls are best-effort; the game never
// blocks on them.
type EventSink interface {
	RoomCreated(code, hostID string)
	PlayerJoined(code, playerID string)
	RoomClosed(code string)
	MatchFinished(rec *domain.MatchRecord)
}

type noopSink struct{}

func (noopSink) RoomCreated(string, string)        {}
func (noopSink) PlayerJoined(string, string)       {}
func (noopSink) RoomClosed(string)                 {}
func (noopSink) MatchFinished(*domain.MatchRecord) {}

// Engine runs the match state machine:
//
//	Idle -> Countdown -> ShowingSequence -> CollectingInput -> Judging
//	     -> RoundResult -> (next round | Finished)
//
// Every mutation happens under the owning roomState's mutex, and every
// timer callback re-validates the state it guards before acting.
type Engine struct {
	store   *Store
	gw      Gateway
	cfg     configs.GameConfig
	logger  logging.Logger
	metrics *metrics.Metrics
	sink    EventSink

	sched Scheduler
	now   func() time.Time
	pick  func(n int) int
}

func NewEngine(
	store *Store,
	gw Gateway,
	cfg configs.GameConfig,
	logger logging.Logger,
	m *metrics.Metrics,
	sink EventSink,
) *Engine {
	if sink == nil {
		sink = noopSink{}
	}

	return &Engine{
		store:   store,
		gw:      gw,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		sink:    sink,
		sched:   NewScheduler(),
		now:     time.Now,
		pick:    rand.IntN,
	}
}

// ---------- room lifecycle (HTTP-facing) ----------

// CreateRoom opens a fresh room with the given host profile.
func (e *Engine) CreateRoom(displayName string, avatar int) (*domain.Room, *domain.Player, error) {
	host, err := domain.NewPlayer(displayName, avatar)
	if err != nil {
		return nil, nil, err
	}

	rs, err := e.store.create(host)
	if err != nil {
		return nil, nil, err
	}

	e.logger.Info(logging.Game, logging.RoomLifecycle, "room created", map[logging.ExtraKey]any{
		logging.RoomCode: rs.room.Code,
		logging.PlayerID: host.ID,
	})
	e.sink.RoomCreated(rs.room.Code, host.ID)

	return rs.room, host, nil
}

// JoinRoom seats a new player and announces them to the room.
func (e *Engine) JoinRoom(code, displayName string, avatar int) (*domain.Room, *domain.Player, error) {
	player, err := domain.NewPlayer(displayName, avatar)
	if err != nil {
		return nil, nil, err
	}

	rs, err := e.store.get(code)
	if err != nil {
		return nil, nil, err
	}

	rs.mu.Lock()
	if err := rs.room.AddPlayer(player); err != nil {
		rs.mu.Unlock()
		return nil, nil, err
	}
	room := rs.room
	rs.mu.Unlock()

	e.gw.Publish(code, ws.NewPlayerJoined(code, playerView(player, false)))
	e.sink.PlayerJoined(code, player.ID)

	e.logger.Info(logging.Game, logging.RoomLifecycle, "player joined", map[logging.ExtraKey]any{
		logging.RoomCode: code,
		logging.PlayerID: player.ID,
	})

	return room, player, nil
}

// Snapshot renders the room's current state for a single observer.
func (e *Engine) Snapshot(code string) (*ws.SnapshotPayload, error) {
	rs, err := e.store.get(code)
	if err != nil {
		return nil, err
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	snap := e.snapshotLocked(rs)
	return &snap, nil
}

// ---------- inbound event dispatch (ws.Handler) ----------

func (e *Engine) HandleMessage(c *ws.Client, msgType string, data json.RawMessage) {
	switch msgType {
	case ws.StartGame:
		if err := e.StartGame(c.RoomID, c.PlayerID); err != nil {
			e.sendError(c.RoomID, c.PlayerID, err)
		}
	case ws.SubmitSequence:
		var payload ws.SubmitPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			e.gw.SendTo(c.RoomID, c.PlayerID, ws.NewError(c.RoomID, "BAD_MESSAGE", "malformed submission"))
			return
		}
		e.Submit(c.RoomID, c.PlayerID, payload.Sequence)
	case ws.RestartGame:
		if err := e.Restart(c.RoomID, c.PlayerID); err != nil {
			e.sendError(c.RoomID, c.PlayerID, err)
		}
	case ws.LeaveRoom:
		e.Leave(c.RoomID, c.PlayerID)
	default:
		e.gw.SendTo(c.RoomID, c.PlayerID, ws.NewError(c.RoomID, "UNKNOWN_EVENT", "unknown event "+msgType))
	}
}

// ---------- countdown ----------

// StartGame begins the host-triggered countdown. It re-validates the
// room status so a second start request racing the first is rejected
// rather than assumed impossible.
func (e *Engine) StartGame(code, playerID string) error {
	rs, err := e.store.get(code)
	if err != nil {
		return err
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	player := rs.room.Player(playerID)
	if player == nil {
		return domain.ErrPlayerNotInRoom
	}
	if !player.IsHost {
		return domain.ErrNotHost
	}
	if rs.room.Status != domain.RoomWaiting {
		return domain.ErrAlreadyStarted
	}

	rs.room.Status = domain.RoomCountdown
	rs.phase = phaseCountdown

	e.logger.Info(logging.Game, logging.RoundFlow, "countdown started", map[logging.ExtraKey]any{
		logging.RoomCode: code,
	})

	e.tickCountdown(rs, e.cfg.CountdownFrom)
	return nil
}

// tickCountdown emits one tick and arms the next. Caller holds rs.mu.
func (e *Engine) tickCountdown(rs *roomState, count int) {
	code := rs.room.Code
	e.gw.Publish(code, ws.NewCountdownTick(code, count))

	if count == 0 {
		rs.countdown = nil
		rs.room.Status = domain.RoomActive
		e.startRoundLocked(rs)
		return
	}

	rs.countdown = e.sched.AfterFunc(time.Second, func() {
		rs.mu.Lock()
		defer rs.mu.Unlock()

		// The room may have been torn down or reset while we slept.
		if rs.phase != phaseCountdown {
			return
		}
		e.tickCountdown(rs, count-1)
	})
}

// ---------- show sequence / collect input ----------

// startRoundLocked grows the sequence by one symbol, shows it, and
// immediately opens the input window. Caller holds rs.mu.
func (e *Engine) startRoundLocked(rs *roomState) {
	code := rs.room.Code

	rs.room.Round = domain.NextRound(rs.room.Round, e.pick)
	round := rs.room.Round
	rs.phase = phaseShowing

	e.gw.Publish(code, ws.NewShowSequence(code, round.Number, sequenceStrings(round.Sequence)))

	// Playback timing is the client's concern; the server's sequence
	// bookkeeping is done as soon as the broadcast is queued.
	e.gw.Publish(code, ws.NewSequenceComplete(code, round.Number))

	e.openInputLocked(rs)
}

func (e *Engine) openInputLocked(rs *roomState) {
	code := rs.room.Code
	round := rs.room.Round

	duration := e.cfg.InputTimeout(round.Number)
	now := e.now()

	round.Duration = duration
	round.Deadline = now.Add(duration)

	rs.phase = phaseCollecting
	rs.deadlineAt = round.Deadline

	e.gw.Publish(code, &ws.Message{
		Type:   ws.InputPhaseOpened,
		RoomID: code,
		Data: ws.InputPhasePayload{
			Round:      round.Number,
			Deadline:   round.Deadline.UTC().Format(time.RFC3339Nano),
			DurationMs: duration.Milliseconds(),
		},
	})

	gen := rs.roundGen
	rs.deadline = e.sched.AfterFunc(duration, func() {
		e.onDeadline(rs, gen)
	})
}

// Submit records one player's answer. Duplicate or out-of-phase
// submissions are expected races and are silently ignored.
func (e *Engine) Submit(code, playerID string, rawSequence []string) {
	rs, err := e.store.get(code)
	if err != nil {
		return
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.phase != phaseCollecting {
		return
	}

	player := rs.room.Player(playerID)
	if player == nil || !player.Active() {
		return
	}

	seq, err := domain.ParseSequence(rawSequence)
	if err != nil {
		e.gw.SendTo(code, playerID, ws.NewError(code, "BAD_SEQUENCE", err.Error()))
		return
	}

	round := rs.room.Round
	correct, accepted := round.Submit(playerID, seq)
	if !accepted {
		return
	}

	// Submissions are judged in arrival order; the player's own
	// "submitted" notice always precedes the verdict it produced.
	e.gw.Publish(code, ws.NewPlayerSubmitted(code, playerID))
	e.gw.Publish(code, ws.NewSubmissionJudged(code, playerID, correct))

	verdict := "incorrect"
	if correct {
		verdict = "correct"
	}
	e.metrics.Submissions.WithLabelValues(verdict).Inc()

	if e.allSubmittedLocked(rs) {
		// Nobody left to wait for: kill the deadline so a stray
		// timeout cannot fire against a round that already resolved.
		rs.stopDeadline()
		e.resolveRoundLocked(rs)
	}
}

// allSubmittedLocked reports whether every active player has an entry
// this round. Disconnected players still count as awaited: disconnect
// and timeout are independent, so the round always waits out the
// deadline for them.
func (e *Engine) allSubmittedLocked(rs *roomState) bool {
	for _, p := range rs.room.ActivePlayers() {
		if !rs.room.Round.Submitted(p.ID) {
			return false
		}
	}
	return true
}

// onDeadline is the input-window timeout callback. The generation
// check makes a stale callback (one that lost the race against
// all-submitted resolution) a no-op.
func (e *Engine) onDeadline(rs *roomState, gen uint64) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.phase != phaseCollecting || rs.roundGen != gen {
		return
	}
	rs.stopDeadline()

	round := rs.room.Round
	code := rs.room.Code

	var late []ws.PlayerRefPayload
	for _, p := range rs.room.ActivePlayers() {
		if !round.Submitted(p.ID) {
			round.TimedOut = append(round.TimedOut, p.ID)
			late = append(late, ws.PlayerRefPayload{PlayerID: p.ID, Name: p.Name})
		}
	}

	if len(late) > 0 {
		e.gw.Publish(code, &ws.Message{
			Type:   ws.InputTimeout,
			RoomID: code,
			Data:   ws.TimeoutPayload{Round: round.Number, Players: late},
		})
	}

	e.resolveRoundLocked(rs)
}

// ---------- judging / round result / match end ----------

func (e *Engine) resolveRoundLocked(rs *roomState) {
	code := rs.room.Code
	round := rs.room.Round
	active := rs.room.ActivePlayers()

	outcome := round.Resolve(active)

	if winner := rs.room.Player(outcome.WinnerID); winner != nil {
		winner.Score++
	}
	for _, el := range outcome.Eliminated {
		if p := rs.room.Player(el.PlayerID); p != nil {
			p.Status = domain.StatusEliminated
		}
		e.gw.Publish(code, ws.NewPlayerEliminated(code, el.PlayerID, el.Name, string(el.Reason)))
	}

	var winnerRef *ws.PlayerRefPayload
	if outcome.WinnerID != "" {
		winnerRef = &ws.PlayerRefPayload{PlayerID: outcome.WinnerID, Name: outcome.WinnerName}
	}

	e.gw.Publish(code, &ws.Message{
		Type:   ws.RoundResult,
		RoomID: code,
		Data: ws.RoundResultPayload{
			Round:      round.Number,
			Winner:     winnerRef,
			Eliminated: eliminationPayloads(outcome.Eliminated),
			Scores:     rs.room.Scores(),
			Statuses:   statusStrings(rs.room.Statuses()),
		},
	})

	e.metrics.RoundsPlayed.Inc()

	if e.matchOverLocked(rs) {
		e.finishMatchLocked(rs)
		return
	}

	e.startRoundLocked(rs)
}

// matchOverLocked applies the terminal condition: at most one survivor
// ends a multiplayer match; a solo match runs until its only player is
// eliminated.
func (e *Engine) matchOverLocked(rs *roomState) bool {
	survivors := len(rs.room.ActivePlayers())
	if len(rs.room.Players) <= 1 {
		return survivors == 0
	}
	return survivors <= 1
}

func (e *Engine) finishMatchLocked(rs *roomState) {
	code := rs.room.Code
	rounds := 0
	if rs.room.Round != nil {
		rounds = rs.room.Round.Number
	}

	rs.phase = phaseFinished
	rs.room.Status = domain.RoomFinished

	winner := e.matchWinnerLocked(rs)

	var winnerRef *ws.PlayerRefPayload
	if winner != nil {
		winnerRef = &ws.PlayerRefPayload{PlayerID: winner.ID, Name: winner.Name}
	}

	finals := rs.room.FinalScores()
	payloadScores := make([]ws.FinalScorePayload, 0, len(finals))
	for _, f := range finals {
		payloadScores = append(payloadScores, ws.FinalScorePayload{PlayerID: f.PlayerID, Name: f.Name, Score: f.Score})
	}

	e.gw.Publish(code, &ws.Message{
		Type:   ws.MatchFinished,
		RoomID: code,
		Data:   ws.MatchFinishedPayload{Winner: winnerRef, FinalScores: payloadScores},
	})

	e.metrics.MatchesFinished.Inc()
	e.sink.MatchFinished(domain.NewMatchRecord(rs.room, winner, rounds))

	e.logger.Info(logging.Game, logging.RoundFlow, "match finished", map[logging.ExtraKey]any{
		logging.RoomCode:    code,
		logging.RoundNumber: rounds,
	})
}

// matchWinnerLocked is the last survivor, or in solo play the player
// themself (their score counts the rounds they survived).
func (e *Engine) matchWinnerLocked(rs *roomState) *domain.Player {
	if len(rs.room.Players) == 1 {
		return rs.room.Players[0]
	}
	if survivors := rs.room.ActivePlayers(); len(survivors) == 1 {
		return survivors[0]
	}
	return nil
}

// ---------- restart ----------

// Restart rewinds a finished match to the lobby without destroying the
// room or its membership.
func (e *Engine) Restart(code, playerID string) error {
	rs, err := e.store.get(code)
	if err != nil {
		return err
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	player := rs.room.Player(playerID)
	if player == nil {
		return domain.ErrPlayerNotInRoom
	}
	if !player.IsHost {
		return domain.ErrNotHost
	}

	if err := rs.room.Restart(); err != nil {
		return err
	}

	rs.phase = phaseIdle
	rs.stopDeadline()

	e.gw.Publish(code, ws.NewGameRestarted(code))

	e.logger.Info(logging.Game, logging.RoomLifecycle, "game restarted", map[logging.ExtraKey]any{
		logging.RoomCode: code,
	})

	return nil
}

// ---------- leaving ----------

// Leave removes a player on their own request.
func (e *Engine) Leave(code, playerID string) {
	rs, err := e.store.get(code)
	if err != nil {
		return
	}

	rs.mu.Lock()
	e.removeSeatLocked(rs, playerID)
	rs.mu.Unlock()
}

// removeSeatLocked is the single path that reclaims a seat, used by
// explicit leave and by grace-window expiry. It discards the seat's
// round bookkeeping, transfers the host flag if needed, deletes the
// room when it empties, and re-checks the early-exit condition for a
// round that may now be complete.
func (e *Engine) removeSeatLocked(rs *roomState, playerID string) {
	code := rs.room.Code

	if t, ok := rs.disconnects[playerID]; ok {
		t.cancel()
		delete(rs.disconnects, playerID)
	}
	if _, bound := rs.clients[playerID]; bound {
		delete(rs.clients, playerID)
		e.metrics.PlayersConnected.Dec()
	}
	rs.markConnectivity(e.now())

	removed, empty := rs.room.RemovePlayer(playerID)
	if removed == nil {
		return
	}

	if rs.phase == phaseCollecting && rs.room.Round != nil {
		rs.room.Round.Discard(playerID)
	}

	if empty {
		rs.cancelTimers()
		e.store.remove(code)
		e.gw.Publish(code, ws.NewRoomClosed(code))
		e.sink.RoomClosed(code)

		e.logger.Info(logging.Game, logging.RoomLifecycle, "room closed", map[logging.ExtraKey]any{
			logging.RoomCode: code,
		})
		return
	}

	e.gw.Publish(code, ws.NewPlayerLeft(code, removed.ID, removed.Name))

	if rs.phase == phaseCollecting && e.allSubmittedLocked(rs) {
		rs.stopDeadline()
		e.resolveRoundLocked(rs)
	}
}

// ---------- helpers ----------

func (e *Engine) sendError(code, playerID string, err error) {
	e.gw.SendTo(code, playerID, ws.NewError(code, errorCode(err), err.Error()))
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return "ROOM_NOT_FOUND"
	case errors.Is(err, domain.ErrRoomFull):
		return "ROOM_FULL"
	case errors.Is(err, domain.ErrGameInProgress):
		return "GAME_IN_PROGRESS"
	case errors.Is(err, domain.ErrNotHost):
		return "NOT_HOST"
	case errors.Is(err, domain.ErrAlreadyStarted):
		return "ALREADY_STARTED"
	case errors.Is(err, domain.ErrPlayerNotInRoom):
		return "PLAYER_NOT_IN_ROOM"
	case errors.Is(err, domain.ErrMatchNotOver):
		return "MATCH_NOT_OVER"
	default:
		return "INTERNAL"
	}
}

func sequenceStrings(seq []domain.Color) []string {
	out := make([]string, len(seq))
	for i, c := range seq {
		out[i] = string(c)
	}
	return out
}

func statusStrings(in map[string]domain.PlayerStatus) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = string(v)
	}
	return out
}

func eliminationPayloads(in []domain.Elimination) []ws.EliminationPayload {
	out := make([]ws.EliminationPayload, 0, len(in))
	for _, el := range in {
		out = append(out, ws.EliminationPayload{PlayerID: el.PlayerID, Name: el.Name, Reason: string(el.Reason)})
	}
	return out
}

func playerView(p *domain.Player, connected bool) ws.PlayerView {
	return ws.PlayerView{
		ID:        p.ID,
		Name:      p.Name,
		AvatarID:  p.Avatar,
		IsHost:    p.IsHost,
		Score:     p.Score,
		Status:    string(p.Status),
		Connected: connected,
	}
}

// snapshotLocked renders the full room/round state. Remaining time is
// recomputed from the absolute deadline on every call so client clock
// drift never accumulates.
func (e *Engine) snapshotLocked(rs *roomState) ws.SnapshotPayload {
	room := rs.room

	players := make([]ws.PlayerView, 0, len(room.Players))
	for _, p := range room.Players {
		_, connected := rs.clients[p.ID]
		players = append(players, playerView(p, connected))
	}

	snap := ws.SnapshotPayload{
		Code:    room.Code,
		Status:  string(room.Status),
		Players: players,
	}

	if room.Round != nil {
		snap.Round = room.Round.Number
		snap.Sequence = sequenceStrings(room.Round.Sequence)
		snap.RemainingMs = rs.remaining(e.now()).Milliseconds()
		snap.DurationMs = room.Round.Duration.Milliseconds()
	}

	return snap
}
