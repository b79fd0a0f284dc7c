package game

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lunahex/mimic/internal/domain"
	"github.com/lunahex/mimic/internal/infrastructure/configs"
	"github.com/lunahex/mimic/internal/infrastructure/logging"
	"github.com/lunahex/mimic/internal/infrastructure/metrics"
	"github.com/lunahex/mimic/internal/infrastructure/ws"
)

// --- logging.Logger ---

type nopLogger struct{}

func (nopLogger) Init() {}

func (nopLogger) Debug(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Debugf(string, ...any)                                                         {}
func (nopLogger) Info(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any)  {}
func (nopLogger) Infof(string, ...any)                                                          {}
func (nopLogger) Warn(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any)  {}
func (nopLogger) Warnf(string, ...any)                                                          {}
func (nopLogger) Error(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Errorf(string, ...any)                                                         {}
func (nopLogger) Fatal(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Fatalf(string, ...any)                                                         {}

// --- Scheduler ---

// manualTimer is a pending callback the test fires by hand.
type manualTimer struct {
	d       time.Duration
	f       func()
	fired   bool
	stopped bool
}

func (t *manualTimer) Stop() bool {
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// manualScheduler records every armed timer in order. Nothing fires
// until the test says so.
type manualScheduler struct {
	timers []*manualTimer
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &manualTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// fireNext fires the oldest still-pending timer. Returns false when
// nothing is pending.
func (s *manualScheduler) fireNext() bool {
	for _, t := range s.timers {
		if t.fired || t.stopped {
			continue
		}
		t.fired = true
		t.f()
		return true
	}
	return false
}

// fireDuration fires the oldest pending timer armed with exactly d,
// for tests where several windows of different lengths are open.
func (s *manualScheduler) fireDuration(d time.Duration) bool {
	for _, t := range s.timers {
		if t.fired || t.stopped || t.d != d {
			continue
		}
		t.fired = true
		t.f()
		return true
	}
	return false
}

// pending counts timers that are armed and not yet fired or stopped.
func (s *manualScheduler) pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

// --- Gateway ---

type sentMessage struct {
	playerID string
	msg      *ws.Message
}

// recordingGateway captures everything the engine emits.
type recordingGateway struct {
	mu        sync.Mutex
	broadcast []*ws.Message
	direct    []sentMessage
}

func (g *recordingGateway) Publish(roomID string, msg *ws.Message) {
	g.mu.Lock()
	g.broadcast = append(g.broadcast, msg)
	g.mu.Unlock()
}

func (g *recordingGateway) SendTo(roomID, playerID string, msg *ws.Message) {
	g.mu.Lock()
	g.direct = append(g.direct, sentMessage{playerID: playerID, msg: msg})
	g.mu.Unlock()
}

// types lists broadcast event names in emission order.
func (g *recordingGateway) types() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]string, 0, len(g.broadcast))
	for _, m := range g.broadcast {
		out = append(out, m.Type)
	}
	return out
}

// lastOfType returns the most recent broadcast of the given type.
func (g *recordingGateway) lastOfType(eventType string) *ws.Message {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := len(g.broadcast) - 1; i >= 0; i-- {
		if g.broadcast[i].Type == eventType {
			return g.broadcast[i]
		}
	}
	return nil
}

func (g *recordingGateway) countOfType(eventType string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	for _, m := range g.broadcast {
		if m.Type == eventType {
			n++
		}
	}
	return n
}

// directTo returns event names delivered to one player, in order.
func (g *recordingGateway) directTo(playerID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []string
	for _, s := range g.direct {
		if s.playerID == playerID {
			out = append(out, s.msg.Type)
		}
	}
	return out
}

func (g *recordingGateway) reset() {
	g.mu.Lock()
	g.broadcast = nil
	g.direct = nil
	g.mu.Unlock()
}

// --- EventSink ---

type recordingSink struct {
	created  []string
	joined   []string
	closed   []string
	finished []*domain.MatchRecord
}

func (s *recordingSink) RoomCreated(code, hostID string) {
	s.created = append(s.created, code)
}

func (s *recordingSink) PlayerJoined(code, playerID string) {
	s.joined = append(s.joined, playerID)
}

func (s *recordingSink) RoomClosed(code string) {
	s.closed = append(s.closed, code)
}

func (s *recordingSink) MatchFinished(rec *domain.MatchRecord) {
	s.finished = append(s.finished, rec)
}

// --- fixture ---

type fixture struct {
	engine *Engine
	store  *Store
	gw     *recordingGateway
	sched  *manualScheduler
	sink   *recordingSink
	cfg    configs.GameConfig
}

func defaultTestConfig() configs.GameConfig {
	return configs.GameConfig{
		CountdownFrom:    3,
		InputTimeoutBase: 30 * time.Second,
		InputTimeoutStep: time.Second,
		InputTimeoutMin:  10 * time.Second,
		DisconnectBuffer: 5 * time.Second,
		DisconnectGrace:  60 * time.Second,
		DeadRoomTTL:      2 * time.Minute,
		CleanupInterval:  30 * time.Second,
	}
}

func newFixture() *fixture {
	m := metrics.New(prometheus.NewRegistry())
	store := NewStore(nopLogger{}, m)
	gw := &recordingGateway{}
	sink := &recordingSink{}
	sched := &manualScheduler{}

	cfg := defaultTestConfig()

	eng := NewEngine(store, gw, cfg, nopLogger{}, m, sink)
	eng.sched = sched
	eng.pick = func(int) int { return 0 } // sequence is always all red

	return &fixture{
		engine: eng,
		store:  store,
		gw:     gw,
		sched:  sched,
		sink:   sink,
		cfg:    cfg,
	}
}
