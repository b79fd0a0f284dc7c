package game

import (
	"context"
	"sync"
	"time"

	"github.com/lunahex/mimic/internal/domain"
	"github.com/lunahex/mimic/internal/infrastructure/logging"
	"github.com/lunahex/mimic/internal/infrastructure/metrics"
)

// codeAttempts bounds room-code generation retries. The code space is
// 32^6 so collisions are practically unreachable; hitting the bound
// means crypto/rand is broken, which is fatal for the request.
const codeAttempts = 16

// Store owns the code -> room map, the only structure shared across
// rooms. Its lock covers the map alone; per-room state is guarded by
// each roomState's own mutex.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*roomState

	logger  logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewStore(logger logging.Logger, m *metrics.Metrics) *Store {
	return &Store{
		rooms:   make(map[string]*roomState),
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// create builds a room around the host, retrying code generation on
// the rare collision.
func (s *Store) create(host *domain.Player) (*roomState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for range codeAttempts {
		room, err := domain.NewRoom(host)
		if err != nil {
			return nil, err
		}
		if _, taken := s.rooms[room.Code]; taken {
			continue
		}

		rs := newRoomState(room, s.now())
		s.rooms[room.Code] = rs
		s.metrics.RoomsActive.Set(float64(len(s.rooms)))

		return rs, nil
	}

	return nil, domain.ErrCodeSpaceExhausted
}

func (s *Store) get(code string) (*roomState, error) {
	s.mu.RLock()
	rs, ok := s.rooms[code]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return rs, nil
}

// remove drops a room from the map. The caller is responsible for
// cancelling the room's timers under its own lock.
func (s *Store) remove(code string) {
	s.mu.Lock()
	delete(s.rooms, code)
	s.metrics.RoomsActive.Set(float64(len(s.rooms)))
	s.mu.Unlock()
}

// CleanupDeadRooms deletes rooms that have had zero connected players
// for longer than ttl. This covers crash paths that never produced a
// disconnect event for anyone.
func (s *Store) CleanupDeadRooms(ttl time.Duration) int {
	s.mu.RLock()
	candidates := make([]*roomState, 0, len(s.rooms))
	for _, rs := range s.rooms {
		candidates = append(candidates, rs)
	}
	s.mu.RUnlock()

	now := s.now()
	reaped := 0

	for _, rs := range candidates {
		rs.mu.Lock()
		dead := rs.connectedCount() == 0 &&
			!rs.emptySince.IsZero() &&
			now.Sub(rs.emptySince) > ttl
		code := rs.room.Code
		if dead {
			rs.cancelTimers()
		}
		rs.mu.Unlock()

		if dead {
			s.remove(code)
			s.metrics.RoomsReaped.Inc()
			reaped++

			s.logger.Info(logging.Game, logging.RoomLifecycle, "reaped dead room", map[logging.ExtraKey]any{
				logging.RoomCode: code,
			})
		}
	}

	return reaped
}

// Run drives the periodic dead-room scan until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.CleanupDeadRooms(ttl)
		case <-ctx.Done():
			return
		}
	}
}

// Len reports how many rooms are live.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
