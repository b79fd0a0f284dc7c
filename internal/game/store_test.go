package game

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunahex/mimic/internal/domain"
	"github.com/lunahex/mimic/internal/infrastructure/metrics"
	"github.com/lunahex/mimic/internal/infrastructure/ws"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(nopLogger{}, metrics.New(prometheus.NewRegistry()))
}

func storeHost(t *testing.T) *domain.Player {
	t.Helper()
	p, err := domain.NewPlayer("host", 0)
	require.NoError(t, err)
	return p
}

func TestStore_CreateAndGet(t *testing.T) {
	s := newTestStore(t)

	rs, err := s.create(storeHost(t))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	got, err := s.get(rs.room.Code)
	require.NoError(t, err)
	assert.Same(t, rs, got)

	_, err = s.get("ZZZZZZ")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore(t)

	rs, err := s.create(storeHost(t))
	require.NoError(t, err)

	s.remove(rs.room.Code)
	assert.Equal(t, 0, s.Len())

	_, err = s.get(rs.room.Code)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestCleanupDeadRooms_ReapsOnlyExpiredEmptyRooms(t *testing.T) {
	s := newTestStore(t)

	now := time.Now()
	s.now = func() time.Time { return now }

	stale, err := s.create(storeHost(t))
	require.NoError(t, err)

	occupied, err := s.create(storeHost(t))
	require.NoError(t, err)
	occupied.mu.Lock()
	occupied.clients["p1"] = &ws.Client{PlayerID: "p1", RoomID: occupied.room.Code}
	occupied.markConnectivity(now)
	occupied.mu.Unlock()

	fresh, err := s.create(storeHost(t))
	require.NoError(t, err)
	fresh.mu.Lock()
	fresh.emptySince = now
	fresh.mu.Unlock()

	// Make only the first room pass the TTL.
	stale.mu.Lock()
	stale.emptySince = now.Add(-3 * time.Minute)
	stale.mu.Unlock()

	reaped := s.CleanupDeadRooms(2 * time.Minute)

	assert.Equal(t, 1, reaped)
	assert.Equal(t, 2, s.Len())

	_, err = s.get(stale.room.Code)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	_, err = s.get(occupied.room.Code)
	assert.NoError(t, err)
	_, err = s.get(fresh.room.Code)
	assert.NoError(t, err)
}

func TestCleanupDeadRooms_NothingToReap(t *testing.T) {
	s := newTestStore(t)

	_, err := s.create(storeHost(t))
	require.NoError(t, err)

	assert.Zero(t, s.CleanupDeadRooms(time.Hour))
	assert.Equal(t, 1, s.Len())
}
