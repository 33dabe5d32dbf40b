package calendar

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory ProgressService for driving the runner.
// Saves can be gated so tests can hold a persist in flight.
type memoryStore struct {
	mu   sync.Mutex
	data map[[3]int][]int // (year, month) -> days; index 0 unused

	gate chan struct{} // when non-nil, SaveDays blocks until it closes
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[[3]int][]int{}}
}

func (s *memoryStore) key(year, month int) [3]int { return [3]int{0, year, month} }

func (s *memoryStore) GetDays(_ context.Context, _ string, year, month int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int{}, s.data[s.key(year, month)]...), nil
}

func (s *memoryStore) SaveDays(_ context.Context, _ string, year, month int, days []int) error {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[s.key(year, month)] = append([]int{}, days...)
	return nil
}

func (s *memoryStore) YearlyTotal(_ context.Context, _ string, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for k, days := range s.data {
		if k[1] == year {
			total += len(days)
		}
	}
	return total, nil
}

func (s *memoryStore) holdSaves() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
	return s.gate
}

func (s *memoryStore) releaseSaves(gate chan struct{}) {
	s.mu.Lock()
	s.gate = nil
	s.mu.Unlock()
	close(gate)
}

func waitForState(t *testing.T, r *Runner, want State) Snapshot {
	t.Helper()
	var snap Snapshot
	require.Eventually(t, func() bool {
		snap = r.Snapshot()
		return snap.State == want
	}, 2*time.Second, 5*time.Millisecond, "runner never reached %v", want)
	return snap
}

func TestRunner_LoadThenToggleThenPersist(t *testing.T) {
	store := newMemoryStore()
	store.data[store.key(2025, 3)] = []int{1}
	store.data[store.key(2025, 1)] = []int{2, 3}

	r := NewRunner("user-1", store, fixedClock)
	defer r.Close()
	ctx := context.Background()

	r.Navigate(ctx, 2025, 3)
	snap := waitForState(t, r, Ready)
	assert.Equal(t, []int{1}, snap.Days)

	r.ClickDay(ctx, 10)
	require.Eventually(t, func() bool {
		snap = r.Snapshot()
		return snap.State == Ready && snap.YearlyTotal == 4
	}, 2*time.Second, 5*time.Millisecond)

	days, err := store.GetDays(ctx, "user-1", 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 10}, days)
}

func TestRunner_NavigationDropsStalePersist(t *testing.T) {
	store := newMemoryStore()
	store.data[store.key(2025, 2)] = []int{7}

	r := NewRunner("user-1", store, fixedClock)
	defer r.Close()
	ctx := context.Background()

	r.Navigate(ctx, 2025, 3)
	waitForState(t, r, Ready)

	// Hold the save in flight, then navigate away while it is stuck.
	gate := store.holdSaves()
	r.ClickDay(ctx, 10)
	waitForState(t, r, Dirty)

	r.Navigate(ctx, 2025, 2)
	snap := waitForState(t, r, Ready)
	assert.Equal(t, []int{7}, snap.Days)
	assert.Equal(t, 2, snap.Month)

	// The March save now completes; its completion must be discarded and
	// February's view left alone.
	store.releaseSaves(gate)
	time.Sleep(50 * time.Millisecond)
	snap = r.Snapshot()
	assert.Equal(t, Ready, snap.State)
	assert.Equal(t, []int{7}, snap.Days)
}

func TestRunner_RapidTogglesLastWriteWins(t *testing.T) {
	store := newMemoryStore()

	r := NewRunner("user-1", store, fixedClock)
	defer r.Close()
	ctx := context.Background()

	r.Navigate(ctx, 2025, 3)
	waitForState(t, r, Ready)

	gate := store.holdSaves()
	r.ClickDay(ctx, 1)
	r.ClickDay(ctx, 2)
	r.ClickDay(ctx, 3)
	waitForState(t, r, Dirty)
	store.releaseSaves(gate)

	require.Eventually(t, func() bool {
		return r.Snapshot().State == Ready
	}, 2*time.Second, 5*time.Millisecond)

	days, err := store.GetDays(ctx, "user-1", 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, days, "the superseding save carries the final set")
}
