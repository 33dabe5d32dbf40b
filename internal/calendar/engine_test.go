package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock pins "today" to 2025-03-15 local-less UTC.
func fixedClock() time.Time {
	return time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)
}

// loadMonth drives an engine to Ready on (year, month) with the given
// persisted days, returning the outstanding yearly-total token.
func loadMonth(t *testing.T, e *Engine, year, month int, days []int) Token {
	t.Helper()
	effects := e.Navigate(year, month)
	require.Len(t, effects, 2)
	fetch, ok := effects[0].(FetchDays)
	require.True(t, ok)
	total, ok := effects[1].(FetchYearlyTotal)
	require.True(t, ok)

	require.Empty(t, e.ApplyFetch(fetch.Token, days, nil))
	require.Equal(t, Ready, e.State())
	return total.Token
}

func singlePersist(t *testing.T, effects []Effect) PersistDays {
	t.Helper()
	require.Len(t, effects, 1)
	persist, ok := effects[0].(PersistDays)
	require.True(t, ok)
	return persist
}

func TestEngine_LoadingIgnoresClicks(t *testing.T) {
	e := NewEngine("user-1", fixedClock)
	e.Navigate(2025, 3)
	require.Equal(t, Loading, e.State())

	assert.Empty(t, e.ClickDay(10))
	assert.Empty(t, e.Days())
	assert.Equal(t, Loading, e.State())
}

func TestEngine_ToggleMarksDirtyAndSchedulesOneSave(t *testing.T) {
	e := NewEngine("user-1", fixedClock)
	loadMonth(t, e, 2025, 3, []int{1})

	persist := singlePersist(t, e.ClickDay(10))
	assert.Equal(t, Dirty, e.State())
	assert.Equal(t, []int{1, 10}, persist.Days)
	assert.Equal(t, []int{1, 10}, e.Days())

	// The save carries the context it was scheduled under.
	assert.Equal(t, "user-1", persist.Token.UserID)
	assert.Equal(t, 2025, persist.Token.Year)
	assert.Equal(t, 3, persist.Token.Month)
}

func TestEngine_PersistSuccessReturnsToReadyAndRefreshesTotal(t *testing.T) {
	e := NewEngine("user-1", fixedClock)
	loadMonth(t, e, 2025, 3, nil)

	persist := singlePersist(t, e.ClickDay(10))
	effects := e.ApplyPersist(persist.Token, nil)

	require.Equal(t, Ready, e.State())
	require.Len(t, effects, 1)
	total, ok := effects[0].(FetchYearlyTotal)
	require.True(t, ok)

	require.Empty(t, e.ApplyYearlyTotal(total.Token, 7, nil))
	assert.Equal(t, 7, e.YearlyTotal())
}

func TestEngine_ToggleRoundTripRestoresOriginalSet(t *testing.T) {
	e := NewEngine("user-1", fixedClock)
	loadMonth(t, e, 2025, 3, []int{5})

	on := singlePersist(t, e.ClickDay(10))
	e.ApplyPersist(on.Token, nil)
	assert.Equal(t, []int{5, 10}, e.Days())

	off := singlePersist(t, e.ClickDay(10))
	e.ApplyPersist(off.Token, nil)

	assert.Equal(t, []int{5}, e.Days(), "on-then-off must restore the set")
	assert.Equal(t, Ready, e.State())
}

func TestEngine_FutureDaysAreRejected(t *testing.T) {
	e := NewEngine("user-1", fixedClock) // today is 2025-03-15
	loadMonth(t, e, 2025, 3, []int{1})

	assert.Empty(t, e.ClickDay(16), "tomorrow")
	assert.Empty(t, e.ClickDay(31), "end of current month")
	assert.Equal(t, []int{1}, e.Days())
	assert.Equal(t, Ready, e.State(), "rejected clicks cause no transition")

	// Today itself is earned.
	assert.NotEmpty(t, e.ClickDay(15))

	// A later month is entirely in the future.
	loadMonth(t, e, 2025, 4, nil)
	assert.Empty(t, e.ClickDay(1))

	// A past month is freely editable.
	loadMonth(t, e, 2025, 2, nil)
	assert.NotEmpty(t, e.ClickDay(28))
}

func TestEngine_OutOfMonthDaysAreRejected(t *testing.T) {
	e := NewEngine("user-1", fixedClock)
	loadMonth(t, e, 2025, 2, nil)

	assert.Empty(t, e.ClickDay(0))
	assert.Empty(t, e.ClickDay(29), "2025 is not a leap year")
	assert.Empty(t, e.ClickDay(-3))
}

func TestEngine_ToggleDuringSaveSupersedes(t *testing.T) {
	e := NewEngine("user-1", fixedClock)
	loadMonth(t, e, 2025, 3, nil)

	first := singlePersist(t, e.ClickDay(10))

	// Second toggle while the save is in flight: no second save yet.
	assert.Empty(t, e.ClickDay(11))
	assert.Equal(t, Dirty, e.State())

	// Completing the first save immediately schedules the superseding one
	// with the newer, fuller set; the engine stays Dirty until it lands.
	second := singlePersist(t, e.ApplyPersist(first.Token, nil))
	assert.Equal(t, Dirty, e.State())
	assert.Equal(t, []int{10, 11}, second.Days)

	effects := e.ApplyPersist(second.Token, nil)
	assert.Equal(t, Ready, e.State())
	require.Len(t, effects, 1)
	_, ok := effects[0].(FetchYearlyTotal)
	assert.True(t, ok)
}

func TestEngine_StalePersistFromPreviousMonthIsDiscarded(t *testing.T) {
	e := NewEngine("user-1", fixedClock)
	loadMonth(t, e, 2025, 3, nil)
	persist := singlePersist(t, e.ClickDay(10))

	// Navigate away before the save completes.
	effects := e.Navigate(2025, 2)
	require.Len(t, effects, 2)
	fetch := effects[0].(FetchDays)
	e.ApplyFetch(fetch.Token, []int{7}, nil)

	// The March save completes now. Its token no longer matches; nothing
	// may change and no total refresh may be scheduled for March.
	assert.Empty(t, e.ApplyPersist(persist.Token, nil))
	assert.Equal(t, Ready, e.State())
	assert.Equal(t, []int{7}, e.Days())
	assert.Equal(t, 2, e.Month())
}

func TestEngine_StaleFetchIsDiscarded(t *testing.T) {
	e := NewEngine("user-1", fixedClock)
	effects := e.Navigate(2025, 3)
	marchFetch := effects[0].(FetchDays)

	effects = e.Navigate(2025, 2)
	febFetch := effects[0].(FetchDays)

	// The March fetch lands late; it must not populate February's view.
	assert.Empty(t, e.ApplyFetch(marchFetch.Token, []int{25}, nil))
	assert.Equal(t, Loading, e.State())

	e.ApplyFetch(febFetch.Token, []int{3}, nil)
	assert.Equal(t, []int{3}, e.Days())
}

func TestEngine_StaleYearlyTotalIsDiscarded(t *testing.T) {
	e := NewEngine("user-1", fixedClock)
	marchTotal := loadMonth(t, e, 2025, 3, nil)

	loadMonth(t, e, 2024, 12, nil)
	assert.Empty(t, e.ApplyYearlyTotal(marchTotal, 99, nil))
	assert.Zero(t, e.YearlyTotal(), "a stale total belongs to another year")
}

func TestEngine_FailedPersistStaysDirtyAndRetries(t *testing.T) {
	e := NewEngine("user-1", fixedClock)
	loadMonth(t, e, 2025, 3, nil)

	persist := singlePersist(t, e.ClickDay(10))
	require.Empty(t, e.ApplyPersist(persist.Token, errors.New("store unreachable")))

	assert.Equal(t, Dirty, e.State())
	assert.Error(t, e.Err())
	assert.Equal(t, []int{10}, e.Days(), "local edit survives the failure")

	retry := singlePersist(t, e.Retry())
	assert.Equal(t, []int{10}, retry.Days)

	// Retry while a save is in flight is a no-op.
	assert.Empty(t, e.Retry())

	require.Len(t, e.ApplyPersist(retry.Token, nil), 1)
	assert.Equal(t, Ready, e.State())
	assert.NoError(t, e.Err())
}

func TestEngine_FailedFetchRemainsLoading(t *testing.T) {
	e := NewEngine("user-1", fixedClock)
	effects := e.Navigate(2025, 3)
	fetch := effects[0].(FetchDays)

	require.Empty(t, e.ApplyFetch(fetch.Token, nil, errors.New("timeout")))
	assert.Equal(t, Loading, e.State())
	assert.Error(t, e.Err())

	// A fresh navigation recovers.
	effects = e.Navigate(2025, 3)
	fetch = effects[0].(FetchDays)
	e.ApplyFetch(fetch.Token, []int{1}, nil)
	assert.Equal(t, Ready, e.State())
	assert.NoError(t, e.Err())
}

func TestEngine_MonthlyCountTracksSet(t *testing.T) {
	e := NewEngine("user-1", fixedClock)
	loadMonth(t, e, 2025, 3, []int{1, 2, 3})
	assert.Equal(t, 3, e.MonthlyCount())

	persist := singlePersist(t, e.ClickDay(2))
	assert.Equal(t, 2, e.MonthlyCount())
	e.ApplyPersist(persist.Token, nil)
	assert.Equal(t, 2, e.MonthlyCount())
}
