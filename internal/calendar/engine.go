// Package calendar implements the month-view reconciliation engine: a
// state machine that tracks local day toggles, persists them as whole
// day-sets, and keeps the derived yearly total fresh.
package calendar

import (
	"sort"
	"time"
)

// State is the interaction state of one displayed month.
type State int

const (
	// Loading means the month's day-set fetch is in flight; day clicks
	// are ignored until it lands.
	Loading State = iota
	// Ready means the loaded set matches what is persisted.
	Ready
	// Dirty means at least one local toggle has not been confirmed as
	// persisted yet.
	Dirty
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Dirty:
		return "dirty"
	default:
		return "unknown"
	}
}

// Token identifies the (user, year, month) session context an effect was
// scheduled under. Completions carry it back; the engine discards any
// completion whose token no longer matches the displayed context, which is
// what keeps a slow save from a previous month from corrupting the current
// one.
type Token struct {
	UserID string
	Year   int
	Month  int
	Epoch  uint64
}

// Effect is an asynchronous operation the engine wants performed. The
// engine itself never blocks; a runner executes effects and feeds the
// results back through the Apply methods.
type Effect interface{ effect() }

// FetchDays asks for the persisted day-set of the token's month.
type FetchDays struct{ Token Token }

// PersistDays asks for the token's month to be replaced with Days —
// whole-set semantics, not a delta.
type PersistDays struct {
	Token Token
	Days  []int
}

// FetchYearlyTotal asks for the recomputed total of the token's year.
type FetchYearlyTotal struct{ Token Token }

func (FetchDays) effect()        {}
func (PersistDays) effect()      {}
func (FetchYearlyTotal) effect() {}

// Engine is the state machine for one user's calendar session. It is not
// safe for concurrent use; Runner serializes access on one goroutine, the
// same single-threaded model the original UI event loop had.
type Engine struct {
	userID string
	now    func() time.Time

	year  int
	month int
	epoch uint64

	state       State
	days        map[int]struct{}
	yearlyTotal int

	saving      bool // a PersistDays effect is outstanding
	pendingSave bool // a toggle arrived while saving; supersede on completion

	lastErr error
}

// NewEngine creates an engine for the user. The clock is injected so the
// future-day policy is testable; nil means time.Now.
func NewEngine(userID string, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		userID: userID,
		now:    now,
		state:  Loading,
		days:   map[int]struct{}{},
	}
}

// Navigate switches the displayed month. All local state is discarded, the
// epoch is bumped so in-flight completions from the old month are
// discarded on arrival, and fresh fetches are scheduled.
func (e *Engine) Navigate(year, month int) []Effect {
	e.epoch++
	e.year = year
	e.month = month
	e.state = Loading
	e.days = map[int]struct{}{}
	e.saving = false
	e.pendingSave = false
	e.lastErr = nil

	t := e.token()
	return []Effect{FetchDays{Token: t}, FetchYearlyTotal{Token: t}}
}

// ClickDay toggles a day's membership in the local set. Clicks are ignored
// while the month is still loading, and days later than today never change
// state: attendance can not be marked before it is earned.
func (e *Engine) ClickDay(day int) []Effect {
	if e.state == Loading {
		return nil
	}
	if day < 1 || day > daysInMonth(e.year, e.month) {
		return nil
	}
	if e.isFuture(day) {
		return nil
	}

	if _, ok := e.days[day]; ok {
		delete(e.days, day)
	} else {
		e.days[day] = struct{}{}
	}
	e.state = Dirty

	return e.scheduleSave()
}

// Retry re-schedules the persist after a failed save. A no-op unless the
// engine is Dirty with no save outstanding.
func (e *Engine) Retry() []Effect {
	if e.state != Dirty || e.saving {
		return nil
	}
	return e.scheduleSave()
}

// ApplyFetch delivers the result of a FetchDays effect. Stale tokens are
// discarded, not applied.
func (e *Engine) ApplyFetch(t Token, days []int, err error) []Effect {
	if t != e.token() {
		return nil
	}
	if err != nil {
		e.lastErr = err
		return nil // remains Loading; caller may Navigate again
	}

	e.days = make(map[int]struct{}, len(days))
	for _, d := range days {
		e.days[d] = struct{}{}
	}
	e.state = Ready
	e.lastErr = nil
	return nil
}

// ApplyPersist delivers the result of a PersistDays effect. On success the
// queued save (if a toggle happened mid-flight) supersedes immediately;
// otherwise the month is clean again and the yearly total is refreshed.
// On failure the month stays Dirty for Retry.
func (e *Engine) ApplyPersist(t Token, err error) []Effect {
	if t != e.token() {
		return nil
	}
	e.saving = false

	if err != nil {
		e.lastErr = err
		e.state = Dirty
		return nil
	}
	e.lastErr = nil

	if e.pendingSave {
		e.pendingSave = false
		return e.scheduleSave()
	}

	e.state = Ready
	return []Effect{FetchYearlyTotal{Token: e.token()}}
}

// ApplyYearlyTotal delivers the result of a FetchYearlyTotal effect.
func (e *Engine) ApplyYearlyTotal(t Token, total int, err error) []Effect {
	if t != e.token() {
		return nil
	}
	if err != nil {
		e.lastErr = err
		return nil
	}
	e.yearlyTotal = total
	return nil
}

// State reports the interaction state of the displayed month.
func (e *Engine) State() State { return e.state }

// Year and Month report the displayed month.
func (e *Engine) Year() int  { return e.year }
func (e *Engine) Month() int { return e.month }

// Days returns the local day-set, sorted ascending.
func (e *Engine) Days() []int {
	out := make([]int, 0, len(e.days))
	for d := range e.days {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// MonthlyCount is the number of marked days in the displayed month.
func (e *Engine) MonthlyCount() int { return len(e.days) }

// YearlyTotal is the last refreshed total for the displayed year.
func (e *Engine) YearlyTotal() int { return e.yearlyTotal }

// Err returns the most recent fetch or persist error, if any.
func (e *Engine) Err() error { return e.lastErr }

// scheduleSave emits exactly one PersistDays for the current set, or marks
// the save as pending when one is already in flight — the next save then
// carries the newer set and last write wins at month granularity.
func (e *Engine) scheduleSave() []Effect {
	if e.saving {
		e.pendingSave = true
		return nil
	}
	e.saving = true
	return []Effect{PersistDays{Token: e.token(), Days: e.Days()}}
}

func (e *Engine) token() Token {
	return Token{UserID: e.userID, Year: e.year, Month: e.month, Epoch: e.epoch}
}

// isFuture reports whether the day is later than today in the clock's
// location. Today itself is clickable.
func (e *Engine) isFuture(day int) bool {
	now := e.now()
	clicked := time.Date(e.year, time.Month(e.month), day, 0, 0, 0, 0, now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return clicked.After(today)
}

func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
