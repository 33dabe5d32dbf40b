package calendar

import (
	"context"
	"time"

	"gymtrack/internal/service"
)

// Snapshot is a consistent read of the engine for rendering.
type Snapshot struct {
	State        State
	Year         int
	Month        int
	Days         []int
	MonthlyCount int
	YearlyTotal  int
	Err          error
}

// Runner drives an Engine against the progress store. All engine access
// happens on one event-loop goroutine; store calls run on their own
// goroutines and post completions back onto the loop, so a slow call never
// blocks interaction and a stale one is filtered by its token.
type Runner struct {
	engine *Engine
	store  service.ProgressService

	events chan func()
	done   chan struct{}
}

// NewRunner starts the event loop for one user session.
func NewRunner(userID string, store service.ProgressService, now func() time.Time) *Runner {
	r := &Runner{
		engine: NewEngine(userID, now),
		store:  store,
		events: make(chan func(), 64),
		done:   make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *Runner) loop() {
	defer close(r.done)
	for fn := range r.events {
		fn()
	}
}

// Close stops the event loop. Pending completions are dropped.
func (r *Runner) Close() {
	close(r.events)
	<-r.done
}

// Navigate switches the displayed month.
func (r *Runner) Navigate(ctx context.Context, year, month int) {
	r.post(func() { r.execute(ctx, r.engine.Navigate(year, month)) })
}

// ClickDay toggles a day in the displayed month.
func (r *Runner) ClickDay(ctx context.Context, day int) {
	r.post(func() { r.execute(ctx, r.engine.ClickDay(day)) })
}

// Retry re-attempts a failed persist.
func (r *Runner) Retry(ctx context.Context) {
	r.post(func() { r.execute(ctx, r.engine.Retry()) })
}

// Snapshot reads the current engine state from inside the loop.
func (r *Runner) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	r.post(func() {
		reply <- Snapshot{
			State:        r.engine.State(),
			Year:         r.engine.Year(),
			Month:        r.engine.Month(),
			Days:         r.engine.Days(),
			MonthlyCount: r.engine.MonthlyCount(),
			YearlyTotal:  r.engine.YearlyTotal(),
			Err:          r.engine.Err(),
		}
	})
	return <-reply
}

func (r *Runner) post(fn func()) {
	defer func() {
		// Posting after Close is a no-op rather than a panic.
		_ = recover()
	}()
	r.events <- fn
}

// execute dispatches effects onto worker goroutines. Each completion is
// posted back to the loop and re-applied through the engine, which checks
// the token before accepting it.
func (r *Runner) execute(ctx context.Context, effects []Effect) {
	for _, eff := range effects {
		switch eff := eff.(type) {
		case FetchDays:
			go func() {
				days, err := r.store.GetDays(ctx, eff.Token.UserID, eff.Token.Year, eff.Token.Month)
				r.post(func() { r.execute(ctx, r.engine.ApplyFetch(eff.Token, days, err)) })
			}()
		case PersistDays:
			go func() {
				err := r.store.SaveDays(ctx, eff.Token.UserID, eff.Token.Year, eff.Token.Month, eff.Days)
				r.post(func() { r.execute(ctx, r.engine.ApplyPersist(eff.Token, err)) })
			}()
		case FetchYearlyTotal:
			go func() {
				total, err := r.store.YearlyTotal(ctx, eff.Token.UserID, eff.Token.Year)
				r.post(func() { r.execute(ctx, r.engine.ApplyYearlyTotal(eff.Token, total, err)) })
			}()
		}
	}
}
