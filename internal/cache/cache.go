package cache

import (
	"context"

	"gymtrack/internal/domain"
)

// WorkoutListCache is a best-effort view cache for a user's workout list.
// Misses and backend errors both read as "not cached"; writes that fail are
// dropped. Correctness comes from invalidate-on-write in the service layer,
// never from TTLs alone.
type WorkoutListCache interface {
	GetList(ctx context.Context, externalID string) ([]domain.Workout, bool)
	SetList(ctx context.Context, externalID string, workouts []domain.Workout)
	InvalidateList(ctx context.Context, externalID string)
}

// Noop satisfies WorkoutListCache when no cache backend is configured.
type Noop struct{}

func (Noop) GetList(context.Context, string) ([]domain.Workout, bool) { return nil, false }
func (Noop) SetList(context.Context, string, []domain.Workout)        {}
func (Noop) InvalidateList(context.Context, string)                   {}
