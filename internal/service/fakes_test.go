package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gymtrack/internal/domain"
	"gymtrack/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They mimic the mongo implementations closely
// enough for service behavior: same sentinel errors, same orderings, same
// upsert semantics.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User // keyed by external id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) addUser(externalID string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := &domain.User{
		ID:         primitive.NewObjectID(),
		ExternalID: externalID,
		Username:   strings.ToLower(externalID),
		Name:       externalID,
		Onboarded:  true,
		CreatedAt:  time.Now().UTC(),
	}
	r.users[externalID] = user
	return user
}

func (r *fakeUserRepo) Upsert(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ExternalID]
	if !ok {
		existing = &domain.User{
			ID:         primitive.NewObjectID(),
			ExternalID: user.ExternalID,
			CreatedAt:  time.Now().UTC(),
		}
		r.users[user.ExternalID] = existing
	}
	existing.Username = strings.ToLower(user.Username)
	existing.Name = user.Name
	existing.Bio = user.Bio
	existing.Image = user.Image
	existing.Onboarded = true
	existing.UpdatedAt = time.Now().UTC()
	copied := *existing
	return &copied, nil
}

func (r *fakeUserRepo) GetByExternalID(_ context.Context, externalID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[externalID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) ResolveObjectID(_ context.Context, externalID string) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[externalID]
	if !ok {
		return primitive.NilObjectID, repository.ErrNotFound
	}
	return user.ID, nil
}

func (r *fakeUserRepo) byObjectID(userID primitive.ObjectID) *domain.User {
	for _, u := range r.users {
		if u.ID == userID {
			return u
		}
	}
	return nil
}

func (r *fakeUserRepo) AttachWorkout(_ context.Context, userID, workoutID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := r.byObjectID(userID)
	if user == nil {
		return repository.ErrNotFound
	}
	for _, id := range user.WorkoutIDs {
		if id == workoutID {
			return nil
		}
	}
	user.WorkoutIDs = append(user.WorkoutIDs, workoutID)
	return nil
}

func (r *fakeUserRepo) DetachWorkout(_ context.Context, userID, workoutID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := r.byObjectID(userID)
	if user == nil {
		return repository.ErrNotFound
	}
	kept := user.WorkoutIDs[:0]
	for _, id := range user.WorkoutIDs {
		if id != workoutID {
			kept = append(kept, id)
		}
	}
	user.WorkoutIDs = kept
	return nil
}

func (r *fakeUserRepo) SetImage(_ context.Context, externalID, image string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[externalID]
	if !ok {
		return repository.ErrNotFound
	}
	user.Image = image
	return nil
}

type fakeWorkoutRepo struct {
	mu       sync.Mutex
	workouts map[primitive.ObjectID]*domain.Workout
	clock    time.Time
}

func newFakeWorkoutRepo() *fakeWorkoutRepo {
	return &fakeWorkoutRepo{
		workouts: map[primitive.ObjectID]*domain.Workout{},
		clock:    time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (r *fakeWorkoutRepo) Create(_ context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	workout.ID = primitive.NewObjectID()
	if workout.Date.IsZero() {
		// Strictly increasing creation times keep orderings deterministic.
		r.clock = r.clock.Add(time.Minute)
		workout.Date = r.clock
	}
	copied := *workout
	r.workouts[workout.ID] = &copied
	return workout.ID, nil
}

func (r *fakeWorkoutRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	workout, ok := r.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *workout
	return &copied, nil
}

func (r *fakeWorkoutRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Workout{}
	for _, w := range r.workouts {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeWorkoutRepo) GetLatestByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Workout, error) {
	all, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, repository.ErrNotFound
	}
	latest := all[len(all)-1]
	return &latest, nil
}

func (r *fakeWorkoutRepo) Update(_ context.Context, workout *domain.Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.workouts[workout.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Title = workout.Title
	existing.Description = workout.Description
	existing.Target = workout.Target
	existing.Exercises = workout.Exercises
	return nil
}

func (r *fakeWorkoutRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workouts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.workouts, id)
	return nil
}

type progressKey struct {
	user  primitive.ObjectID
	year  int
	month int
}

type fakeProgressRepo struct {
	mu      sync.Mutex
	records map[progressKey]*domain.Progress
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{records: map[progressKey]*domain.Progress{}}
}

func (r *fakeProgressRepo) GetDays(_ context.Context, userID primitive.ObjectID, year, month int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[progressKey{userID, year, month}]
	if !ok {
		return []int{}, nil
	}
	return append([]int{}, rec.Days...), nil
}

func (r *fakeProgressRepo) SaveDays(_ context.Context, userID primitive.ObjectID, year, month int, days []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := progressKey{userID, year, month}
	rec, ok := r.records[key]
	if !ok {
		rec = &domain.Progress{UserID: userID, Year: year, Month: month}
		r.records[key] = rec
	}
	rec.Days = append([]int{}, days...)
	rec.MonthlyWorkoutDays = len(days)
	return nil
}

func (r *fakeProgressRepo) GetByYear(_ context.Context, userID primitive.ObjectID, year int) ([]domain.Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Progress{}
	for key, rec := range r.records {
		if key.user == userID && key.year == year {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

// recordingCache counts cache traffic so tests can assert invalidation.
type recordingCache struct {
	mu          sync.Mutex
	lists       map[string][]domain.Workout
	invalidated int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{lists: map[string][]domain.Workout{}}
}

func (c *recordingCache) GetList(_ context.Context, externalID string) ([]domain.Workout, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list, ok := c.lists[externalID]
	return list, ok
}

func (c *recordingCache) SetList(_ context.Context, externalID string, workouts []domain.Workout) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[externalID] = workouts
}

func (c *recordingCache) InvalidateList(_ context.Context, externalID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lists, externalID)
	c.invalidated++
}
