package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gymtrack/internal/cache"
	"gymtrack/internal/domain"
	"gymtrack/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrWorkoutNotFound   = errors.New("workout not found")
	ErrNotWorkoutOwner   = errors.New("workout does not belong to this user")
	ErrInvalidWorkout    = errors.New("invalid workout")
	ErrWorkoutTitleEmpty = fmt.Errorf("%w: title is required", ErrInvalidWorkout)
)

// WorkoutInput carries the caller-editable fields of a workout plan.
type WorkoutInput struct {
	Title       string
	Description string
	Target      string
	Exercises   []domain.Exercise
}

// WorkoutService owns the saved workout plans and keeps the user's workout
// reference list consistent with the workout collection.
type WorkoutService interface {
	Create(ctx context.Context, externalUserID string, input WorkoutInput) (*domain.Workout, error)
	ListByUser(ctx context.Context, externalUserID string) ([]domain.Workout, error)
	Latest(ctx context.Context, externalUserID string) (*domain.Workout, error)
	Get(ctx context.Context, externalUserID, workoutID string) (*domain.Workout, error)
	Update(ctx context.Context, externalUserID, workoutID string, input WorkoutInput) (*domain.Workout, error)
	Delete(ctx context.Context, externalUserID, workoutID string) error
}

type workoutService struct {
	userRepo    repository.UserRepository
	workoutRepo repository.WorkoutRepository
	listCache   cache.WorkoutListCache
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(
	userRepo repository.UserRepository,
	workoutRepo repository.WorkoutRepository,
	listCache cache.WorkoutListCache,
) WorkoutService {
	if listCache == nil {
		listCache = cache.Noop{}
	}
	return &workoutService{
		userRepo:    userRepo,
		workoutRepo: workoutRepo,
		listCache:   listCache,
	}
}

// Create validates and persists a new workout, then appends its reference
// to the owner's workout list and drops the cached list view. An empty
// exercise list is a legal (if ambitious) plan.
func (s *workoutService) Create(ctx context.Context, externalUserID string, input WorkoutInput) (*domain.Workout, error) {
	if err := validateWorkoutInput(input); err != nil {
		return nil, err
	}

	userID, err := s.resolveUser(ctx, externalUserID)
	if err != nil {
		return nil, err
	}

	workout := &domain.Workout{
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Target:      input.Target,
		Exercises:   input.Exercises,
	}

	workoutID, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, fmt.Errorf("create workout: %w", err)
	}

	if err := s.userRepo.AttachWorkout(ctx, userID, workoutID); err != nil {
		// The body exists but was never referenced; remove it so the
		// failed create leaves nothing behind.
		if delErr := s.workoutRepo.Delete(ctx, workoutID); delErr != nil {
			log.Printf("WARN: failed to clean up unreferenced workout %s: %v", workoutID.Hex(), delErr)
		}
		return nil, fmt.Errorf("attach workout to user: %w", err)
	}

	s.listCache.InvalidateList(ctx, externalUserID)
	return workout, nil
}

// ListByUser returns the user's workouts ordered by creation time
// ascending, serving from the view cache when it is populated.
func (s *workoutService) ListByUser(ctx context.Context, externalUserID string) ([]domain.Workout, error) {
	if workouts, ok := s.listCache.GetList(ctx, externalUserID); ok {
		return workouts, nil
	}

	userID, err := s.resolveUser(ctx, externalUserID)
	if err != nil {
		return nil, err
	}

	workouts, err := s.workoutRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}

	s.listCache.SetList(ctx, externalUserID, workouts)
	return workouts, nil
}

// Latest returns the most recently created workout. This is the only
// "current workout for this user" rule in the system.
func (s *workoutService) Latest(ctx context.Context, externalUserID string) (*domain.Workout, error) {
	userID, err := s.resolveUser(ctx, externalUserID)
	if err != nil {
		return nil, err
	}

	workout, err := s.workoutRepo.GetLatestByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, fmt.Errorf("fetch latest workout: %w", err)
	}
	return workout, nil
}

// Get fetches one workout and verifies the caller owns it.
func (s *workoutService) Get(ctx context.Context, externalUserID, workoutID string) (*domain.Workout, error) {
	userID, err := s.resolveUser(ctx, externalUserID)
	if err != nil {
		return nil, err
	}
	workout, _, err := s.getOwned(ctx, userID, workoutID)
	return workout, err
}

// Update replaces the editable fields of an owned workout and drops the
// cached list view.
func (s *workoutService) Update(ctx context.Context, externalUserID, workoutID string, input WorkoutInput) (*domain.Workout, error) {
	if err := validateWorkoutInput(input); err != nil {
		return nil, err
	}

	userID, err := s.resolveUser(ctx, externalUserID)
	if err != nil {
		return nil, err
	}

	workout, _, err := s.getOwned(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}

	workout.Title = input.Title
	workout.Description = input.Description
	workout.Target = input.Target
	workout.Exercises = input.Exercises
	if workout.Exercises == nil {
		workout.Exercises = []domain.Exercise{}
	}

	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		return nil, fmt.Errorf("update workout: %w", err)
	}

	s.listCache.InvalidateList(ctx, externalUserID)
	return workout, nil
}

// Delete removes an owned workout in two phases: detach the reference from
// the user first, then delete the body. A crash between the phases leaves
// an orphan body that no list can reach; the reverse order could leave a
// reference pointing at nothing, which is the failure mode this ordering
// rules out.
func (s *workoutService) Delete(ctx context.Context, externalUserID, workoutID string) error {
	userID, err := s.resolveUser(ctx, externalUserID)
	if err != nil {
		return err
	}

	_, oid, err := s.getOwned(ctx, userID, workoutID)
	if err != nil {
		return err
	}

	if err := s.userRepo.DetachWorkout(ctx, userID, oid); err != nil {
		return fmt.Errorf("detach workout reference: %w", err)
	}

	if err := s.workoutRepo.Delete(ctx, oid); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("delete workout body: %w", err)
	}

	s.listCache.InvalidateList(ctx, externalUserID)
	return nil
}

func (s *workoutService) getOwned(ctx context.Context, userID primitive.ObjectID, workoutID string) (*domain.Workout, primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(workoutID)
	if err != nil {
		return nil, primitive.NilObjectID, ErrWorkoutNotFound
	}

	workout, err := s.workoutRepo.GetByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, primitive.NilObjectID, ErrWorkoutNotFound
		}
		return nil, primitive.NilObjectID, fmt.Errorf("fetch workout: %w", err)
	}
	if workout.UserID != userID {
		return nil, primitive.NilObjectID, ErrNotWorkoutOwner
	}
	return workout, oid, nil
}

func (s *workoutService) resolveUser(ctx context.Context, externalUserID string) (primitive.ObjectID, error) {
	userID, err := s.userRepo.ResolveObjectID(ctx, externalUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return primitive.NilObjectID, ErrUserNotFound
		}
		return primitive.NilObjectID, fmt.Errorf("resolve user %q: %w", externalUserID, err)
	}
	return userID, nil
}

func validateWorkoutInput(input WorkoutInput) error {
	if input.Title == "" {
		return ErrWorkoutTitleEmpty
	}
	for i, ex := range input.Exercises {
		if ex.Name == "" {
			return fmt.Errorf("%w: exercise %d has no name", ErrInvalidWorkout, i)
		}
		if ex.Sets <= 0 || ex.Reps <= 0 {
			return fmt.Errorf("%w: exercise %q needs positive sets and reps", ErrInvalidWorkout, ex.Name)
		}
	}
	return nil
}
