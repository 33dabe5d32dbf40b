package repository

import (
	"context"
	"time"

	"gymtrack/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
// Users are keyed by the identity provider's external id; internal
// ObjectIDs only appear where other collections reference the user.
type UserRepository interface {
	Upsert(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	ResolveObjectID(ctx context.Context, externalID string) (primitive.ObjectID, error)
	AttachWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error
	DetachWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error
	SetImage(ctx context.Context, externalID, image string) error
}

// WorkoutRepository defines the interface for interacting with workout data.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Workout, error)
	GetLatestByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Workout, error)
	Update(ctx context.Context, workout *domain.Workout) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProgressRepository defines the interface for interacting with monthly
// progress records. SaveDays replaces the whole day-set for the
// (user, year, month) tuple; there is no per-day mutation.
type ProgressRepository interface {
	GetDays(ctx context.Context, userID primitive.ObjectID, year, month int) ([]int, error)
	SaveDays(ctx context.Context, userID primitive.ObjectID, year, month int, days []int) error
	GetByYear(ctx context.Context, userID primitive.ObjectID, year int) ([]domain.Progress, error)
}

// Clock lets services and the calendar engine take "now" as a dependency
// so the future-day policy is testable.
type Clock func() time.Time
