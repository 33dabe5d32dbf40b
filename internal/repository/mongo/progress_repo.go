package mongo

import (
	"context"
	"errors"
	"time"

	"gymtrack/internal/domain"
	"gymtrack/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const progressCollectionName = "progress"

// mongoProgressRepository implements repository.ProgressRepository.
type mongoProgressRepository struct {
	collection *mongo.Collection
}

// NewMongoProgressRepository creates a new Progress repository.
func NewMongoProgressRepository(db *mongo.Database) repository.ProgressRepository {
	return &mongoProgressRepository{
		collection: db.Collection(progressCollectionName),
	}
}

// GetDays returns the day-set for (user, year, month). A missing record is
// not an error; it reads as the empty set.
func (r *mongoProgressRepository) GetDays(ctx context.Context, userID primitive.ObjectID, year, month int) ([]int, error) {
	var progress domain.Progress
	filter := bson.M{"user": userID, "year": year, "month": month}

	err := r.collection.FindOne(ctx, filter).Decode(&progress)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []int{}, nil
		}
		return nil, err
	}
	if progress.Days == nil {
		return []int{}, nil
	}
	return progress.Days, nil
}

// SaveDays replaces the whole day-set for (user, year, month), creating the
// record if absent. The unique compound index plus the upsert filter keep
// at most one record per tuple. The cached monthly counter is rewritten
// from the set on every save, never adjusted incrementally.
func (r *mongoProgressRepository) SaveDays(ctx context.Context, userID primitive.ObjectID, year, month int, days []int) error {
	if days == nil {
		days = []int{}
	}

	now := time.Now().UTC()
	filter := bson.M{"user": userID, "year": year, "month": month}
	update := bson.M{
		"$set": bson.M{
			"days":               days,
			"monthlyWorkoutDays": len(days),
			"updatedAt":          now,
		},
		"$setOnInsert": bson.M{
			"user":      userID,
			"year":      year,
			"month":     month,
			"createdAt": now,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// GetByYear returns every progress record a user has for the given year.
// Months with no record are simply absent.
func (r *mongoProgressRepository) GetByYear(ctx context.Context, userID primitive.ObjectID, year int) ([]domain.Progress, error) {
	records := []domain.Progress{}
	filter := bson.M{"user": userID, "year": year}
	findOptions := options.Find().SetSort(bson.D{{Key: "month", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// EnsureProgressIndexes creates necessary indexes. Call during startup.
func EnsureProgressIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One record per (user, year, month); also serves the
			// per-year scan behind yearly totals.
			Keys: bson.D{
				{Key: "user", Value: 1},
				{Key: "year", Value: 1},
				{Key: "month", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
