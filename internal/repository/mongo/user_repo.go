package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gymtrack/internal/domain"
	"gymtrack/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCollectionName = "users"

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
// It expects a connected *mongo.Database instance.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Upsert creates the user on first post-auth profile save and updates the
// profile fields on later saves, keyed on the external identity id.
// Saving a profile marks the account as onboarded.
func (r *mongoUserRepository) Upsert(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.ExternalID == "" || user.Username == "" || user.Name == "" {
		return nil, errors.New("user external id, username, and name are required")
	}

	now := time.Now().UTC()
	filter := bson.M{"id": user.ExternalID}
	update := bson.M{
		"$set": bson.M{
			"username":  strings.ToLower(user.Username),
			"name":      user.Name,
			"bio":       user.Bio,
			"image":     user.Image,
			"onboarded": true,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"id":        user.ExternalID,
			"createdAt": now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var saved domain.User
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errors.New("username is already taken")
		}
		return nil, err
	}
	return &saved, nil
}

// GetByExternalID retrieves a user by the identity provider's id.
func (r *mongoUserRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	var user domain.User
	filter := bson.M{"id": externalID}

	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ResolveObjectID maps an external identity id to the user's ObjectID.
// Other collections reference users by ObjectID, so every progress and
// workout operation starts here.
func (r *mongoUserRepository) ResolveObjectID(ctx context.Context, externalID string) (primitive.ObjectID, error) {
	var doc struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	filter := bson.M{"id": externalID}
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})

	err := r.collection.FindOne(ctx, filter, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return primitive.NilObjectID, repository.ErrNotFound
		}
		return primitive.NilObjectID, err
	}
	return doc.ID, nil
}

// AttachWorkout appends a workout reference to the user's workout list.
// $addToSet keeps the operation idempotent.
func (r *mongoUserRepository) AttachWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error {
	filter := bson.M{"_id": userID}
	update := bson.M{
		"$addToSet": bson.M{"workouts": workoutID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DetachWorkout pulls a workout reference from the user's workout list.
func (r *mongoUserRepository) DetachWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error {
	filter := bson.M{"_id": userID}
	update := bson.M{
		"$pull": bson.M{"workouts": workoutID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	// ModifiedCount may be 0 if the reference was already gone, which is fine.
	return nil
}

// SetImage updates only the avatar reference, used after a confirmed upload.
func (r *mongoUserRepository) SetImage(ctx context.Context, externalID, image string) error {
	filter := bson.M{"id": externalID}
	update := bson.M{
		"$set": bson.M{
			"image":     image,
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureUserIndexes creates necessary indexes for the users collection.
// Call this once during application startup.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
