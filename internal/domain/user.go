package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account linked to the external identity provider.
// ExternalID is the provider-issued identifier every API caller presents;
// ID is only used for internal references between collections.
type User struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"-"`
	ExternalID string               `bson:"id" json:"id"` // unique, issued by the identity provider
	Username   string               `bson:"username" json:"username"`
	Name       string               `bson:"name" json:"name"`
	Bio        string               `bson:"bio,omitempty" json:"bio,omitempty"`
	Image      string               `bson:"image,omitempty" json:"image,omitempty"`
	WorkoutIDs []primitive.ObjectID `bson:"workouts,omitempty" json:"workouts,omitempty"`
	Onboarded  bool                 `bson:"onboarded" json:"onboarded"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updatedAt"`
}
