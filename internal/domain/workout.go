package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise is a single entry of a workout plan. It has no identity of its
// own; it only exists embedded in a Workout, and the slice order is the
// order the plan is performed in.
type Exercise struct {
	Name string `bson:"name" json:"name"`
	Sets int    `bson:"sets" json:"sets"`
	Reps int    `bson:"reps" json:"reps"`
}

// Workout is one saved workout plan, owned by a single user.
// Date is set once at creation and never changes; it drives both the
// list ordering (ascending) and the "latest workout" selection (descending).
type Workout struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user" json:"userId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Target      string             `bson:"exerciseTarget,omitempty" json:"exerciseTarget,omitempty"` // e.g. "Legs", "Upper body"
	Exercises   []Exercise         `bson:"exercises" json:"exercises"`
	Date        time.Time          `bson:"date" json:"date"`
}
