package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Progress holds one month of workout attendance for one user: the set of
// day-of-month numbers that were marked as worked out. There is at most one
// document per (user, year, month), enforced by a unique compound index and
// upsert-on-composite-key writes.
//
// Days is the source of truth. MonthlyWorkoutDays is strictly derived from
// it (rewritten to len(Days) on every save) and exists only so dashboards
// can project a counter without loading the set; no read path may trust it
// over the set itself.
type Progress struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID             primitive.ObjectID `bson:"user" json:"userId"`
	Year               int                `bson:"year" json:"year"`
	Month              int                `bson:"month" json:"month"` // 1..12
	Days               []int              `bson:"days" json:"days"`   // deduplicated, 1..days-in-month
	MonthlyWorkoutDays int                `bson:"monthlyWorkoutDays" json:"monthlyWorkoutDays"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DaysInMonth returns the number of calendar days in the given month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
