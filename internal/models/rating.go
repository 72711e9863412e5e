package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Rating is a single 1-5 rating tied to a completed exchange. At most one
// rating exists per (exchange, rater) pair.
type Rating struct {
	ID                uuid.UUID `json:"id"`
	ExchangeID        uuid.UUID `json:"exchange_id"`
	RaterID           uuid.UUID `json:"rater_id"`
	RatedUserID       uuid.UUID `json:"rated_user_id"`
	Rating            int       `json:"rating"`
	ExchangeItemTitle string    `json:"exchange_item_title,omitempty"`
	CreatedAt         time.Time `json:"created_at"`

	Rater *PublicUser `json:"rater,omitempty"`
}

// IsValidRating reports whether the value is inside the 1-5 scale.
func IsValidRating(v int) bool {
	return v >= MinRating && v <= MaxRating
}

// AverageRating computes the aggregate over every rating a user has
// received. Full rescan on each new rating, which is fine at this scale;
// an incremental sum/count would be the next step if it ever is not.
func AverageRating(values []int) (avg float64, count int) {
	if len(values) == 0 {
		return 0, 0
	}
	total := 0
	for _, v := range values {
		total += v
	}
	return float64(total) / float64(len(values)), len(values)
}
