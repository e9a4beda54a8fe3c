package domain

import (
	"time"

	"github.com/google/uuid"
)

// Testimonial is public feedback left by a user about the service.
type Testimonial struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Username string // read-only, joined from users
	Feedback string
	Rate     int
	// Date is the day the feedback refers to (date only).
	Date      time.Time
	CreatedAt time.Time
}

// Testimonial field limits.
const (
	FeedbackMin = 10
	FeedbackMax = 500
	RateMin     = 1
	RateMax     = 5
)
