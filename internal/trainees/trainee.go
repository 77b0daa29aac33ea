package trainees

import (
	"errors"
	"time"
)

var (
	ErrTraineeNotFound = errors.New("trainee not found")
	ErrTraineeExists   = errors.New("trainee already exists")
)

// Trainee is a member of the training program. EnrollmentStart is the
// documented start of their program and bounds all attendance
// aggregations; nil means the start was never documented.
type Trainee struct {
	ID              int        `json:"id"`
	Name            string     `json:"name"`
	EnrollmentStart *time.Time `json:"enrollmentStart,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}
