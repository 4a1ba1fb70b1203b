package database

import (
	"time"
)

// Attempt is the audit record of one verification request. It never holds
// image data.
type Attempt struct {
	ID              string
	Status          string
	LivenessPassed  bool
	LivenessMessage string
	MinRatio        *float64
	MaxRatio        *float64
	Ratios          []*float64
	Verified        bool
	Distance        *float64
	Threshold       *float64
	Model           string
	ErrorCode       string
	CreatedAt       time.Time
}
