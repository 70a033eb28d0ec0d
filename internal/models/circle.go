package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is a circle's contribution cadence
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Valid reports whether f is one of the supported cadences.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// CircleStatus is the lifecycle state of a circle
type CircleStatus string

const (
	CircleStatusPending   CircleStatus = "pending"
	CircleStatusActive    CircleStatus = "active"
	CircleStatusCompleted CircleStatus = "completed"
)

// Circle represents a rotating group-savings pool
type Circle struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	ContributionAmount decimal.Decimal `json:"contribution_amount"`
	Frequency          Frequency       `json:"frequency"`
	Status             CircleStatus    `json:"status"`
	TestClockID        string          `json:"test_clock_id,omitempty"` // sandbox only
	CreatedBy          string          `json:"created_by"`
	StartedAt          *time.Time      `json:"started_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
