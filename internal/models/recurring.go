package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecurringContribution is an active vendor-registered scheduled debit for one
// member in one circle.
type RecurringContribution struct {
	ID                   string          `json:"id"`
	CircleID             string          `json:"circle_id"`
	UserID               string          `json:"user_id"`
	RecurringTransferID  string          `json:"recurring_transfer_id"`
	Amount               decimal.Decimal `json:"amount"`
	Frequency            Frequency       `json:"frequency"`
	NextContributionDate time.Time       `json:"next_contribution_date"`
	Active               bool            `json:"active"`
	TestClockID          string          `json:"test_clock_id,omitempty"` // sandbox only
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}
