package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes ledger entries
type TransactionType string

const (
	TransactionTypeContribution TransactionType = "contribution"
	TransactionTypePayout       TransactionType = "payout"
)

// TransactionStatus is the settlement state of a ledger entry
type TransactionStatus string

const (
	TransactionStatusProcessing TransactionStatus = "processing"
	TransactionStatusCompleted  TransactionStatus = "completed"
	TransactionStatusFailed     TransactionStatus = "failed"
	TransactionStatusPending    TransactionStatus = "pending"
)

// CircleTransaction is an immutable ledger entry for a circle. The metadata
// blob carries external transfer identifiers for correlation with the
// payments vendor. Invariant: sum(completed contributions) minus
// sum(completed payouts) is the circle's net held balance.
type CircleTransaction struct {
	ID        string            `json:"id"`
	CircleID  string            `json:"circle_id"`
	UserID    string            `json:"user_id"`
	Amount    decimal.Decimal   `json:"amount"`
	Type      TransactionType   `json:"type"`
	Status    TransactionStatus `json:"status"`
	Metadata  map[string]any    `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
