package plaid

import (
	"time"

	"github.com/passion-dev-group/guardian/internal/schedule"
)

// RecurringTransferRequest registers a scheduled ACH debit with the vendor.
type RecurringTransferRequest struct {
	AccessToken    string                    `json:"access_token"`
	AccountID      string                    `json:"account_id"`
	Type           string                    `json:"type"` // always "debit" for contributions
	Network        string                    `json:"network"`
	Amount         string                    `json:"amount"`
	Description    string                    `json:"description"`
	Schedule       schedule.TransferSchedule `json:"schedule"`
	IdempotencyKey string                    `json:"idempotency_key"`
	TestClockID    string                    `json:"test_clock_id,omitempty"`
}

// RecurringTransfer is the vendor's view of a registered recurring debit.
type RecurringTransfer struct {
	RecurringTransferID string `json:"recurring_transfer_id"`
	Status              string `json:"status"`
	NextOriginationDate string `json:"next_origination_date"`
}

// TestClock is a sandbox virtual clock used to advance scheduled transfers
// without waiting in real time.
type TestClock struct {
	TestClockID string    `json:"test_clock_id"`
	VirtualTime time.Time `json:"virtual_time"`
}

// Transfer is a single vendor transfer.
type Transfer struct {
	TransferID string `json:"transfer_id"`
	Status     string `json:"status"`
	Amount     string `json:"amount"`
}

// DistributeRequest moves funds already collected from prior debits to a
// destination account.
type DistributeRequest struct {
	FromTransferIDs []string `json:"from_transfer_ids"`
	AccessToken     string   `json:"access_token"`
	AccountID       string   `json:"account_id"`
	Amount          string   `json:"amount"`
	Description     string   `json:"description"`
	IdempotencyKey  string   `json:"idempotency_key"`
}

// Distribution is the vendor's record of a ledger distribution.
type Distribution struct {
	TransferID string `json:"transfer_id"`
	Status     string `json:"status"`
}
