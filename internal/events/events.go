// Package events defines the payloads published to the event stream.
package events

import "time"

const (
	TypeCircleStarted       = "circle.started"
	TypePayoutSettled       = "payout.settled"
	TypePayoutPendingReview = "payout.pending_review"
)

// CircleStarted is emitted when a circle transitions to active.
type CircleStarted struct {
	Type       string    `json:"type"`
	CircleID   string    `json:"circle_id"`
	Enrolled   int       `json:"enrolled"`
	Failed     int       `json:"failed"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PayoutProcessed is emitted after a cycle-end payout attempt, whether it
// settled or was downgraded to manual review.
type PayoutProcessed struct {
	Type       string    `json:"type"`
	CircleID   string    `json:"circle_id"`
	UserID     string    `json:"user_id"`
	Amount     string    `json:"amount"`
	TransferID string    `json:"transfer_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
