package models

import "time"

// CircleMember is a user's participation record in a circle.
// PayoutPosition 1 means next in line for a payout; nil means the member
// has not entered the rotation yet.
type CircleMember struct {
	ID             string     `json:"id"`
	CircleID       string     `json:"circle_id"`
	UserID         string     `json:"user_id"`
	IsAdmin        bool       `json:"is_admin"`
	PayoutPosition *int       `json:"payout_position,omitempty"`
	NextPayoutDate *time.Time `json:"next_payout_date,omitempty"`
	JoinedAt       time.Time  `json:"joined_at"`
}
