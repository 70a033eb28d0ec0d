package models

import "time"

// ACHStatus is the state of a member's debit consent
type ACHStatus string

const (
	ACHStatusAuthorized ACHStatus = "authorized"
	ACHStatusRevoked    ACHStatus = "revoked"
)

// ACHAuthorization records a member's consent to recurring debits for one circle.
// ConsentHash is a SHA-256 digest of the consent text shown at authorization time.
type ACHAuthorization struct {
	ID              string    `json:"id"`
	CircleID        string    `json:"circle_id"`
	UserID          string    `json:"user_id"`
	LinkedAccountID string    `json:"linked_account_id"`
	Status          ACHStatus `json:"status"`
	ConsentHash     string    `json:"consent_hash"`
	CreatedAt       time.Time `json:"created_at"`
}
