package models

import "time"

// LinkedBankAccount is a member's vendor-linked funding account. The access
// token is the vendor credential scoped to this item and is never serialized.
type LinkedBankAccount struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	PlaidAccountID  string    `json:"plaid_account_id"`
	AccessToken     string    `json:"-"` // Not serialized
	InstitutionName string    `json:"institution_name"`
	Mask            string    `json:"mask"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
}
