package models

import "time"

// RotationUpdate is one member's new rotation slot, applied atomically with
// the rest of its circle's updates.
type RotationUpdate struct {
	MemberID       string
	Position       int
	NextPayoutDate *time.Time
}

// AuthorizedMember joins a circle member with their debit consent, linked
// bank account, and profile, as needed for enrollment.
type AuthorizedMember struct {
	Member      CircleMember
	BankAccount *LinkedBankAccount
	Profile     Profile
}

// DueCandidate pairs a rotation head (position 1 member with a scheduled
// payout date) with its circle for cycle-end evaluation.
type DueCandidate struct {
	Circle Circle
	Member CircleMember
}
