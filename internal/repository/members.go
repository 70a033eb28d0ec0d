package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/passion-dev-group/guardian/internal/models"
)

// GetMember retrieves one user's membership in a circle
func (r *Repository) GetMember(ctx context.Context, circleID, userID string) (*models.CircleMember, error) {
	m := &models.CircleMember{}
	var position sql.NullInt64
	var nextPayout sql.NullTime
	query := `
		SELECT id, circle_id, user_id, is_admin, payout_position, next_payout_date, joined_at
		FROM circle_members
		WHERE circle_id = $1 AND user_id = $2`
	err := r.db.QueryRowContext(ctx, query, circleID, userID).
		Scan(&m.ID, &m.CircleID, &m.UserID, &m.IsAdmin, &position, &nextPayout, &m.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("member not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if position.Valid {
		p := int(position.Int64)
		m.PayoutPosition = &p
	}
	if nextPayout.Valid {
		m.NextPayoutDate = &nextPayout.Time
	}
	return m, nil
}

// ListMembers returns a circle's members in join order
func (r *Repository) ListMembers(ctx context.Context, circleID string) ([]models.CircleMember, error) {
	query := `
		SELECT id, circle_id, user_id, is_admin, payout_position, next_payout_date, joined_at
		FROM circle_members
		WHERE circle_id = $1
		ORDER BY joined_at ASC`
	rows, err := r.db.QueryContext(ctx, query, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()
	return scanMembers(rows)
}

// ListRotationMembers returns a circle's members holding a rotation position,
// ordered ascending by position
func (r *Repository) ListRotationMembers(ctx context.Context, circleID string) ([]models.CircleMember, error) {
	query := `
		SELECT id, circle_id, user_id, is_admin, payout_position, next_payout_date, joined_at
		FROM circle_members
		WHERE circle_id = $1 AND payout_position IS NOT NULL
		ORDER BY payout_position ASC`
	rows, err := r.db.QueryContext(ctx, query, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rotation members: %w", err)
	}
	defer rows.Close()
	return scanMembers(rows)
}

func scanMembers(rows *sql.Rows) ([]models.CircleMember, error) {
	var members []models.CircleMember
	for rows.Next() {
		var m models.CircleMember
		var position sql.NullInt64
		var nextPayout sql.NullTime
		if err := rows.Scan(&m.ID, &m.CircleID, &m.UserID, &m.IsAdmin, &position, &nextPayout, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if position.Valid {
			p := int(position.Int64)
			m.PayoutPosition = &p
		}
		if nextPayout.Valid {
			m.NextPayoutDate = &nextPayout.Time
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// ListAuthorizedMembers returns the members of a circle holding an
// "authorized" ACH consent, joined with their active bank account and
// profile. Members whose linked account is missing come back with a nil
// BankAccount so enrollment can record them as failed.
func (r *Repository) ListAuthorizedMembers(ctx context.Context, circleID string) ([]models.AuthorizedMember, error) {
	query := `
		SELECT cm.id, cm.circle_id, cm.user_id, cm.is_admin, cm.payout_position, cm.next_payout_date, cm.joined_at,
		       ba.id, ba.plaid_account_id, ba.access_token, ba.institution_name, ba.mask,
		       p.email, p.display_name, p.site_admin
		FROM circle_members cm
		JOIN circle_ach_authorizations a ON a.circle_id = cm.circle_id AND a.user_id = cm.user_id AND a.status = 'authorized'
		LEFT JOIN linked_bank_accounts ba ON ba.user_id = cm.user_id AND ba.active = TRUE
		JOIN profiles p ON p.user_id = cm.user_id
		WHERE cm.circle_id = $1
		ORDER BY cm.joined_at ASC`
	rows, err := r.db.QueryContext(ctx, query, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list authorized members: %w", err)
	}
	defer rows.Close()

	var result []models.AuthorizedMember
	for rows.Next() {
		var am models.AuthorizedMember
		var position sql.NullInt64
		var nextPayout sql.NullTime
		var baID, baAccount, baToken, baInstitution, baMask sql.NullString
		err := rows.Scan(
			&am.Member.ID, &am.Member.CircleID, &am.Member.UserID, &am.Member.IsAdmin, &position, &nextPayout, &am.Member.JoinedAt,
			&baID, &baAccount, &baToken, &baInstitution, &baMask,
			&am.Profile.Email, &am.Profile.DisplayName, &am.Profile.SiteAdmin,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan authorized member: %w", err)
		}
		if position.Valid {
			p := int(position.Int64)
			am.Member.PayoutPosition = &p
		}
		if nextPayout.Valid {
			am.Member.NextPayoutDate = &nextPayout.Time
		}
		am.Profile.UserID = am.Member.UserID
		if baID.Valid {
			am.BankAccount = &models.LinkedBankAccount{
				ID:              baID.String,
				UserID:          am.Member.UserID,
				PlaidAccountID:  baAccount.String,
				AccessToken:     baToken.String,
				InstitutionName: baInstitution.String,
				Mask:            baMask.String,
				Active:          true,
			}
		}
		result = append(result, am)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate authorized members: %w", err)
	}
	return result, nil
}

// ListDueCandidates returns every rotation head (position 1 with a scheduled
// payout date) across active circles, paired with its circle
func (r *Repository) ListDueCandidates(ctx context.Context) ([]models.DueCandidate, error) {
	query := `
		SELECT c.id, c.name, c.contribution_amount, c.frequency, c.status, c.test_clock_id, c.created_by, c.started_at, c.created_at, c.updated_at,
		       cm.id, cm.circle_id, cm.user_id, cm.is_admin, cm.payout_position, cm.next_payout_date, cm.joined_at
		FROM circle_members cm
		JOIN circles c ON c.id = cm.circle_id
		WHERE cm.payout_position = 1 AND cm.next_payout_date IS NOT NULL AND c.status = 'active'`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list due candidates: %w", err)
	}
	defer rows.Close()

	var result []models.DueCandidate
	for rows.Next() {
		var dc models.DueCandidate
		var testClockID sql.NullString
		var startedAt sql.NullTime
		var position sql.NullInt64
		var nextPayout sql.NullTime
		err := rows.Scan(
			&dc.Circle.ID, &dc.Circle.Name, &dc.Circle.ContributionAmount, &dc.Circle.Frequency, &dc.Circle.Status,
			&testClockID, &dc.Circle.CreatedBy, &startedAt, &dc.Circle.CreatedAt, &dc.Circle.UpdatedAt,
			&dc.Member.ID, &dc.Member.CircleID, &dc.Member.UserID, &dc.Member.IsAdmin, &position, &nextPayout, &dc.Member.JoinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due candidate: %w", err)
		}
		dc.Circle.TestClockID = testClockID.String
		if startedAt.Valid {
			dc.Circle.StartedAt = &startedAt.Time
		}
		if position.Valid {
			p := int(position.Int64)
			dc.Member.PayoutPosition = &p
		}
		if nextPayout.Valid {
			dc.Member.NextPayoutDate = &nextPayout.Time
		}
		result = append(result, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate due candidates: %w", err)
	}
	return result, nil
}

// ApplyRotation writes a set of rotation position updates for one circle in
// a single transaction. A crash cannot leave the circle half-advanced.
func (r *Repository) ApplyRotation(ctx context.Context, circleID string, updates []models.RotationUpdate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rotation transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE circle_members
		SET payout_position = $2, next_payout_date = $3
		WHERE id = $1 AND circle_id = $4`
	for _, u := range updates {
		var nextPayout any
		if u.NextPayoutDate != nil {
			nextPayout = *u.NextPayoutDate
		}
		if _, err := tx.ExecContext(ctx, query, u.MemberID, u.Position, nextPayout, circleID); err != nil {
			return fmt.Errorf("failed to update member %s position: %w", u.MemberID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rotation: %w", err)
	}
	return nil
}
