package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/passion-dev-group/guardian/internal/models"
)

// UpsertRecurringContribution records a member's active scheduled debit,
// replacing any earlier record for the same member and circle
func (r *Repository) UpsertRecurringContribution(ctx context.Context, rc *models.RecurringContribution) error {
	query := `
		INSERT INTO recurring_contributions
			(circle_id, user_id, recurring_transfer_id, amount, frequency, next_contribution_date, active, test_clock_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NULLIF($7, ''), CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (circle_id, user_id) DO UPDATE SET
			recurring_transfer_id = EXCLUDED.recurring_transfer_id,
			amount = EXCLUDED.amount,
			frequency = EXCLUDED.frequency,
			next_contribution_date = EXCLUDED.next_contribution_date,
			active = TRUE,
			test_clock_id = EXCLUDED.test_clock_id,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		rc.CircleID, rc.UserID, rc.RecurringTransferID, rc.Amount, rc.Frequency, rc.NextContributionDate, rc.TestClockID).
		Scan(&rc.ID, &rc.CreatedAt, &rc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert recurring contribution: %w", err)
	}
	rc.Active = true
	return nil
}

// GetRecurringContribution retrieves one recurring contribution by id
func (r *Repository) GetRecurringContribution(ctx context.Context, id string) (*models.RecurringContribution, error) {
	rc := &models.RecurringContribution{}
	var testClockID sql.NullString
	query := `
		SELECT id, circle_id, user_id, recurring_transfer_id, amount, frequency, next_contribution_date, active, test_clock_id, created_at, updated_at
		FROM recurring_contributions
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&rc.ID, &rc.CircleID, &rc.UserID, &rc.RecurringTransferID, &rc.Amount, &rc.Frequency,
			&rc.NextContributionDate, &rc.Active, &testClockID, &rc.CreatedAt, &rc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("recurring contribution not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recurring contribution: %w", err)
	}
	rc.TestClockID = testClockID.String
	return rc, nil
}

// ListActiveContributions returns the active recurring contributions,
// optionally limited to one circle when circleID is non-empty
func (r *Repository) ListActiveContributions(ctx context.Context, circleID string) ([]models.RecurringContribution, error) {
	query := `
		SELECT id, circle_id, user_id, recurring_transfer_id, amount, frequency, next_contribution_date, active, test_clock_id, created_at, updated_at
		FROM recurring_contributions
		WHERE active = TRUE AND ($1 = '' OR circle_id = $1::uuid)
		ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active contributions: %w", err)
	}
	defer rows.Close()

	var result []models.RecurringContribution
	for rows.Next() {
		var rc models.RecurringContribution
		var testClockID sql.NullString
		err := rows.Scan(&rc.ID, &rc.CircleID, &rc.UserID, &rc.RecurringTransferID, &rc.Amount, &rc.Frequency,
			&rc.NextContributionDate, &rc.Active, &testClockID, &rc.CreatedAt, &rc.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring contribution: %w", err)
		}
		rc.TestClockID = testClockID.String
		result = append(result, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recurring contributions: %w", err)
	}
	return result, nil
}

// DeactivateContribution marks a recurring contribution inactive
func (r *Repository) DeactivateContribution(ctx context.Context, id string) error {
	query := `
		UPDATE recurring_contributions
		SET active = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to deactivate contribution: %w", err)
	}
	return nil
}
