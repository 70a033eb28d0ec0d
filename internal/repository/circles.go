package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/passion-dev-group/guardian/internal/models"
)

// GetCircle retrieves a circle by id
func (r *Repository) GetCircle(ctx context.Context, id string) (*models.Circle, error) {
	c := &models.Circle{}
	var testClockID sql.NullString
	var startedAt sql.NullTime
	query := `
		SELECT id, name, contribution_amount, frequency, status, test_clock_id, created_by, started_at, created_at, updated_at
		FROM circles
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.Name, &c.ContributionAmount, &c.Frequency, &c.Status, &testClockID, &c.CreatedBy, &startedAt, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("circle not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get circle: %w", err)
	}
	c.TestClockID = testClockID.String
	if startedAt.Valid {
		c.StartedAt = &startedAt.Time
	}
	return c, nil
}

// ActivateCircle sets a circle's status to active and stamps its start date
func (r *Repository) ActivateCircle(ctx context.Context, id string, startedAt time.Time) error {
	query := `
		UPDATE circles
		SET status = $2, started_at = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.CircleStatusActive, startedAt); err != nil {
		return fmt.Errorf("failed to activate circle: %w", err)
	}
	return nil
}

// SetCircleTestClock records the sandbox clock id on a circle
func (r *Repository) SetCircleTestClock(ctx context.Context, id, clockID string) error {
	query := `
		UPDATE circles
		SET test_clock_id = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, clockID); err != nil {
		return fmt.Errorf("failed to set circle test clock: %w", err)
	}
	return nil
}
