package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/passion-dev-group/guardian/internal/models"
	"github.com/shopspring/decimal"
)

// CreateTransaction appends an immutable ledger entry for a circle
func (r *Repository) CreateTransaction(ctx context.Context, t *models.CircleTransaction) error {
	metadata, err := json.Marshal(t.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode transaction metadata: %w", err)
	}
	query := `
		INSERT INTO circle_transactions (circle_id, user_id, amount, type, status, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err = r.db.QueryRowContext(ctx, query, t.CircleID, t.UserID, t.Amount, t.Type, t.Status, metadata).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// SumCompletedContributions totals a circle's completed contribution entries
// for the current cycle, i.e. those recorded after the last payout entry.
func (r *Repository) SumCompletedContributions(ctx context.Context, circleID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM circle_transactions
		WHERE circle_id = $1 AND type = 'contribution' AND status = 'completed'
		  AND created_at > COALESCE(
			(SELECT MAX(created_at) FROM circle_transactions WHERE circle_id = $1 AND type = 'payout'),
			'-infinity')`
	var sum decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, circleID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum contributions: %w", err)
	}
	return sum, nil
}

// ListCycleContributionTransferIDs returns the external transfer ids carried
// by the current cycle's completed contribution entries
func (r *Repository) ListCycleContributionTransferIDs(ctx context.Context, circleID string) ([]string, error) {
	query := `
		SELECT metadata->>'transfer_id'
		FROM circle_transactions
		WHERE circle_id = $1 AND type = 'contribution' AND status = 'completed'
		  AND metadata->>'transfer_id' IS NOT NULL
		  AND created_at > COALESCE(
			(SELECT MAX(created_at) FROM circle_transactions WHERE circle_id = $1 AND type = 'payout'),
			'-infinity')`
	rows, err := r.db.QueryContext(ctx, query, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contribution transfer ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan transfer id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transfer ids: %w", err)
	}
	return ids, nil
}

// GetActiveBankAccount retrieves a user's active linked bank account
func (r *Repository) GetActiveBankAccount(ctx context.Context, userID string) (*models.LinkedBankAccount, error) {
	a := &models.LinkedBankAccount{}
	query := `
		SELECT id, user_id, plaid_account_id, access_token, institution_name, mask, active, created_at
		FROM linked_bank_accounts
		WHERE user_id = $1 AND active = TRUE`
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&a.ID, &a.UserID, &a.PlaidAccountID, &a.AccessToken, &a.InstitutionName, &a.Mask, &a.Active, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no active bank account")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}
	return a, nil
}
