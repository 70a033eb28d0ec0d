package service

import (
	"context"
	"fmt"
	"time"

	"github.com/passion-dev-group/guardian/internal/events"
	"github.com/passion-dev-group/guardian/internal/integrations/plaid"
	"github.com/passion-dev-group/guardian/internal/models"
)

// PayoutOutcome tags the result of one cycle-end payout attempt.
type PayoutOutcome string

const (
	// PayoutSettled means funds were distributed and the rotation advanced.
	PayoutSettled PayoutOutcome = "settled"
	// PayoutPendingManualReview means distribution failed but the rotation
	// advanced anyway; the payout record needs manual follow-up. The
	// rotation keeps moving so a vendor outage cannot stall a circle.
	PayoutPendingManualReview PayoutOutcome = "pending_review"
	// PayoutRejected means a precondition failed and nothing changed.
	PayoutRejected PayoutOutcome = "rejected"
)

// ProcessPayout settles one ended cycle: it pools the cycle's completed
// contributions, distributes them to the position-1 member, and advances the
// rotation. now is the circle's clock reading at cycle-end detection.
func (s *Service) ProcessPayout(ctx context.Context, circle *models.Circle, member *models.CircleMember, now time.Time) (PayoutOutcome, error) {
	pool, err := s.store.SumCompletedContributions(ctx, circle.ID)
	if err != nil {
		return PayoutRejected, err
	}
	if pool.IsZero() {
		return PayoutRejected, fmt.Errorf("circle %s has no completed contributions this cycle", circle.ID)
	}

	account, err := s.store.GetActiveBankAccount(ctx, member.UserID)
	if err != nil {
		return PayoutRejected, fmt.Errorf("recipient %s: %w", member.UserID, err)
	}

	transferIDs, err := s.store.ListCycleContributionTransferIDs(ctx, circle.ID)
	if err != nil {
		return PayoutRejected, err
	}
	if len(transferIDs) == 0 {
		return PayoutRejected, fmt.Errorf("circle %s contributions carry no transfer ids", circle.ID)
	}

	cycleEnd := member.NextPayoutDate
	dist, distErr := s.transfers.DistributeLedger(ctx, plaid.DistributeRequest{
		FromTransferIDs: transferIDs,
		AccessToken:     account.AccessToken,
		AccountID:       account.PlaidAccountID,
		Amount:          pool.StringFixed(2),
		Description:     "Circle payout: " + circle.Name,
		IdempotencyKey:  idempotencyKey("payout", circle.ID, cycleEnd.Format("2006-01-02")),
	})

	payout := &models.CircleTransaction{
		CircleID: circle.ID,
		UserID:   member.UserID,
		Amount:   pool,
		Type:     models.TransactionTypePayout,
		Metadata: map[string]any{
			"source_transfer_ids": transferIDs,
			"cycle_end":           cycleEnd.Format(time.RFC3339),
		},
	}

	outcome := PayoutSettled
	if distErr != nil {
		// Distribution failure does not stop the cycle: record the payout
		// as pending for manual review and keep the rotation moving.
		s.log.Errorf("Distribution failed for circle %s: %v", circle.ID, distErr)
		outcome = PayoutPendingManualReview
		payout.Status = models.TransactionStatusPending
		payout.Metadata["requires_review"] = true
		payout.Metadata["failure_reason"] = distErr.Error()
	} else {
		payout.Status = models.TransactionStatusCompleted
		payout.Metadata["transfer_id"] = dist.TransferID
	}

	if err := s.store.CreateTransaction(ctx, payout); err != nil {
		return PayoutRejected, err
	}

	if err := s.advanceRotation(ctx, circle, now); err != nil {
		return outcome, err
	}

	s.notifyPayout(ctx, circle, member, payout, outcome)
	s.log.Infof("Payout for circle %s: %s, amount %s", circle.ID, outcome, pool.StringFixed(2))
	return outcome, nil
}

func (s *Service) notifyPayout(ctx context.Context, circle *models.Circle, member *models.CircleMember, payout *models.CircleTransaction, outcome PayoutOutcome) {
	event := events.PayoutProcessed{
		CircleID:   circle.ID,
		UserID:     member.UserID,
		Amount:     payout.Amount.StringFixed(2),
		OccurredAt: time.Now().UTC(),
	}

	switch outcome {
	case PayoutSettled:
		event.Type = events.TypePayoutSettled
		if id, ok := payout.Metadata["transfer_id"].(string); ok {
			event.TransferID = id
		}
		if s.mailer != nil {
			if profile, err := s.store.GetProfile(ctx, member.UserID); err == nil && profile.Email != "" {
				if err := s.mailer.SendPayoutNotification(profile.Email, profile.DisplayName, circle.Name, payout.Amount); err != nil {
					s.log.Warnf("Failed to send payout notification: %v", err)
				}
			}
		}
	case PayoutPendingManualReview:
		event.Type = events.TypePayoutPendingReview
		if s.mailer != nil {
			if admin, err := s.store.GetProfile(ctx, circle.CreatedBy); err == nil && admin.Email != "" {
				if err := s.mailer.SendManualReviewAlert(admin.Email, circle.Name, payout.Amount); err != nil {
					s.log.Warnf("Failed to send manual review alert: %v", err)
				}
			}
		}
	default:
		return
	}

	s.publish(ctx, circle.ID, event)
}
