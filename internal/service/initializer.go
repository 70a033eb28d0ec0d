package service

import (
	"context"
	"time"

	"github.com/passion-dev-group/guardian/internal/events"
	"github.com/passion-dev-group/guardian/internal/integrations/plaid"
	"github.com/passion-dev-group/guardian/internal/metrics"
	"github.com/passion-dev-group/guardian/internal/models"
	"github.com/passion-dev-group/guardian/internal/schedule"
)

// MemberEnrollment reports one member's enrollment attempt.
type MemberEnrollment struct {
	UserID              string `json:"user_id"`
	Success             bool   `json:"success"`
	RecurringTransferID string `json:"recurring_transfer_id,omitempty"`
	Error               string `json:"error,omitempty"`
}

// StartCircleResult summarizes a circle start for the caller.
type StartCircleResult struct {
	CircleID            string             `json:"circle_id"`
	Enrolled            int                `json:"enrolled"`
	Failed              int                `json:"failed"`
	Members             []MemberEnrollment `json:"members"`
	TestClockID         string             `json:"test_clock_id,omitempty"`
	RotationInitialized bool               `json:"rotation_initialized"`
}

// StartCircle transitions a circle from pending to active: every member with
// an authorized ACH consent is enrolled into a vendor recurring debit, and
// the payout rotation is initialized. Individual enrollment failures are
// collected, not fatal; the circle activates if at least one member enrolls.
func (s *Service) StartCircle(ctx context.Context, circleID, callerID string) (*StartCircleResult, error) {
	circle, err := s.store.GetCircle(ctx, circleID)
	if err != nil {
		return nil, err
	}

	caller, err := s.store.GetMember(ctx, circleID, callerID)
	if err != nil || !caller.IsAdmin {
		return nil, ErrNotCircleAdmin
	}

	if circle.Status != models.CircleStatusPending {
		return nil, ErrCircleNotPending
	}

	authorized, err := s.store.ListAuthorizedMembers(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if len(authorized) == 0 {
		return nil, ErrNoAuthorizedMembers
	}

	now := time.Now().UTC()
	result := &StartCircleResult{CircleID: circleID}

	// Sandbox circles get a virtual clock so scheduled transfers can be
	// advanced deterministically.
	if !s.config.IsProduction() {
		tc, err := s.transfers.CreateTestClock(ctx, now)
		if err != nil {
			s.log.Warnf("Failed to create test clock for circle %s: %v", circleID, err)
		} else {
			if err := s.store.SetCircleTestClock(ctx, circleID, tc.TestClockID); err != nil {
				return nil, err
			}
			result.TestClockID = tc.TestClockID
		}
	}

	sched, err := schedule.Build(circle.Frequency, now)
	if err != nil {
		return nil, err
	}

	for _, am := range authorized {
		enrollment := s.enrollMember(ctx, circle, am, sched, result.TestClockID)
		if enrollment.Success {
			result.Enrolled++
			metrics.EnrollmentsTotal.WithLabelValues("success").Inc()
		} else {
			result.Failed++
			metrics.EnrollmentsTotal.WithLabelValues("failure").Inc()
		}
		result.Members = append(result.Members, enrollment)
	}

	if result.Enrolled == 0 {
		return result, ErrNoEnrollments
	}

	// Nudge the virtual clock past the first schedule boundary so the first
	// contribution cycle originates.
	if result.TestClockID != "" {
		if err := s.transfers.AdvanceTestClock(ctx, result.TestClockID, now.AddDate(0, 0, 1)); err != nil {
			s.log.Warnf("Failed to advance test clock for circle %s: %v", circleID, err)
		}
	}

	if err := s.store.ActivateCircle(ctx, circleID, now); err != nil {
		return result, err
	}

	if err := s.InitializeRotation(ctx, circle, sched.StartDate); err != nil {
		s.log.Errorf("Rotation initialization failed for circle %s: %v", circleID, err)
	} else {
		result.RotationInitialized = true
	}

	s.publish(ctx, circleID, events.CircleStarted{
		Type:       events.TypeCircleStarted,
		CircleID:   circleID,
		Enrolled:   result.Enrolled,
		Failed:     result.Failed,
		OccurredAt: now,
	})

	s.log.Infof("Circle %s started: %d enrolled, %d failed", circleID, result.Enrolled, result.Failed)
	return result, nil
}

// enrollMember registers one member's recurring debit with the vendor and
// persists the contribution record.
func (s *Service) enrollMember(ctx context.Context, circle *models.Circle, am models.AuthorizedMember, sched schedule.TransferSchedule, testClockID string) MemberEnrollment {
	enrollment := MemberEnrollment{UserID: am.Member.UserID}

	if am.BankAccount == nil {
		enrollment.Error = "no active linked bank account"
		return enrollment
	}

	rt, err := s.transfers.CreateRecurringTransfer(ctx, plaid.RecurringTransferRequest{
		AccessToken: am.BankAccount.AccessToken,
		AccountID:   am.BankAccount.PlaidAccountID,
		Amount:      circle.ContributionAmount.StringFixed(2),
		Description: "Circle: " + circle.Name,
		Schedule:    sched,
		IdempotencyKey: idempotencyKey(
			"enroll", circle.ID, am.Member.UserID, sched.StartDate.Format("2006-01-02")),
		TestClockID: testClockID,
	})
	if err != nil {
		s.log.Errorf("Enrollment failed for user %s in circle %s: %v", am.Member.UserID, circle.ID, err)
		enrollment.Error = err.Error()
		return enrollment
	}

	rc := &models.RecurringContribution{
		CircleID:             circle.ID,
		UserID:               am.Member.UserID,
		RecurringTransferID:  rt.RecurringTransferID,
		Amount:               circle.ContributionAmount,
		Frequency:            circle.Frequency,
		NextContributionDate: sched.StartDate,
		TestClockID:          testClockID,
	}
	if err := s.store.UpsertRecurringContribution(ctx, rc); err != nil {
		s.log.Errorf("Failed to record contribution for user %s in circle %s: %v", am.Member.UserID, circle.ID, err)
		enrollment.Error = err.Error()
		return enrollment
	}

	if s.mailer != nil && am.Profile.Email != "" {
		if err := s.mailer.SendEnrollmentConfirmation(am.Profile.Email, am.Profile.DisplayName, circle.Name, circle.ContributionAmount, sched.StartDate); err != nil {
			s.log.Warnf("Failed to send enrollment confirmation to %s: %v", am.Profile.Email, err)
		}
	}

	enrollment.Success = true
	enrollment.RecurringTransferID = rt.RecurringTransferID
	return enrollment
}
