package service

import (
	"context"
	"sync"

	"github.com/passion-dev-group/guardian/internal/metrics"
)

// DailyCheckResult aggregates one monitor run.
type DailyCheckResult struct {
	Checked       int `json:"checked"`
	Ended         int `json:"ended"`
	Settled       int `json:"settled"`
	PendingReview int `json:"pending_review"`
	Failed        int `json:"failed"`
}

// RunDailyCheck scans every rotation head for an ended payout cycle and
// settles the ended ones. A cycle has ended when the member's next payout
// date is at or before the circle's clock, which is the vendor test clock's
// virtual time for sandbox circles and wall clock otherwise. Ended cycles
// are processed concurrently; per-circle failures are counted, not fatal.
func (s *Service) RunDailyCheck(ctx context.Context) (*DailyCheckResult, error) {
	candidates, err := s.store.ListDueCandidates(ctx)
	if err != nil {
		return nil, err
	}

	result := &DailyCheckResult{Checked: len(candidates)}

	var wg sync.WaitGroup
	outcomes := make(chan PayoutOutcome, len(candidates))

	for i := range candidates {
		dc := candidates[i]
		now := s.clocks.ForCircle(ctx, &dc.Circle).Now()
		if dc.Member.NextPayoutDate.After(now) {
			continue
		}

		result.Ended++
		metrics.CyclesEndedTotal.Inc()

		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := s.ProcessPayout(ctx, &dc.Circle, &dc.Member, now)
			if err != nil {
				s.log.Errorf("Payout processing failed for circle %s: %v", dc.Circle.ID, err)
			}
			outcomes <- outcome
		}()
	}

	wg.Wait()
	close(outcomes)

	for outcome := range outcomes {
		metrics.PayoutsTotal.WithLabelValues(string(outcome)).Inc()
		switch outcome {
		case PayoutSettled:
			result.Settled++
		case PayoutPendingManualReview:
			result.PendingReview++
		default:
			result.Failed++
		}
	}

	s.log.Infof("Daily check: %d checked, %d ended, %d settled, %d pending review, %d failed",
		result.Checked, result.Ended, result.Settled, result.PendingReview, result.Failed)
	return result, nil
}
