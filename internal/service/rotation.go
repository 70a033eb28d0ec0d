package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/passion-dev-group/guardian/internal/models"
	"github.com/passion-dev-group/guardian/internal/schedule"
)

// InitializeRotation assigns starting payout positions 1..K to a circle's
// members in join order and stamps the first recipient's payout date one
// frequency interval after the schedule start. Applied as one transaction.
func (s *Service) InitializeRotation(ctx context.Context, circle *models.Circle, startDate time.Time) error {
	members, err := s.store.ListMembers(ctx, circle.ID)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return fmt.Errorf("circle %s has no members", circle.ID)
	}

	firstPayout := schedule.NextPayoutDate(circle.Frequency, startDate)
	updates := make([]models.RotationUpdate, 0, len(members))
	for i, m := range members {
		u := models.RotationUpdate{MemberID: m.ID, Position: i + 1}
		if i == 0 {
			u.NextPayoutDate = &firstPayout
		}
		updates = append(updates, u)
	}

	if err := s.store.ApplyRotation(ctx, circle.ID, updates); err != nil {
		return err
	}

	s.log.Infof("Initialized rotation for circle %s with %d members, first payout %s",
		circle.ID, len(members), firstPayout.Format("2006-01-02"))
	return nil
}

// planRotationAdvance computes the position updates for one cycle advance:
// the position-1 member moves to the last slot with its payout date cleared,
// everyone else moves up one slot, and whoever lands on position 1 gets the
// next payout date. Pure function; the store applies the result atomically.
func planRotationAdvance(members []models.CircleMember, nextPayoutDate time.Time) ([]models.RotationUpdate, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("no members in rotation")
	}

	sorted := make([]models.CircleMember, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool {
		return *sorted[i].PayoutPosition < *sorted[j].PayoutPosition
	})
	if *sorted[0].PayoutPosition != 1 {
		return nil, fmt.Errorf("rotation has no member at position 1")
	}

	last := len(sorted)
	updates := make([]models.RotationUpdate, 0, len(sorted))
	for i, m := range sorted {
		var u models.RotationUpdate
		if i == 0 {
			// Current recipient goes to the back of the line.
			u = models.RotationUpdate{MemberID: m.ID, Position: last}
			if last == 1 {
				u.NextPayoutDate = &nextPayoutDate
			}
		} else {
			u = models.RotationUpdate{MemberID: m.ID, Position: *m.PayoutPosition - 1}
			if *m.PayoutPosition == 2 {
				u.NextPayoutDate = &nextPayoutDate
			}
		}
		updates = append(updates, u)
	}
	return updates, nil
}

// advanceRotation plans and applies one rotation advance for a circle.
func (s *Service) advanceRotation(ctx context.Context, circle *models.Circle, now time.Time) error {
	members, err := s.store.ListRotationMembers(ctx, circle.ID)
	if err != nil {
		return err
	}

	next := schedule.NextPayoutDate(circle.Frequency, now)
	updates, err := planRotationAdvance(members, next)
	if err != nil {
		return err
	}

	if err := s.store.ApplyRotation(ctx, circle.ID, updates); err != nil {
		return err
	}

	s.log.Infof("Advanced rotation for circle %s, next payout %s", circle.ID, next.Format("2006-01-02"))
	return nil
}
