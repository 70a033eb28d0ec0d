package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/passion-dev-group/guardian/internal/models"
)

func rotationMembers(k int) []models.CircleMember {
	members := make([]models.CircleMember, k)
	for i := range members {
		pos := i + 1
		members[i] = models.CircleMember{
			ID:             fmt.Sprintf("member-%d", i+1),
			CircleID:       "circle-1",
			UserID:         fmt.Sprintf("user-%d", i+1),
			PayoutPosition: &pos,
		}
	}
	return members
}

func TestPlanRotationAdvanceProperties(t *testing.T) {
	next := time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)

	for k := 1; k <= 6; k++ {
		t.Run(fmt.Sprintf("members=%d", k), func(t *testing.T) {
			members := rotationMembers(k)
			updates, err := planRotationAdvance(members, next)
			if err != nil {
				t.Fatalf("planRotationAdvance failed: %v", err)
			}
			if len(updates) != k {
				t.Fatalf("updates = %d, want %d", len(updates), k)
			}

			byMember := make(map[string]models.RotationUpdate, k)
			seen := make(map[int]string, k)
			for _, u := range updates {
				byMember[u.MemberID] = u
				if other, dup := seen[u.Position]; dup {
					t.Fatalf("position %d assigned to both %s and %s", u.Position, other, u.MemberID)
				}
				seen[u.Position] = u.MemberID
			}

			// Positions remain a permutation of 1..K.
			for pos := 1; pos <= k; pos++ {
				if _, ok := seen[pos]; !ok {
					t.Errorf("position %d unassigned", pos)
				}
			}

			// The former head lands on the last slot.
			head := byMember["member-1"]
			if head.Position != k {
				t.Errorf("former head position = %d, want %d", head.Position, k)
			}
			if k > 1 && head.NextPayoutDate != nil {
				t.Error("former head must have its payout date cleared")
			}

			// Exactly one member gets the fresh payout date, and it is the
			// one landing on position 1.
			withDate := 0
			for _, u := range updates {
				if u.NextPayoutDate != nil {
					withDate++
					if u.Position != 1 {
						t.Errorf("payout date assigned to position %d, want 1", u.Position)
					}
					if !u.NextPayoutDate.Equal(next) {
						t.Errorf("payout date = %v, want %v", u.NextPayoutDate, next)
					}
				}
			}
			if withDate != 1 {
				t.Errorf("members with payout date = %d, want 1", withDate)
			}
		})
	}
}

func TestPlanRotationAdvanceRequiresHead(t *testing.T) {
	members := rotationMembers(3)
	*members[0].PayoutPosition = 5 // no member at position 1

	if _, err := planRotationAdvance(members, time.Now()); err == nil {
		t.Error("expected error when no member holds position 1")
	}

	if _, err := planRotationAdvance(nil, time.Now()); err == nil {
		t.Error("expected error for empty rotation")
	}
}

func TestPlanRotationAdvanceUnordered(t *testing.T) {
	// The plan sorts its own copy, so input order must not matter.
	members := rotationMembers(4)
	members[0], members[3] = members[3], members[0]

	updates, err := planRotationAdvance(members, time.Now())
	if err != nil {
		t.Fatalf("planRotationAdvance failed: %v", err)
	}
	for _, u := range updates {
		if u.MemberID == "member-1" && u.Position != 4 {
			t.Errorf("former head position = %d, want 4", u.Position)
		}
		if u.MemberID == "member-2" && u.Position != 1 {
			t.Errorf("member-2 position = %d, want 1", u.Position)
		}
	}
}
