// Package clock abstracts "now" for cycle scheduling. Production circles run
// on wall-clock time; sandbox circles run on the vendor's test clock so
// scheduled dates can be advanced deterministically.
package clock

import (
	"context"
	"time"

	"github.com/passion-dev-group/guardian/internal/integrations/plaid"
	"github.com/passion-dev-group/guardian/internal/models"
	"github.com/sirupsen/logrus"
)

// Clock yields the current time for one circle.
type Clock interface {
	Now() time.Time
}

// Wall is the real-time clock.
type Wall struct{}

func (Wall) Now() time.Time { return time.Now().UTC() }

// Fixed is a clock frozen at a single instant.
type Fixed struct {
	Time time.Time
}

func (f Fixed) Now() time.Time { return f.Time }

// TestClockGetter fetches a sandbox clock's virtual time from the vendor.
type TestClockGetter interface {
	GetTestClock(ctx context.Context, id string) (*plaid.TestClock, error)
}

// Resolver picks the clock for a circle: the vendor test clock in sandbox,
// wall clock otherwise. Lookup failures degrade to wall clock.
type Resolver struct {
	production bool
	vendor     TestClockGetter
	log        *logrus.Logger
}

// NewResolver creates a resolver. vendor may be nil in production.
func NewResolver(production bool, vendor TestClockGetter, log *logrus.Logger) *Resolver {
	return &Resolver{production: production, vendor: vendor, log: log}
}

// ForCircle resolves the clock governing one circle's schedule.
func (r *Resolver) ForCircle(ctx context.Context, circle *models.Circle) Clock {
	if r.production || circle.TestClockID == "" || r.vendor == nil {
		return Wall{}
	}

	tc, err := r.vendor.GetTestClock(ctx, circle.TestClockID)
	if err != nil {
		r.log.Warnf("Test clock lookup failed for circle %s, falling back to wall clock: %v", circle.ID, err)
		return Wall{}
	}
	return Fixed{Time: tc.VirtualTime}
}
