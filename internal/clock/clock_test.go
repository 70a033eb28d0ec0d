package clock

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/passion-dev-group/guardian/internal/integrations/plaid"
	"github.com/passion-dev-group/guardian/internal/models"
	"github.com/sirupsen/logrus"
)

type fakeGetter struct {
	clock *plaid.TestClock
	err   error
}

func (f *fakeGetter) GetTestClock(ctx context.Context, id string) (*plaid.TestClock, error) {
	return f.clock, f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestResolverUsesTestClockInSandbox(t *testing.T) {
	virtual := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	getter := &fakeGetter{clock: &plaid.TestClock{TestClockID: "clock-1", VirtualTime: virtual}}
	r := NewResolver(false, getter, quietLogger())

	c := r.ForCircle(context.Background(), &models.Circle{ID: "circle-1", TestClockID: "clock-1"})
	if !c.Now().Equal(virtual) {
		t.Errorf("Now() = %v, want virtual time %v", c.Now(), virtual)
	}
}

func TestResolverFallsBackOnLookupFailure(t *testing.T) {
	getter := &fakeGetter{err: errors.New("vendor unavailable")}
	r := NewResolver(false, getter, quietLogger())

	c := r.ForCircle(context.Background(), &models.Circle{ID: "circle-1", TestClockID: "clock-1"})
	if _, ok := c.(Wall); !ok {
		t.Errorf("expected wall clock fallback, got %T", c)
	}
}

func TestResolverWallClockWithoutTestClock(t *testing.T) {
	r := NewResolver(false, &fakeGetter{}, quietLogger())
	c := r.ForCircle(context.Background(), &models.Circle{ID: "circle-1"})
	if _, ok := c.(Wall); !ok {
		t.Errorf("expected wall clock for circle without test clock, got %T", c)
	}
}

func TestResolverProductionIgnoresTestClock(t *testing.T) {
	getter := &fakeGetter{clock: &plaid.TestClock{VirtualTime: time.Now()}}
	r := NewResolver(true, getter, quietLogger())
	c := r.ForCircle(context.Background(), &models.Circle{ID: "circle-1", TestClockID: "clock-1"})
	if _, ok := c.(Wall); !ok {
		t.Errorf("expected wall clock in production, got %T", c)
	}
}
