// Package schedule computes transfer schedules and payout intervals from a
// circle's contribution frequency. All functions are pure.
package schedule

import (
	"fmt"
	"time"

	"github.com/passion-dev-group/guardian/internal/models"
)

// IntervalUnit is the vendor-side recurrence unit
type IntervalUnit string

const (
	UnitWeek  IntervalUnit = "week"
	UnitMonth IntervalUnit = "month"
)

// TransferSchedule describes a vendor recurring-transfer schedule.
// ExecutionDay is an ISO weekday (1=Monday..5=Friday) for week units and a
// day of month for month units.
type TransferSchedule struct {
	StartDate     time.Time    `json:"start_date"`
	IntervalUnit  IntervalUnit `json:"interval_unit"`
	IntervalCount int          `json:"interval_count"`
	ExecutionDay  int          `json:"interval_execution_day"`
}

// Interval returns the recurrence unit and count for a frequency.
func Interval(f models.Frequency) (IntervalUnit, int, error) {
	switch f {
	case models.FrequencyWeekly:
		return UnitWeek, 1, nil
	case models.FrequencyBiweekly:
		return UnitWeek, 2, nil
	case models.FrequencyMonthly:
		return UnitMonth, 1, nil
	case models.FrequencyQuarterly:
		return UnitMonth, 3, nil
	case models.FrequencyYearly:
		return UnitMonth, 12, nil
	}
	return "", 0, fmt.Errorf("unsupported frequency: %s", f)
}

// NextBusinessDay returns the first weekday strictly after t.
func NextBusinessDay(t time.Time) time.Time {
	d := t.AddDate(0, 0, 1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// Build computes the schedule for a circle starting from "now". The start
// date is the next business day; the execution day is derived from it.
func Build(f models.Frequency, now time.Time) (TransferSchedule, error) {
	unit, count, err := Interval(f)
	if err != nil {
		return TransferSchedule{}, err
	}

	start := NextBusinessDay(now)
	s := TransferSchedule{
		StartDate:     start,
		IntervalUnit:  unit,
		IntervalCount: count,
	}
	if unit == UnitWeek {
		// time.Weekday has Sunday=0; vendor weekdays are 1=Monday..5=Friday.
		s.ExecutionDay = int(start.Weekday())
	} else {
		s.ExecutionDay = start.Day()
	}
	return s, nil
}

// PayoutIntervalDays returns the day-granularity spacing between payouts.
// Calendar-aware month arithmetic is deliberately not used here; the payout
// cycle runs on fixed day counts.
func PayoutIntervalDays(f models.Frequency) int {
	switch f {
	case models.FrequencyWeekly:
		return 7
	case models.FrequencyBiweekly:
		return 14
	case models.FrequencyQuarterly:
		return 90
	case models.FrequencyYearly:
		return 365
	default:
		return 30
	}
}

// NextPayoutDate returns the payout date one cycle after "from".
func NextPayoutDate(f models.Frequency, from time.Time) time.Time {
	return from.AddDate(0, 0, PayoutIntervalDays(f))
}
