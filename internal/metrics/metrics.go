// Package metrics exposes prometheus counters for the rotation pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EnrollmentsTotal counts per-member enrollment attempts by result.
	EnrollmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guardian_enrollments_total",
		Help: "Recurring contribution enrollment attempts by result.",
	}, []string{"result"})

	// CyclesEndedTotal counts cycles the daily check flagged as ended.
	CyclesEndedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guardian_cycles_ended_total",
		Help: "Circle cycles detected as ended by the daily check.",
	})

	// PayoutsTotal counts payout attempts by outcome. The pending_review
	// outcome is the one worth alerting on: funds need manual follow-up.
	PayoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guardian_payouts_total",
		Help: "Payout attempts by outcome (settled, pending_review, rejected).",
	}, []string{"outcome"})
)

// Handler returns the prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
