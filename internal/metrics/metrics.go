package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics collects pipeline counters. The tool has no HTTP surface; the
// registry exists so operators can scrape or dump counters from tooling.
type Metrics struct {
	Registry *prometheus.Registry

	RowsMerged       *prometheus.CounterVec
	AttendeesCreated prometheus.Counter
	FeedFailures     *prometheus.CounterVec
	IssuesOpened     *prometheus.CounterVec
	IssuesResolved   *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		RowsMerged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "badgefile_rows_merged_total",
			Help: "Raw feed rows merged into attendees.",
		}, []string{"feed"}),
		AttendeesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badgefile_attendees_created_total",
			Help: "New attendees created because no existing record matched.",
		}),
		FeedFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "badgefile_feed_failures_total",
			Help: "Feed imports that failed loudly and were skipped.",
		}, []string{"feed"}),
		IssuesOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "badgefile_issues_opened_total",
			Help: "Issues newly opened by a scan.",
		}, []string{"issue_type"}),
		IssuesResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "badgefile_issues_resolved_total",
			Help: "Issues resolved by a scan.",
		}, []string{"issue_type"}),
	}

	registry.MustRegister(
		m.RowsMerged,
		m.AttendeesCreated,
		m.FeedFailures,
		m.IssuesOpened,
		m.IssuesResolved,
	)
	return m
}

// Module wires pipeline metrics.
var Module = fx.Module("metrics",
	fx.Provide(New),
)
