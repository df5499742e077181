package ecoapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// apiMetrics holds the Prometheus instruments on a private registry so
// each server instance registers cleanly.
type apiMetrics struct {
	registry            *prometheus.Registry
	entriesSubmitted    prometheus.Counter
	submissionsRejected prometheus.Counter
	ledgerResets        prometheus.Counter
	reportExports       prometheus.Counter
}

func newAPIMetrics() *apiMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &apiMetrics{
		registry: registry,
		entriesSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ecoledger_entries_submitted_total",
			Help: "Entries accepted into the ledger.",
		}),
		submissionsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "ecoledger_submissions_rejected_total",
			Help: "Submissions rejected by validation.",
		}),
		ledgerResets: factory.NewCounter(prometheus.CounterOpts{
			Name: "ecoledger_resets_total",
			Help: "Whole-ledger resets.",
		}),
		reportExports: factory.NewCounter(prometheus.CounterOpts{
			Name: "ecoledger_report_exports_total",
			Help: "CSV report downloads served.",
		}),
	}
}
