// Package metrics exposes Prometheus instrumentation for the treasurer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Commands counts every recognized or ignored message by kind.
	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tally",
		Name:      "commands_total",
		Help:      "Messages handled, by command kind.",
	}, []string{"kind"})

	// Expenses counts successfully finalized expenses.
	Expenses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tally",
		Name:      "expenses_finalized_total",
		Help:      "Expenses finalized and applied to the ledger.",
	})

	// ExpenseFailures counts discarded expenses by rejection reason.
	ExpenseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tally",
		Name:      "expense_failures_total",
		Help:      "Expenses discarded without touching the ledger, by reason.",
	}, []string{"reason"})

	// Settlements counts settlement computations.
	Settlements = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tally",
		Name:      "settlements_total",
		Help:      "Settlement plans computed.",
	})

	// SettlementStatements observes the number of transfers per settlement.
	SettlementStatements = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tally",
		Name:      "settlement_statements",
		Help:      "Transfers per computed settlement plan.",
		Buckets:   prometheus.LinearBuckets(0, 1, 11),
	})
)

// Serve exposes the default registry on addr. It blocks until the listener
// fails.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
