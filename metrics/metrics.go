// Package metrics exposes lazyvolet's Prometheus instrumentation: a
// backend lifecycle transition counter, an active-relay gauge, and a
// join-strategy outcome counter, in the same promauto/promhttp style
// worker/worker.go and worker/backend.go use for request durations and
// connected-player counts.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	lifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lazyvolet",
		Name:      "lifecycle_transitions_total",
		Help:      "Count of backend lifecycle transitions, by the state entered.",
	}, []string{"state"})

	activeRelays = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lazyvolet",
		Name:      "active_relays",
		Help:      "Number of client connections currently spliced to the backend.",
	})

	joinOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lazyvolet",
		Name:      "join_outcomes_total",
		Help:      "Count of join-strategy dispatches, by method and outcome.",
	}, []string{"method", "outcome"})
)

// RecordLifecycleTransition increments the counter for the state just
// entered. Called from server/supervisor.go right alongside every
// state.Server.SetLifecycle call.
func RecordLifecycleTransition(state string) {
	lifecycleTransitions.WithLabelValues(state).Inc()
}

// RelayStarted marks one more client as actively spliced to the
// backend. Call RelayEnded when the splice loop returns.
func RelayStarted() { activeRelays.Inc() }

// RelayEnded marks a previously-started relay as finished.
func RelayEnded() { activeRelays.Dec() }

// RecordJoinOutcome increments the outcome counter for one join-method
// dispatch, method being the configured name ("hold", "kick", ...) and
// outcome being "consumed" or "passed".
func RecordJoinOutcome(method, outcome string) {
	joinOutcomes.WithLabelValues(method, outcome).Inc()
}

// Serve starts a /metrics HTTP endpoint on bind and blocks until it
// errors, the same shape as worker/run.go's UsePrometheus block. The
// caller runs it in its own goroutine.
func Serve(bind string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: bind, Handler: mux}
	return srv.ListenAndServe()
}
