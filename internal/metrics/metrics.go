package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	cartMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Total number of cart mutations by operation and outcome.",
		},
		[]string{"op", "status"},
	)

	reconciliations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "reconciliations_total",
			Help:      "Total number of remote cart reconciliations.",
		},
		[]string{"status"},
	)

	sessionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Total number of session state transitions.",
		},
		[]string{"to"},
	)

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of backend API requests.",
		},
		[]string{"method", "status"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "devserver",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the dev server.",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	Registry.MustRegister(cartMutations, reconciliations, sessionTransitions, apiRequests, httpRequests)
}

// ObserveMutation records a cart mutation outcome.
func ObserveMutation(op, status string) {
	cartMutations.WithLabelValues(op, status).Inc()
}

// ObserveReconciliation records a reconciliation outcome.
func ObserveReconciliation(status string) {
	reconciliations.WithLabelValues(status).Inc()
}

// ObserveSessionTransition records entry into a session state.
func ObserveSessionTransition(to string) {
	sessionTransitions.WithLabelValues(to).Inc()
}

// ObserveAPIRequest records one backend API request and its HTTP status.
// Transport-level failures are recorded with status 0.
func ObserveAPIRequest(method string, status int) {
	apiRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// ObserveHTTPRequest records one request handled by the dev server.
func ObserveHTTPRequest(method, path string, status int) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
