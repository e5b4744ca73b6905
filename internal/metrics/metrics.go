// Package metrics wraps the Prometheus collectors exported by varbrokerd,
// grounded on the teacher's internal/metrics.Registry pattern.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps the Prometheus collectors exposed by the broker.
type Registry struct {
	RequestsTotal  *prometheus.CounterVec
	BlockedClients prometheus.GaugeFunc
	VariableCount  prometheus.GaugeFunc
	SignalsDropped prometheus.Counter
	RateLimited    prometheus.Counter
}

// NewRegistry builds the collector set. blockedFn/variableFn are sampled
// lazily by Prometheus on scrape, matching the gauge-func idiom used for
// figures the caller already tracks elsewhere (no separate bookkeeping
// here to go stale).
func NewRegistry(blockedFn, variableFn func() float64) *Registry {
	return &Registry{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "varbroker_requests_total",
			Help: "Total number of dispatcher requests, by request kind and result code.",
		}, []string{"kind", "code"}),
		BlockedClients: promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "varbroker_blocked_clients",
			Help: "Number of client sessions currently parked awaiting CALC/VALIDATE/PRINT.",
		}, blockedFn),
		VariableCount: promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "varbroker_variables",
			Help: "Number of variables currently registered.",
		}, variableFn),
		SignalsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "varbroker_signals_dropped_total",
			Help: "Total number of notification signals dropped due to a full subscriber queue.",
		}),
		RateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "varbroker_rate_limited_total",
			Help: "Total number of requests rejected by the per-session rate limiter.",
		}),
	}
}

// Handler exposes the registered collectors over HTTP.
func (r *Registry) Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest satisfies the dispatcher's metricsSink interface.
func (r *Registry) ObserveRequest(kind, code string) {
	r.RequestsTotal.WithLabelValues(kind, code).Inc()
}
