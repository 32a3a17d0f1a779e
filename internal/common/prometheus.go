package common

import "github.com/prometheus/client_golang/prometheus"

const (
	HTTPRequestTotal           = "http_requests_total"
	HTTPRequestDurationSeconds = "http_request_duration_seconds"
	TokenTransitionsTotal      = "token_transitions_total"
	RouletteSpinsTotal         = "roulette_spins_total"
	BatchTokensIssuedTotal     = "batch_tokens_issued_total"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"method", "status_code"}),
		TokenTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: TokenTransitionsTotal,
			Help: "Count of token transitions by operation and result",
		}, []string{"op", "result"}),
		RouletteSpinsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: RouletteSpinsTotal,
			Help: "Count of recorded roulette spins",
		}, []string{"mode"}),
		BatchTokensIssuedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: BatchTokensIssuedTotal,
			Help: "Count of tokens issued by batch generation",
		}, []string{"reusable"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDurationSeconds,
			Help: "Duration of all HTTP requests",
		}, []string{"method", "status_code"}),
	}
)

// ObserveTransition counts one token operation. Result is "ok" or the reason
// of the returned error.
func ObserveTransition(op, result string) {
	PromCounters[TokenTransitionsTotal].WithLabelValues(op, result).Inc()
}
