package gateway

import "github.com/prometheus/client_golang/prometheus"

var requestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "playground",
		Name:      "gateway_requests_total",
		Help:      "Total number of remote gateway calls by outcome",
	},
	[]string{"gateway", "outcome"},
)

// Collectors returns the gateway metrics so the binary can register them
// with its own registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{requestsTotal}
}

func observe(gateway string, err error) {
	outcome := "success"
	if err != nil {
		outcome = KindOf(err).String()
	}
	requestsTotal.WithLabelValues(gateway, outcome).Inc()
}
