package server

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	forwards *prometheus.CounterVec
	latency  prometheus.Histogram
	swaps    prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		forwards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dualac",
			Name:      "forward_requests_total",
			Help:      "Forward requests by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dualac",
			Name:      "forward_duration_seconds",
			Help:      "Time spent in the forward pass.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		swaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dualac",
			Name:      "parameter_swaps_total",
			Help:      "Checkpoints loaded into the served network.",
		}),
	}
	reg.MustRegister(m.forwards, m.latency, m.swaps)
	return m
}
