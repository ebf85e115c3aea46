package measure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	encodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codeceval_sweep_encodes_total",
		Help: "Encode/decode/metric jobs completed, by codec.",
	}, []string{"codec"})

	encodeFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codeceval_sweep_failures_total",
		Help: "Sweep jobs that failed, by codec and stage.",
	}, []string{"codec", "stage"})

	encodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codeceval_encode_duration_seconds",
		Help:    "Encode latency, by codec.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"codec"})
)
