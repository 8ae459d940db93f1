package pool

import (
	"errors"
	"time"

	"github.com/nspcc-dev/vdr-go/pkg/ledger/response"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics used in monitoring service.
var (
	requestsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of requests submitted to the pool",
			Name:      "requests_submitted",
			Namespace: "vdrgo",
			Subsystem: "pool",
		},
	)
	repliesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of pool replies agreed on by quorum by reply type",
			Name:      "replies",
			Namespace: "vdrgo",
			Subsystem: "pool",
		},
		[]string{"op"},
	)
	submitFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of failed submissions by failure kind",
			Name:      "submit_failures",
			Namespace: "vdrgo",
			Subsystem: "pool",
		},
		[]string{"kind"},
	)
	nodeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of node transport failures",
			Name:      "node_failures",
			Namespace: "vdrgo",
			Subsystem: "pool",
		},
	)
	submitTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Help:      "Request submission time",
			Name:      "submit_time",
			Namespace: "vdrgo",
			Subsystem: "pool",
		},
	)
)

func init() {
	prometheus.MustRegister(
		requestsSubmitted,
		repliesReceived,
		submitFailures,
		nodeFailures,
		submitTime,
	)
}

func addSubmitMetrics(start time.Time, op response.Op, err error) {
	submitTime.Observe(time.Since(start).Seconds())
	if err != nil {
		var kind = "connection"
		switch {
		case errors.Is(err, ErrTimeout):
			kind = "timeout"
		case errors.Is(err, ErrNoConsensus):
			kind = "no_consensus"
		}
		submitFailures.WithLabelValues(kind).Inc()
		return
	}
	repliesReceived.WithLabelValues(string(op)).Inc()
}
