package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// MessagesTotal counts decoded feed messages by message type.
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cbfeed",
		Subsystem: "ws",
		Name:      "messages_total",
		Help:      "Total number of messages received from the websocket feed",
	}, []string{"type"})

	// ErrorsTotal counts errors that ended the receive loop, by kind.
	ErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cbfeed",
		Subsystem: "ws",
		Name:      "errors_total",
		Help:      "Total number of feed errors by kind",
	}, []string{"kind"})

	SinkErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cbfeed",
		Subsystem: "sink",
		Name:      "insert_errors_total",
		Help:      "Total number of failed sink inserts",
	})

	InsertLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cbfeed",
		Subsystem: "sink",
		Name:      "insert_latency_seconds",
		Help:      "Latency of a single sink insert (seconds)",
		Buckets:   prometheus.DefBuckets,
	})
)

// Register registers all metrics once. Without arguments it uses the
// default registerer.
func Register(registerers ...prometheus.Registerer) {
	once.Do(func() {
		var reg prometheus.Registerer
		if len(registerers) > 0 && registerers[0] != nil {
			reg = registerers[0]
		} else {
			reg = prometheus.DefaultRegisterer
		}
		register(reg)
	})
}

func register(reg prometheus.Registerer) {
	reg.MustRegister(
		MessagesTotal,
		ErrorsTotal,
		SinkErrors,
		InsertLatency,
	)
}
