// Package metrics exposes the IST daemon's Prometheus instrumentation:
// bytes and events streamed, outbound queue depth per segment, and catch-up
// progress, registered in a dedicated, non-default Registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	EventsStreamed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ist",
			Name:      "events_streamed_total",
			Help:      "Total number of replication events streamed, labeled by role and action type.",
		},
		[]string{"role", "type"},
	)

	BytesTransferred = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ist",
			Name:      "bytes_transferred_total",
			Help:      "Total number of payload bytes transferred, labeled by role.",
		},
		[]string{"role"},
	)

	// QueueDepth is registered and exported, but no code path in this
	// module sets it, so it carries no per-segment samples.
	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ist",
			Name:      "fsq_queue_depth",
			Help:      "Number of datagrams queued per fair-segment-queue segment.",
		},
		[]string{"segment"},
	)

	ProgressCurrentSeqno = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ist",
			Name:      "receiver_current_seqno",
			Help:      "Seqno of the most recently applied or preloaded event on the receiver side.",
		},
	)

	ProgressLastSeqno = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ist",
			Name:      "receiver_last_seqno",
			Help:      "Target last seqno for the in-progress IST run.",
		},
	)
)

func init() {
	Registry.MustRegister(EventsStreamed, BytesTransferred, QueueDepth, ProgressCurrentSeqno, ProgressLastSeqno)
}

// Handler exposes /metrics. Mount it with mux.Handle("/metrics", metrics.Handler()).
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
