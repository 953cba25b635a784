// Package monitoring exposes Prometheus metrics and the optional HTTP
// status endpoint reserved behind the --port flag.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TasksAccepted counts submissions that passed validation and were
	// acknowledged.
	TasksAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "granville_accepted_total",
		Help: "The total number of acknowledged submissions",
	})

	// TasksProcessed counts finished tasks by outcome.
	// Labels:
	//   - status: "success" or "failed"
	TasksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "granville_processed_total",
		Help: "The total number of processed tasks",
	}, []string{"status"})

	// TasksRejected counts submissions refused before an ack.
	TasksRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "granville_rejected_total",
		Help: "The total number of rejected submissions",
	})

	// InferenceDuration tracks generate latency in seconds.
	InferenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "granville_inference_duration_seconds",
		Help:    "Duration of backend generate calls",
		Buckets: prometheus.DefBuckets,
	})

	// QueueDepth tracks occupancy of the two queues.
	// Labels:
	//   - queue: "unranked" or "ranked"
	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "granville_queue_depth",
		Help: "Number of tasks in each queue",
	}, []string{"queue"})

	// ModelActiveRequests tracks per-model in-flight generate calls.
	ModelActiveRequests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "granville_model_active_requests",
		Help: "In-flight requests per loaded model",
	}, []string{"model_id"})
)
