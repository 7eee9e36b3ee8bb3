package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Pipeline PipelineMetrics
	Outbox   OutboxMetrics
	Kafka    KafkaMetrics
	API      APIMetrics
}

type PipelineMetrics struct {
	ConsumerRunsTotal      *prometheus.CounterVec
	ConsumerBatchSize      *prometheus.HistogramVec
	ConsumerEntriesSkipped *prometheus.CounterVec
	ConsumerRunDuration    *prometheus.HistogramVec
}

type OutboxMetrics struct {
	DeliveryAttemptLatencySeconds *prometheus.HistogramVec
	DeliveriesTotal               *prometheus.CounterVec
	StrandedTotal                 prometheus.Counter
	PendingBatchSize              prometheus.Histogram
}

type KafkaMetrics struct {
	// Producer (DLQ)
	ProducerAttemptLatencySeconds *prometheus.HistogramVec
	ProducerOperationsTotal       *prometheus.CounterVec

	// Consumer (доменные события)
	ConsumerMessagesTotal   *prometheus.CounterVec
	ConsumerProcessDuration *prometheus.HistogramVec
	ConsumerRebalancesTotal *prometheus.CounterVec
}

type APIMetrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Pipeline: PipelineMetrics{
			ConsumerRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
				Namespace: "notifier",
				Subsystem: "pipeline",
				Name:      "consumer_runs_total",
				Help:      "Consumer runs by consumer name and result.",
			}, []string{"consumer", "result"}), // ok|empty|error

			ConsumerBatchSize: f.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "notifier",
				Subsystem: "pipeline",
				Name:      "consumer_batch_size",
				Help:      "Number of log entries fetched per consumer run.",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
			}, []string{"consumer"}),

			ConsumerEntriesSkipped: f.NewCounterVec(prometheus.CounterOpts{
				Namespace: "notifier",
				Subsystem: "pipeline",
				Name:      "consumer_entries_skipped_total",
				Help:      "Log entries skipped by reason (missing aggregate, unmapped kind).",
			}, []string{"consumer", "reason"}),

			ConsumerRunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "notifier",
				Subsystem: "pipeline",
				Name:      "consumer_run_duration_seconds",
				Help:      "Consumer batch duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"consumer"}),
		},

		Outbox: OutboxMetrics{
			DeliveryAttemptLatencySeconds: f.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "notifier",
				Subsystem: "outbox",
				Name:      "delivery_attempt_latency_seconds",
				Help:      "Latency per single delivery attempt.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"result"}), // ok|error

			DeliveriesTotal: f.NewCounterVec(prometheus.CounterOpts{
				Namespace: "notifier",
				Subsystem: "outbox",
				Name:      "deliveries_total",
				Help:      "Delivery attempts by result.",
			}, []string{"result"}), // success|failed|no_chat_id

			StrandedTotal: f.NewCounter(prometheus.CounterOpts{
				Namespace: "notifier",
				Subsystem: "outbox",
				Name:      "stranded_total",
				Help:      "Outbox rows that aged out of the freshness window unprocessed.",
			}),

			PendingBatchSize: f.NewHistogram(prometheus.HistogramOpts{
				Namespace: "notifier",
				Subsystem: "outbox",
				Name:      "pending_batch_size",
				Help:      "Number of pending rows picked per delivery run.",
				Buckets:   []float64{0, 1, 5, 10, 20, 30},
			}),
		},

		Kafka: KafkaMetrics{
			ProducerAttemptLatencySeconds: f.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "notifier",
				Subsystem: "kafka",
				Name:      "producer_attempt_latency_seconds",
				Help:      "Latency per single produce attempt.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"topic", "result"}), // ok|error

			ProducerOperationsTotal: f.NewCounterVec(prometheus.CounterOpts{
				Namespace: "notifier",
				Subsystem: "kafka",
				Name:      "producer_operations_total",
				Help:      "Total produce operations (one call) by result.",
			}, []string{"topic", "result"}), // success|failed|permanent|canceled

			ConsumerMessagesTotal: f.NewCounterVec(prometheus.CounterOpts{
				Namespace: "notifier",
				Subsystem: "kafka",
				Name:      "consumer_messages_total",
				Help:      "Total consumed Kafka messages by topic.",
			}, []string{"topic"}),

			ConsumerProcessDuration: f.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "notifier",
				Subsystem: "kafka",
				Name:      "consumer_process_duration_seconds",
				Help:      "Kafka message processing duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"topic"}),

			ConsumerRebalancesTotal: f.NewCounterVec(prometheus.CounterOpts{
				Namespace: "notifier",
				Subsystem: "kafka",
				Name:      "consumer_rebalances_total",
				Help:      "Consumer rebalance lifecycle events.",
			}, []string{"event"}),
		},

		API: APIMetrics{
			HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
				Namespace: "notifier",
				Subsystem: "api",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by method, path and status.",
			}, []string{"method", "path", "status"}),

			HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "notifier",
				Subsystem: "api",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency.",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			}, []string{"method", "path", "status"}),
		},
	}
}
