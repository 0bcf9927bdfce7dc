package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_delivered_total",
			Help: "Delivery outcomes by channel and final status",
		},
		[]string{"channel", "status"},
	)

	NotificationDeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_delivery_duration_seconds",
			Help:    "Time spent in the channel provider call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"channel"},
	)

	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_events_dispatched_total",
			Help: "Internal events received, labelled by event name and whether it mapped to a type",
		},
		[]string{"event", "mapped"},
	)

	WebhookCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_webhook_calls_total",
			Help: "Outbound tenant webhook calls by result",
		},
		[]string{"result"},
	)

	ConfigCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_config_cache_lookups_total",
			Help: "Channel config cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)
