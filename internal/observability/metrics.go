package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "disaster_watch"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Realtime alert consumer metrics.
	MessagesConsumed        prometheus.Counter
	AlertsDispatched        prometheus.Counter
	AlertsFiltered          *prometheus.CounterVec // labels: reason={severity,expired}
	TransformErrors         prometheus.Counter
	ConsumerRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Push channel metrics.
	Subscribers       prometheus.Gauge
	ToastsDelivered   prometheus.Counter
	ToastsDropped     prometheus.Counter
	PushNotifications *prometheus.CounterVec // labels: outcome={success,failure}

	// AI chat proxy and damage assessment metrics.
	ChatRequests      *prometheus.CounterVec // labels: outcome={success,invalid,upstream_error}
	ChatDuration      prometheus.Histogram
	DamageAssessments *prometheus.CounterVec // labels: status={completed,failed}

	// Hazard snapshot metrics.
	HazardRefreshes      *prometheus.CounterVec // labels: outcome={success,error}
	HazardSnapshotSize   prometheus.Gauge
	HazardSnapshotLoaded prometheus.Gauge // unix seconds of the last successful load
	AlertsExpired        prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_messages_consumed_total",
			Help:      "Total realtime alert messages read from the alert topic.",
		}),
		AlertsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_alerts_dispatched_total",
			Help:      "Total realtime alerts handed to subscribers and device push.",
		}),
		AlertsFiltered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_alerts_filtered_total",
			Help:      "Realtime alerts dropped before dispatch, by reason.",
		}, []string{"reason"}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_transform_errors_total",
			Help:      "Total realtime alert messages that could not be parsed.",
		}),
		ConsumerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_consumer_running",
			Help:      "1 when the realtime consumer is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "realtime_batch_size",
			Help:      "Number of messages per batch read from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "realtime_batch_processing_duration_seconds",
			Help:      "Duration of a complete read-admit-dispatch cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_subscribers",
			Help:      "Currently connected push channel subscribers.",
		}),
		ToastsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_toasts_delivered_total",
			Help:      "Toasts queued to subscribers.",
		}),
		ToastsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_toasts_dropped_total",
			Help:      "Toasts dropped because a subscriber buffer was full.",
		}),
		PushNotifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_notifications_total",
			Help:      "Device push notifications by outcome.",
		}, []string{"outcome"}),
		ChatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "AI chat proxy requests by outcome.",
		}, []string{"outcome"}),
		ChatDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_upstream_duration_seconds",
			Help:      "Language model API request duration in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		DamageAssessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "damage_assessments_total",
			Help:      "Damage assessments by final status.",
		}, []string{"status"}),
		HazardRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazard_refreshes_total",
			Help:      "Hazard snapshot reloads by outcome.",
		}, []string{"outcome"}),
		HazardSnapshotSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hazard_snapshot_size",
			Help:      "Number of hazards in the current snapshot.",
		}),
		HazardSnapshotLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hazard_snapshot_loaded_timestamp_seconds",
			Help:      "Unix time of the last successful hazard snapshot load.",
		}),
		AlertsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_alerts_expired_total",
			Help:      "Realtime alerts deactivated after their expiry time.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Reverse geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when reverse geocoding is enabled, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.MessagesConsumed,
		m.AlertsDispatched,
		m.AlertsFiltered,
		m.TransformErrors,
		m.ConsumerRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.Subscribers,
		m.ToastsDelivered,
		m.ToastsDropped,
		m.PushNotifications,
		m.ChatRequests,
		m.ChatDuration,
		m.DamageAssessments,
		m.HazardRefreshes,
		m.HazardSnapshotSize,
		m.HazardSnapshotLoaded,
		m.AlertsExpired,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	}
}
