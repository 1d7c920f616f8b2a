// Package metrics encapsulates Prometheus instrumentation for the
// registrar service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Service registers and exposes the core Prometheus collectors.
type Service struct {
	registry *prometheus.Registry
	handler  http.Handler

	eventsAppended    *prometheus.CounterVec
	outboxPublished   prometheus.Counter
	outboxFailed      prometheus.Counter
	projectionApplied *prometheus.CounterVec
	projectionFailed  *prometheus.CounterVec
	duplicateChecks   *prometheus.CounterVec
	replayDuration    *prometheus.HistogramVec
}

// NewService registers core Prometheus collectors.
func NewService() *Service {
	registry := prometheus.NewRegistry()

	eventsAppended := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registrar_events_appended_total",
		Help: "Total number of events appended to the event store",
	}, []string{"aggregate_type", "event_type"})

	outboxPublished := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "registrar_outbox_published_total",
		Help: "Total number of outbox events published to the broker",
	})

	outboxFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "registrar_outbox_publish_failures_total",
		Help: "Total number of outbox publish attempts that failed",
	})

	projectionApplied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registrar_projection_applied_total",
		Help: "Total number of events applied by each projection",
	}, []string{"subscriber"})

	projectionFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registrar_projection_failures_total",
		Help: "Total number of projection applications that failed",
	}, []string{"subscriber"})

	duplicateChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registrar_duplicate_checks_total",
		Help: "Outcomes of duplicate-check-then-register workflows",
	}, []string{"kind", "outcome"})

	replayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "registrar_replay_duration_seconds",
		Help:    "Duration of full read-model replays",
		Buckets: prometheus.DefBuckets,
	}, []string{"aggregate_type"})

	registry.MustRegister(
		eventsAppended,
		outboxPublished,
		outboxFailed,
		projectionApplied,
		projectionFailed,
		duplicateChecks,
		replayDuration,
	)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &Service{
		registry:          registry,
		handler:           handler,
		eventsAppended:    eventsAppended,
		outboxPublished:   outboxPublished,
		outboxFailed:      outboxFailed,
		projectionApplied: projectionApplied,
		projectionFailed:  projectionFailed,
		duplicateChecks:   duplicateChecks,
		replayDuration:    replayDuration,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *Service) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveEventAppended counts an event committed to the store.
func (m *Service) ObserveEventAppended(aggregateType, eventType string) {
	if m == nil {
		return
	}
	m.eventsAppended.WithLabelValues(aggregateType, eventType).Inc()
}

// ObserveOutboxPublish counts an outbox publish attempt.
func (m *Service) ObserveOutboxPublish(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.outboxPublished.Inc()
	} else {
		m.outboxFailed.Inc()
	}
}

// ObserveProjection counts a projection application for a subscriber.
func (m *Service) ObserveProjection(subscriber string, ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.projectionApplied.WithLabelValues(subscriber).Inc()
	} else {
		m.projectionFailed.WithLabelValues(subscriber).Inc()
	}
}

// ObserveDuplicateCheck counts a duplicate-check outcome ("registered",
// "duplicate" or "error") for an entity kind.
func (m *Service) ObserveDuplicateCheck(kind, outcome string) {
	if m == nil {
		return
	}
	m.duplicateChecks.WithLabelValues(kind, outcome).Inc()
}

// ObserveReplay records the duration of a full read-model replay in seconds.
func (m *Service) ObserveReplay(aggregateType string, seconds float64) {
	if m == nil {
		return
	}
	m.replayDuration.WithLabelValues(aggregateType).Observe(seconds)
}
