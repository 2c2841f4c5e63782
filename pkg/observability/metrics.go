package observability

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/auraflow/pkg/domain"
)

// Metrics holds the engine collectors.
type Metrics struct {
	NodeVisits    *prometheus.CounterVec
	Entries       *prometheus.CounterVec
	Resets        *prometheus.CounterVec
	HandlerErrors *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auraflow_node_visits_total",
				Help: "Total number of node visits",
			},
			[]string{"kind"},
		),
		Entries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auraflow_transcript_entries_total",
				Help: "Transcript entries appended, by role",
			},
			[]string{"role"},
		),
		Resets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auraflow_conversation_resets_total",
				Help: "Conversations returned to idle, by reason",
			},
			[]string{"reason"},
		),
		HandlerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auraflow_handler_errors_total",
				Help: "Recovered handler errors, by category",
			},
			[]string{"category"},
		),
	}
	reg.MustRegister(m.NodeVisits, m.Entries, m.Resets, m.HandlerErrors)
	return m
}

// Hooks records every lifecycle event.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(string(e.Kind)).Inc()
		},
		OnEntry: func(_ context.Context, e *domain.EntryEvent) {
			m.Entries.WithLabelValues(string(e.Entry.Role)).Inc()
		},
		OnReset: func(_ context.Context, e *domain.ResetEvent) {
			m.Resets.WithLabelValues(string(e.Reason)).Inc()
		},
		OnHandlerError: func(_ context.Context, e *domain.HandlerErrorEvent) {
			m.HandlerErrors.WithLabelValues(Category(e.Err)).Inc()
		},
	}
}

// Category names the taxonomy class of err.
func Category(err error) string {
	switch {
	case domain.IsInvalidUserInput(err):
		return "invalid_input"
	case domain.IsExternalFailure(err):
		return "external"
	case domain.IsMalformedGraph(err):
		return "malformed_graph"
	case domain.IsNotPublished(err):
		return "not_published"
	default:
		return "other"
	}
}

// LoggingHooks logs lifecycle events. Entry content is never logged.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter", "session_id", e.SessionID, "node_id", e.NodeID, "kind", e.Kind)
		},
		OnReset: func(ctx context.Context, e *domain.ResetEvent) {
			logger.InfoContext(ctx, "conversation_reset", "session_id", e.SessionID, "reason", e.Reason)
		},
		OnHandlerError: func(ctx context.Context, e *domain.HandlerErrorEvent) {
			logger.DebugContext(ctx, "handler_error",
				"session_id", e.SessionID,
				"node_id", e.NodeID,
				"category", Category(e.Err),
			)
		},
	}
}
