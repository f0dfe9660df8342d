package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the admissions workflow.
type Metrics struct {
	Transitions             *prometheus.CounterVec
	PipelineMoves           *prometheus.CounterVec
	NotificationsDispatched *prometheus.CounterVec
	EmailsSent              *prometheus.CounterVec
	WorkflowEventsPublished prometheus.Counter
	TransitionDuration      *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "connect2uni_application_transitions_total",
			Help: "Application state machine transitions by operation and outcome",
		}, []string{"operation", "outcome"}),
		PipelineMoves: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "connect2uni_solicitor_pipeline_moves_total",
			Help: "Solicitor pipeline stage moves by operation and outcome",
		}, []string{"operation", "outcome"}),
		NotificationsDispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "connect2uni_notifications_dispatched_total",
			Help: "Notifications persisted, by delivery result of the realtime push",
		}, []string{"push"}),
		EmailsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "connect2uni_emails_sent_total",
			Help: "Outbound emails by template and result",
		}, []string{"template", "result"}),
		WorkflowEventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "connect2uni_workflow_events_published_total",
			Help: "Workflow audit events delivered to the event bus",
		}),
		TransitionDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "connect2uni_transition_duration_seconds",
			Help:    "Wall time of durable stage transitions",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// All observe helpers tolerate a nil receiver so components can run with
// metrics disabled (tests, one-off tooling).

// ObserveTransition records one state machine transition outcome.
func (m *Metrics) ObserveTransition(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Transitions.WithLabelValues(operation, outcome).Inc()
}

// ObservePipelineMove records one pipeline stage move outcome.
func (m *Metrics) ObservePipelineMove(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.PipelineMoves.WithLabelValues(operation, outcome).Inc()
}

// ObserveNotification records a persisted notification and whether the
// realtime push reached the broker.
func (m *Metrics) ObserveNotification(pushErr error) {
	if m == nil {
		return
	}
	push := "ok"
	if pushErr != nil {
		push = "error"
	}
	m.NotificationsDispatched.WithLabelValues(push).Inc()
}

// ObserveWorkflowEventsPublished counts events delivered to the bus.
func (m *Metrics) ObserveWorkflowEventsPublished(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.WorkflowEventsPublished.Add(float64(n))
}

// ObserveEmail records one outbound email attempt.
func (m *Metrics) ObserveEmail(template string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EmailsSent.WithLabelValues(template, result).Inc()
}
