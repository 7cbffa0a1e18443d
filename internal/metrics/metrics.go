package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the begin and submit counters.
const (
	OutcomeOK                = "ok"
	OutcomeAlreadySubmitted  = "already_submitted"
	OutcomeRejected          = "rejected"
	OutcomeError             = "error"
	OutcomeEventEnqueueError = "event_enqueue_error"
	OutcomePublished         = "published"
	OutcomePublishError      = "publish_error"
)

// Metrics groups the exam-core collectors. A nil *Metrics is valid and records nothing,
// which keeps services usable in tests without a registry.
type Metrics struct {
	begins      *prometheus.CounterVec
	submissions *prometheus.CounterVec
	events      *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		begins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exam_portal",
			Name:      "attempt_begins_total",
			Help:      "Attempt start requests by outcome code.",
		}, []string{"outcome"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exam_portal",
			Name:      "submissions_total",
			Help:      "Submit requests by outcome.",
		}, []string{"outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exam_portal",
			Name:      "score_events_total",
			Help:      "score.finalized events by delivery result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.begins, m.submissions, m.events)
	return m
}

// Begin counts an AccessGate decision.
func (m *Metrics) Begin(outcome string) {
	if m == nil {
		return
	}
	m.begins.WithLabelValues(outcome).Inc()
}

// Submit counts a SubmissionGuard decision.
func (m *Metrics) Submit(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// Event counts a score event delivery attempt.
func (m *Metrics) Event(result string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(result).Inc()
}
