package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OutcomeApplied = "applied"
	OutcomeIgnored = "ignored"
)

// BookingMetrics counts widget interactions and booking submissions.
type BookingMetrics struct {
	transitionsTotal *prometheus.CounterVec
	submissionsTotal *prometheus.CounterVec
	remindersTotal   *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "widget",
			Name:      "transitions_total",
			Help:      "Selection state transitions by action and outcome",
		}, []string{"action", "outcome"}),
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "submissions_total",
			Help:      "Booking form submissions by outcome",
		}, []string{"outcome"}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "reminders_total",
			Help:      "Reminder emails by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitionsTotal, m.submissionsTotal, m.remindersTotal)
	return m
}

func (m *BookingMetrics) ObserveTransition(action string, applied bool) {
	if m == nil {
		return
	}
	outcome := OutcomeIgnored
	if applied {
		outcome = OutcomeApplied
	}
	m.transitionsTotal.WithLabelValues(action, outcome).Inc()
}

func (m *BookingMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveReminder(outcome string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(outcome).Inc()
}
