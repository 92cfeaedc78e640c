package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records auth outcomes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	logouts       *prometheus.CounterVec
	loginSeconds  prometheus.Histogram
}

// NewMetrics creates and registers the auth collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessiond",
			Subsystem: "auth",
			Name:      "registrations_total",
			Help:      "Registration attempts by result.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessiond",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessiond",
			Subsystem: "auth",
			Name:      "logouts_total",
			Help:      "Logout attempts by result.",
		}, []string{"result"}),
		loginSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sessiond",
			Subsystem: "auth",
			Name:      "login_duration_seconds",
			Help:      "Wall time of successful logins, lookups included.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.registrations, m.logins, m.logouts, m.loginSeconds)
	}
	return m
}

func (m *Metrics) registration(result string) {
	if m != nil {
		m.registrations.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) login(result string, started time.Time) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
	if result == resultOK {
		m.loginSeconds.Observe(time.Since(started).Seconds())
	}
}

func (m *Metrics) logout(result string) {
	if m != nil {
		m.logouts.WithLabelValues(result).Inc()
	}
}
