package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AlertMetrics records fan-out behavior for lost-pet alerts.
type AlertMetrics struct {
	fanoutDuration *prometheus.HistogramVec
	recipients     *prometheus.HistogramVec
	failures       *prometheus.CounterVec
}

// NewAlertMetrics registers the alert metrics on the provided registerer.
func NewAlertMetrics(reg prometheus.Registerer) *AlertMetrics {
	if reg == nil {
		return &AlertMetrics{}
	}
	fanoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "alert_fanout_duration_seconds",
		Help:    "Duration of lost-pet alert fan-out in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	recipients := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "alert_fanout_recipients",
		Help:    "Recipients notified per alert fan-out.",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
	}, []string{"kind"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "alert_fanout_failures_total",
		Help: "Failed alert fan-out attempts.",
	}, []string{"kind"})
	reg.MustRegister(fanoutDuration, recipients, failures)
	return &AlertMetrics{
		fanoutDuration: fanoutDuration,
		recipients:     recipients,
		failures:       failures,
	}
}

// ObserveFanout records the duration and recipient count for a fan-out.
func (a *AlertMetrics) ObserveFanout(kind string, duration time.Duration, recipientCount int) {
	if a == nil || a.fanoutDuration == nil {
		return
	}
	label := normalizeLabel(kind)
	a.fanoutDuration.WithLabelValues(label).Observe(duration.Seconds())
	a.recipients.WithLabelValues(label).Observe(float64(recipientCount))
}

// IncFailure increments the failure counter for the given alert kind.
func (a *AlertMetrics) IncFailure(kind string) {
	if a == nil || a.failures == nil {
		return
	}
	a.failures.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return strings.ReplaceAll(value, " ", "_")
}
