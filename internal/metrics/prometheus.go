package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	shifts     *prom.CounterVec
	hours      *prom.HistogramVec
	rejected   *prom.CounterVec
	overwrites prom.Counter
	reminders  *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		shifts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fleet",
			Name:      "shift_transitions_total",
			Help:      "Shift lifecycle transitions by event",
		}, []string{"event"}),
		hours: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "fleet",
			Name:      "shift_worked_hours",
			Help:      "Hour-meter hours recorded per closed shift",
			Buckets:   []float64{1, 2, 4, 6, 8, 10, 12, 16, 24},
		}, []string{"machine_type"}),
		rejected: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fleet",
			Name:      "rejected_readings_total",
			Help:      "Hour-meter readings refused by reconciliation",
		}, []string{"reason"}),
		overwrites: prom.NewCounter(prom.CounterOpts{
			Namespace: "fleet",
			Name:      "hour_meter_overwrites_total",
			Help:      "Closes that overwrote a hour-meter advanced by someone else",
		}),
		reminders: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fleet",
			Name:      "maintenance_reminders_total",
			Help:      "Maintenance reminder pushes by result",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.shifts, pr.hours, pr.rejected, pr.overwrites, pr.reminders)
	return pr
}

func (p *PrometheusRecorder) IncShift(event ShiftEvent) {
	p.shifts.WithLabelValues(string(event)).Inc()
}

func (p *PrometheusRecorder) ObserveWorkedHours(machineType string, hours float64) {
	p.hours.WithLabelValues(machineType).Observe(hours)
}

func (p *PrometheusRecorder) IncRejectedReading(reason RejectReason) {
	p.rejected.WithLabelValues(string(reason)).Inc()
}

func (p *PrometheusRecorder) IncHourMeterOverwrite() {
	p.overwrites.Inc()
}

func (p *PrometheusRecorder) IncReminder(success bool) {
	result := "failed"
	if success {
		result = "success"
	}
	p.reminders.WithLabelValues(result).Inc()
}

// HTTPHandler returns an http.Handler that serves the metrics of reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
