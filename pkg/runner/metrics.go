package runner

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/supporttools/service-doctor/pkg/types"
)

// Metrics collects Prometheus metrics for diagnostic runs.
type Metrics struct {
	probesTotal   *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	runsTotal     *prometheus.CounterVec
	criticalCount prometheus.Gauge
}

// NewMetrics creates the runner's metric collectors and registers them with
// the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		probesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "service_doctor",
			Name:      "probes_total",
			Help:      "Probe executions by kind, category, and status.",
		}, []string{"kind", "category", "status"}),
		probeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "service_doctor",
			Name:      "probe_duration_seconds",
			Help:      "Probe execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "service_doctor",
			Name:      "runs_total",
			Help:      "Diagnostic runs by tier.",
		}, []string{"tier"}),
		criticalCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "service_doctor",
			Name:      "critical_failures",
			Help:      "Critical failures observed in the most recent run.",
		}),
	}

	reg.MustRegister(m.probesTotal, m.probeDuration, m.runsTotal, m.criticalCount)
	return m
}

// ObserveProbe records one finished probe.
func (m *Metrics) ObserveProbe(result *types.DiagnosticResult, duration time.Duration) {
	m.probesTotal.WithLabelValues(
		result.Kind.String(),
		string(result.Category),
		string(result.Status),
	).Inc()
	m.probeDuration.WithLabelValues(result.Kind.String()).Observe(duration.Seconds())
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(run *types.Run) {
	m.runsTotal.WithLabelValues(string(run.Tier)).Inc()
	m.criticalCount.Set(float64(len(run.Summary.Critical)))
}
