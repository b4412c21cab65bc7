// Package metrics exports lint results as Prometheus metrics.
//
// depfence runs once and exits, so metrics are written to a textfile for
// the node exporter's textfile collector rather than served.
//
// Metrics:
//   - depfence_findings: findings of the last run by rule and severity
//   - depfence_packages: packages evaluated by the last run
//   - depfence_run_duration_seconds: duration of the last run
//   - depfence_last_run_timestamp_seconds: completion time of the last run
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/macropower/depfence/pkg/engine"
	"github.com/macropower/depfence/pkg/finding"
)

const namespace = "depfence"

// Recorder holds the metrics of the most recent run.
type Recorder struct {
	// rules that always have a findings series, even at zero.
	rules       map[string]bool
	registry    *prometheus.Registry
	findings    *prometheus.GaugeVec
	packages    prometheus.Gauge
	duration    prometheus.Gauge
	lastRunTime prometheus.Gauge
}

// Opt configures a [Recorder].
type Opt func(*Recorder)

// WithRules pre-declares rule names, so that their findings series exist
// at zero before any finding is reported.
func WithRules(names ...string) Opt {
	return func(r *Recorder) {
		for _, name := range names {
			r.rules[name] = true
		}
	}
}

// NewRecorder creates a [Recorder] with its own registry.
func NewRecorder(opts ...Opt) *Recorder {
	r := &Recorder{
		rules:    map[string]bool{},
		registry: prometheus.NewRegistry(),
		findings: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "findings",
				Help:      "Number of findings of the last run",
			},
			[]string{"rule", "severity"},
		),
		packages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "packages",
			Help:      "Number of packages evaluated by the last run",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run in seconds",
		}),
		lastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time at which the last run completed",
		}),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.registry.MustRegister(r.findings, r.packages, r.duration, r.lastRunTime)

	return r
}

// Registry returns the registry the metrics are registered with.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe replaces the recorded metrics with those of report.
//
// Every severity of every declared rule, and of every rule seen by an
// earlier Observe, is reported. A fixed finding therefore drops to zero
// instead of disappearing.
func (r *Recorder) Observe(report *engine.Report) {
	r.findings.Reset()

	for _, f := range report.Findings {
		r.rules[f.Rule] = true
	}

	for name := range r.rules {
		for _, sev := range []finding.Severity{finding.Info, finding.Warn, finding.Error} {
			r.findings.WithLabelValues(name, sev.String())
		}
	}

	for _, f := range report.Findings {
		r.findings.WithLabelValues(f.Rule, f.Severity.String()).Inc()
	}

	r.packages.Set(float64(report.Packages))
	r.duration.Set(report.Duration.Seconds())
	r.lastRunTime.Set(float64(time.Now().Unix()))
}

// WriteTextfile atomically writes the metrics to path in the Prometheus
// text format.
func (r *Recorder) WriteTextfile(path string) error {
	err := prometheus.WriteToTextfile(path, r.registry)
	if err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}

	return nil
}
