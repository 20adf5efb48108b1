// Package metrics exports the totals of a run in the Prometheus text format,
// for node_exporter's textfile collector or any CI step that scrapes files.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dkoosis/brief/pkg/event"
	"github.com/dkoosis/brief/pkg/reporter"
)

const namespace = "brief"

// Collector holds the gauges for one run.
type Collector struct {
	expectedTests  prometheus.Gauge
	executedTests  prometheus.Gauge
	environments   prometheus.Gauge
	errorGroups    prometheus.Gauge
	repeatedErrors prometheus.Gauge
	duration       prometheus.Gauge
	success        prometheus.Gauge

	// Labels
	outcomes *prometheus.GaugeVec
	skipped  *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}
	c.expectedTests = gauge("expected_tests", "Tests announced by suite configuration")
	c.executedTests = gauge("executed_tests", "Tests that reported an outcome")
	c.environments = gauge("environments", "Environments configured for the run")
	c.errorGroups = gauge("error_groups", "Distinct test errors after grouping repeats")
	c.repeatedErrors = gauge("repeated_errors", "Test errors folded into an earlier group")
	c.duration = gauge("run_duration_seconds", "Wall time from first to last event")
	c.success = gauge("run_success", "1 when the suite ended OK, 0 otherwise")

	c.outcomes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "suite_results",
		Help:      "Final tallies reported by the runner",
	}, []string{"result"})
	c.skipped = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "input_lines_skipped",
		Help:      "Input lines that were not events",
	}, []string{"reason"})

	c.registry.MustRegister(
		c.expectedTests, c.executedTests, c.environments,
		c.errorGroups, c.repeatedErrors, c.duration, c.success,
		c.outcomes, c.skipped,
	)
	return c
}

// Observe records the state of a finished (or aborted) run.
func (c *Collector) Observe(st reporter.Stats, input event.StreamStats, elapsed time.Duration) {
	c.expectedTests.Set(float64(st.ExpectedTests))
	c.executedTests.Set(float64(st.ExecutedTests))
	c.environments.Set(float64(st.Environments))
	c.errorGroups.Set(float64(st.ErrorGroups))
	c.repeatedErrors.Set(float64(st.RepeatedErrors))
	c.duration.Set(elapsed.Seconds())

	c.skipped.WithLabelValues("malformed").Set(float64(input.Malformed))
	c.skipped.WithLabelValues("unknown").Set(float64(input.Unknown))

	if st.End == nil {
		c.success.Set(0)
		return
	}
	end := st.End
	c.outcomes.WithLabelValues("tests").Set(float64(end.Tests))
	c.outcomes.WithLabelValues("assertions").Set(float64(end.Assertions))
	c.outcomes.WithLabelValues("failures").Set(float64(end.Failures))
	c.outcomes.WithLabelValues("errors").Set(float64(end.Errors))
	c.outcomes.WithLabelValues("timeouts").Set(float64(end.Timeouts))
	c.outcomes.WithLabelValues("deferred").Set(float64(end.Deferred))
	if end.OK {
		c.success.Set(1)
	} else {
		c.success.Set(0)
	}
}

// WriteTextfile atomically writes the metrics to path.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
