// Package metrics keeps Prometheus counters for a single aquote run and
// writes them in the node_exporter textfile format.
//
// aquote is a short-lived command, so nothing is served over HTTP. Point
// metrics.textfile at a directory watched by the node_exporter textfile
// collector to pick the counters up.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aquote"

// Registry holds the aquote collectors.
// Each Registry owns its own prometheus.Registry so tests do not share state.
type Registry struct {
	registry *prometheus.Registry

	fetchAttempts *prometheus.CounterVec
	quotesStored  prometheus.Gauge
}

// New creates a Registry with all collectors registered.
func New() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		fetchAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_attempts_total",
				Help:      "Quote fetch attempts by vendor and result",
			},
			[]string{"vendor", "result"},
		),
		quotesStored: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "history_quotes",
				Help:      "Number of quotes in the history after the last fetch",
			},
		),
	}

	r.registry.MustRegister(r.fetchAttempts, r.quotesStored)

	return r
}

// RecordFetchAttempt counts one fetch attempt against vendorKey.
func (r *Registry) RecordFetchAttempt(vendorKey, result string) {
	r.fetchAttempts.WithLabelValues(vendorKey, result).Inc()
}

// SetHistorySize records how many quotes the history holds.
func (r *Registry) SetHistorySize(n int) {
	r.quotesStored.Set(float64(n))
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all metrics to path. The file is written to a
// temporary name and renamed so collectors never see a partial file.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}

	return nil
}
