// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts searches and transfers with Prometheus collectors
// on a private registry. A CLI run can dump the registry to a
// node-exporter textfile when it finishes.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdiddy/sara-fetch/pkg/types"
)

const namespace = "sara_fetch"

// statusFailed labels transfers that returned an error.
const statusFailed = "failed"

// Metrics holds the sara-fetch collectors.
type Metrics struct {
	registry *prometheus.Registry

	transfersTotal   *prometheus.CounterVec
	errorsTotal      prometheus.Counter
	bytesWritten     prometheus.Counter
	transferDuration *prometheus.HistogramVec
	searchResults    prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.transfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Transfers finished, by outcome status.",
		},
		[]string{"status"},
	)
	m.errorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transfer_errors_total",
		Help:      "Transfers that ended in an error.",
	})
	m.bytesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bytes_written_total",
		Help:      "Bytes written to product archives.",
	})
	// Buckets: 1s to ~68min; GRD archives run from hundreds of MB to a few GB.
	m.transferDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transfer_duration_seconds",
			Help:      "Wall time of transfers, by outcome status.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 13),
		},
		[]string{"status"},
	)
	m.searchResults = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "search_results",
		Help:      "Products returned by the last catalog search.",
	})

	m.registry.MustRegister(
		m.transfersTotal,
		m.errorsTotal,
		m.bytesWritten,
		m.transferDuration,
		m.searchResults,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Observe records one finished transfer.
func (m *Metrics) Observe(outcome types.TransferOutcome, elapsed time.Duration, err error) {
	status := string(outcome.Status)
	if err != nil {
		status = statusFailed
		m.errorsTotal.Inc()
	}
	m.transfersTotal.WithLabelValues(status).Inc()
	m.transferDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	if outcome.BytesWritten > 0 {
		m.bytesWritten.Add(float64(outcome.BytesWritten))
	}
}

// ObserveSearch records the size of a search result.
func (m *Metrics) ObserveSearch(results int) {
	m.searchResults.Set(float64(results))
}

// WriteTextfile writes every metric to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
