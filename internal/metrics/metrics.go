// Package metrics records client-side counters for backend calls and store
// refreshes. Nothing scrapes a CLI, so the registry is exported to a node
// exporter textfile at the end of each command.
package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "agbank"

// Collector owns a private registry so tests and parallel clients never
// share series.
type Collector struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	refreshes       *prometheus.CounterVec
	fetchFailures   *prometheus.CounterVec
}

// NewCollector registers the agbank series on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Backend requests by operation and status code.",
			},
			[]string{"operation", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "Duration of backend requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
			[]string{"operation"},
		),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "refreshes_total",
				Help:      "Collection fetches performed by the data store.",
			},
			[]string{"collection"},
		),
		fetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "fetch_failures_total",
				Help:      "Collection fetches that failed and were reset to empty.",
			},
			[]string{"collection"},
		),
	}
	c.registry.MustRegister(c.requests, c.requestDuration, c.refreshes, c.fetchFailures)
	return c
}

// Registry exposes the underlying gatherer.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// RecordRequest counts one backend call. status 0 means the request never
// got a response.
func (c *Collector) RecordRequest(operation string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(operation, statusLabel(status)).Inc()
	c.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RequestCounter returns the series RecordRequest increments for operation
// and status.
func (c *Collector) RequestCounter(operation string, status int) prometheus.Counter {
	return c.requests.WithLabelValues(operation, statusLabel(status))
}

// RecordRefresh counts one collection fetch.
func (c *Collector) RecordRefresh(collection string, err error) {
	if c == nil {
		return
	}
	c.refreshes.WithLabelValues(collection).Inc()
	if err != nil {
		c.fetchFailures.WithLabelValues(collection).Inc()
	}
}

func statusLabel(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status)
}

// WriteTextfile atomically writes every series to path in the text
// exposition format.
func (c *Collector) WriteTextfile(path string) error {
	if path == "" {
		return errors.New("metrics: empty textfile path")
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
