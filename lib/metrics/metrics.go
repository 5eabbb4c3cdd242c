// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics exposes client counters in the Prometheus text
// format. The counters are owned elsewhere; a [Collector] reads them
// through a sampling function at scrape time.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "supportchat"

// Sample is a point-in-time reading of the client's counters.
type Sample struct {
	PollTicks       uint64
	PollSkipped     uint64
	Refreshes       uint64
	RefreshFailures uint64

	Writes        uint64
	WriteFailures uint64

	PlainMessages uint64
	Generations   uint64
	Fallbacks     uint64

	Reconnecting        bool
	ConsecutiveFailures int
}

// Collector is a prometheus.Collector over a sampling function.
type Collector struct {
	sample func() Sample

	pollTicks           *prometheus.Desc
	pollSkipped         *prometheus.Desc
	refreshes           *prometheus.Desc
	refreshFailures     *prometheus.Desc
	writes              *prometheus.Desc
	writeFailures       *prometheus.Desc
	dispatched          *prometheus.Desc
	reconnecting        *prometheus.Desc
	consecutiveFailures *prometheus.Desc
}

// NewCollector returns a Collector calling sample on every scrape.
// constLabels are attached to every series (e.g. role, ticket).
func NewCollector(sample func() Sample, constLabels prometheus.Labels) *Collector {
	desc := func(name, help string, variableLabels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, variableLabels, constLabels)
	}
	return &Collector{
		sample:              sample,
		pollTicks:           desc("poll_ticks_total", "Poll timer ticks observed."),
		pollSkipped:         desc("poll_skipped_total", "Poll ticks skipped because a refresh was in flight."),
		refreshes:           desc("poll_refreshes_total", "Refreshes started by the poll timer."),
		refreshFailures:     desc("poll_refresh_failures_total", "Poll refreshes that failed."),
		writes:              desc("message_writes_total", "Messages written to the backend."),
		writeFailures:       desc("message_write_failures_total", "Message writes the backend rejected or that failed in transit."),
		dispatched:          desc("dispatched_total", "Submitted inputs by dispatch path.", "path"),
		reconnecting:        desc("reconnecting", "1 while the last refresh failed."),
		consecutiveFailures: desc("consecutive_refresh_failures", "Refresh failures since the last success."),
	}
}

// Describe implements prometheus.Collector.
func (collector *Collector) Describe(descriptions chan<- *prometheus.Desc) {
	descriptions <- collector.pollTicks
	descriptions <- collector.pollSkipped
	descriptions <- collector.refreshes
	descriptions <- collector.refreshFailures
	descriptions <- collector.writes
	descriptions <- collector.writeFailures
	descriptions <- collector.dispatched
	descriptions <- collector.reconnecting
	descriptions <- collector.consecutiveFailures
}

// Collect implements prometheus.Collector.
func (collector *Collector) Collect(metrics chan<- prometheus.Metric) {
	sample := collector.sample()

	counter := func(desc *prometheus.Desc, value uint64, labels ...string) {
		metrics <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(value), labels...)
	}
	counter(collector.pollTicks, sample.PollTicks)
	counter(collector.pollSkipped, sample.PollSkipped)
	counter(collector.refreshes, sample.Refreshes)
	counter(collector.refreshFailures, sample.RefreshFailures)
	counter(collector.writes, sample.Writes)
	counter(collector.writeFailures, sample.WriteFailures)
	counter(collector.dispatched, sample.PlainMessages, "plain")
	counter(collector.dispatched, sample.Generations, "ai")
	counter(collector.dispatched, sample.Fallbacks, "ai_fallback")

	reconnecting := 0.0
	if sample.Reconnecting {
		reconnecting = 1
	}
	metrics <- prometheus.MustNewConstMetric(collector.reconnecting, prometheus.GaugeValue, reconnecting)
	metrics <- prometheus.MustNewConstMetric(collector.consecutiveFailures, prometheus.GaugeValue, float64(sample.ConsecutiveFailures))
}

// NewRegistry returns a registry holding collector and the Go runtime
// and process collectors.
func NewRegistry(collector *Collector) (*prometheus.Registry, error) {
	registry := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{
		collector,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: registering collector: %w", err)
		}
	}
	return registry, nil
}

// Handler serves registry at any path.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Serve listens on address and serves registry at /metrics, plus an
// empty /healthz for probes, until ctx
// is done. The listener is bound before Serve returns to its caller
// through ready, which receives the bound address (useful with port
// 0).
func Serve(ctx context.Context, address string, registry *prometheus.Registry, logger *slog.Logger, ready func(net.Addr)) error {
	if logger == nil {
		logger = slog.Default()
	}
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("metrics: listening on %s: %w", address, err)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Method(http.MethodGet, "/metrics", Handler(registry))
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	server := &http.Server{Handler: router, ReadHeaderTimeout: 5 * time.Second}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "address", listener.Addr().String())
	if ready != nil {
		ready(listener.Addr())
	}
	err = server.Serve(listener)
	<-stopped
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("metrics: serving: %w", err)
}
