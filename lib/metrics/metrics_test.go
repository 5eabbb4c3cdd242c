// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/supportchat/lib/testutil"
)

func scrape(t *testing.T, handler http.Handler) string {
	t.Helper()
	server := httptest.NewServer(handler)
	defer server.Close()

	response, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("reading scrape: %v", err)
	}
	return string(body)
}

func TestCollectorExposesSample(t *testing.T) {
	sample := Sample{
		PollTicks:           10,
		PollSkipped:         2,
		Refreshes:           8,
		RefreshFailures:     1,
		Writes:              3,
		PlainMessages:       2,
		Generations:         1,
		Fallbacks:           1,
		Reconnecting:        true,
		ConsecutiveFailures: 1,
	}
	collector := NewCollector(func() Sample { return sample }, prometheus.Labels{"role": "support"})
	registry, err := NewRegistry(collector)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	body := scrape(t, Handler(registry))
	for _, want := range []string{
		`supportchat_poll_ticks_total{role="support"} 10`,
		`supportchat_poll_skipped_total{role="support"} 2`,
		`supportchat_poll_refresh_failures_total{role="support"} 1`,
		`supportchat_message_writes_total{role="support"} 3`,
		`supportchat_dispatched_total{path="ai",role="support"} 1`,
		`supportchat_dispatched_total{path="ai_fallback",role="support"} 1`,
		`supportchat_reconnecting{role="support"} 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}

	// Values are read at scrape time.
	sample.PollTicks = 11
	sample.Reconnecting = false
	body = scrape(t, Handler(registry))
	if !strings.Contains(body, `supportchat_poll_ticks_total{role="support"} 11`) ||
		!strings.Contains(body, `supportchat_reconnecting{role="support"} 0`) {
		t.Errorf("second scrape did not reflect the new sample:\n%s", body)
	}
}

func TestServe(t *testing.T) {
	collector := NewCollector(func() Sample { return Sample{Writes: 5} }, nil)
	registry, err := NewRegistry(collector)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	addresses := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", registry, slog.New(slog.NewTextHandler(io.Discard, nil)), func(address net.Addr) {
			addresses <- address
		})
	}()
	address := testutil.RequireReceive(t, addresses, 5*time.Second, "metrics listener")

	response, err := http.Get("http://" + address.String() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(response.Body)
	response.Body.Close()
	if !strings.Contains(string(body), "supportchat_message_writes_total 5") {
		t.Errorf("unexpected body:\n%s", body)
	}

	health, err := http.Get("http://" + address.String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusNoContent {
		t.Errorf("/healthz status = %d", health.StatusCode)
	}

	cancel()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "Serve to return"); err != nil {
		t.Errorf("Serve: %v", err)
	}
}
