// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/supportchat/lib/clock"
)

// DefaultPollInterval is the refresh period when none is configured.
const DefaultPollInterval = 3 * time.Second

// PollerConfig configures a Poller.
type PollerConfig struct {
	Clock    clock.Clock
	Interval time.Duration
	Logger   *slog.Logger
}

// PollerStats counts what a poller has done.
type PollerStats struct {
	Ticks     uint64
	Skipped   uint64
	Refreshes uint64
	Failures  uint64
}

// Add returns the element-wise sum.
func (stats PollerStats) Add(other PollerStats) PollerStats {
	return PollerStats{
		Ticks:     stats.Ticks + other.Ticks,
		Skipped:   stats.Skipped + other.Skipped,
		Refreshes: stats.Refreshes + other.Refreshes,
		Failures:  stats.Failures + other.Failures,
	}
}

// Poller refreshes a Store on a fixed interval. One Poller serves one
// ticket activation: Start once, Stop once.
type Poller struct {
	store    *Store
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	group  sync.WaitGroup
	done   chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once

	ticks     atomic.Uint64
	skipped   atomic.Uint64
	refreshes atomic.Uint64
	failures  atomic.Uint64
}

// NewPoller returns a Poller for store. It does nothing until Start.
func NewPoller(store *Store, config PollerConfig) *Poller {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultPollInterval
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Poller{
		store:    store,
		clock:    config.Clock,
		interval: config.Interval,
		logger:   config.Logger,
		done:     make(chan struct{}),
	}
}

// Start launches the polling loop. The loop ends when ctx is done,
// Stop is called, or the ticket is gone.
func (p *Poller) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		ctx, p.cancel = context.WithCancel(ctx)
		ticker := p.clock.NewTicker(p.interval)

		p.group.Add(1)
		go func() {
			defer p.group.Done()
			defer close(p.done)
			defer ticker.Stop()
			p.loop(ctx, ticker)
		}()
	})
}

// Stop ends the loop, cancels any in-flight refresh, and waits for
// them to return. Their results are discarded by the store if the
// observed ticket has since changed. Safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		started := true
		p.startOnce.Do(func() {
			started = false
			close(p.done)
		})
		if !started {
			return
		}
		p.cancel()
		p.group.Wait()
	})
}

// Done is closed when the polling loop has exited.
func (p *Poller) Done() <-chan struct{} { return p.done }

// Stats returns a point-in-time copy of the counters.
func (p *Poller) Stats() PollerStats {
	return PollerStats{
		Ticks:     p.ticks.Load(),
		Skipped:   p.skipped.Load(),
		Refreshes: p.refreshes.Load(),
		Failures:  p.failures.Load(),
	}
}

func (p *Poller) loop(ctx context.Context, ticker *clock.Ticker) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		p.ticks.Add(1)
		pending, snapshot, err := p.store.tryBegin()
		switch {
		case errors.Is(err, ErrRefreshInFlight):
			p.skipped.Add(1)
			p.logger.Debug("poll tick skipped, refresh in flight", "ticket_id", snapshot.TicketID)
			continue
		case errors.Is(err, ErrTicketGone):
			p.logger.Info("ticket gone, polling stopped", "ticket_id", snapshot.TicketID)
			return
		case err != nil:
			p.logger.Debug("poll tick ignored", "error", err)
			continue
		}

		p.refreshes.Add(1)
		p.group.Add(1)
		go func() {
			defer p.group.Done()
			if _, err := p.store.run(ctx, pending); err != nil && ctx.Err() == nil {
				p.failures.Add(1)
			}
		}()
	}
}
