// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"testing"
	"time"

	"github.com/bureau-foundation/supportchat/lib/clock"
	"github.com/bureau-foundation/supportchat/lib/testutil"
	"github.com/bureau-foundation/supportchat/supportapi"
	"github.com/bureau-foundation/supportchat/supportapi/supportapitest"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// startPoller starts a poller over store on a fake clock and waits for
// its ticker to be registered.
func startPoller(t *testing.T, store *Store) (*Poller, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(epoch)
	poller := NewPoller(store, PollerConfig{Clock: fake, Logger: discardLogger()})
	poller.Start(context.Background())
	t.Cleanup(poller.Stop)
	fake.WaitForTimers(1)
	return poller, fake
}

// tick advances one interval and waits for the loop to consume it.
func tick(t *testing.T, poller *Poller, fake *clock.FakeClock) {
	t.Helper()
	before := poller.Stats().Ticks
	fake.Advance(DefaultPollInterval)
	eventually(t, func() bool { return poller.Stats().Ticks > before }, "poll tick")
}

func TestPollerRefreshesOnTick(t *testing.T) {
	backend, client := newBackend(t, openTicket("1"))
	store := newLoadedStore(t, client, "1")
	poller, fake := startPoller(t, store)

	backend.AppendMessage(supportapi.Message{TicketID: "1", Text: "Hello"})

	// Nothing is fetched before the interval elapses.
	fake.Advance(DefaultPollInterval - time.Millisecond)
	if got := poller.Stats().Ticks; got != 0 {
		t.Fatalf("Ticks = %d before the interval elapsed", got)
	}

	tick(t, poller, fake)
	eventually(t, func() bool { return len(store.Snapshot().Messages) == 1 }, "polled message")

	if stats := poller.Stats(); stats.Refreshes != 1 || stats.Skipped != 0 {
		t.Errorf("Stats = %+v, want one refresh", stats)
	}
}

func TestPollerSkipsTickWhileRefreshInFlight(t *testing.T) {
	backend, client := newBackend(t, openTicket("1"))
	store := newLoadedStore(t, client, "1")
	poller, fake := startPoller(t, store)

	hold := backend.HoldNext(supportapitest.RouteMessages)
	tick(t, poller, fake)
	testutil.RequireClosed(t, hold.Arrived(), testTimeout, "polled refresh reaching backend")

	tick(t, poller, fake)
	tick(t, poller, fake)

	eventually(t, func() bool { return poller.Stats().Skipped == 2 }, "two skipped ticks")
	if stats := poller.Stats(); stats.Refreshes != 1 {
		t.Fatalf("Stats = %+v, want 1 refresh", stats)
	}

	hold.Release()
	eventually(t, func() bool { return !store.RefreshInFlight() }, "held refresh to finish")

	// Skipped ticks are not replayed: only the next tick fetches.
	calls := backend.Calls(supportapitest.RouteMessages)
	tick(t, poller, fake)
	eventually(t, func() bool { return poller.Stats().Refreshes == 2 && !store.RefreshInFlight() }, "next refresh to finish")
	if got := backend.Calls(supportapitest.RouteMessages); got != calls+1 {
		t.Errorf("Calls = %d, want %d", got, calls+1)
	}
	if got := backend.MaxConcurrent(supportapitest.RouteMessages); got != 1 {
		t.Errorf("MaxConcurrent = %d, want 1", got)
	}
}

func TestPollerKeepsPollingThroughFailures(t *testing.T) {
	backend, client := newBackend(t, openTicket("1"))
	store := newLoadedStore(t, client, "1")
	poller, fake := startPoller(t, store)

	backend.Fail(supportapitest.RouteMessages, 502)
	tick(t, poller, fake)
	eventually(t, func() bool { return store.Status().Reconnecting }, "reconnecting status")

	backend.Fail(supportapitest.RouteMessages, 0)
	backend.AppendMessage(supportapi.Message{TicketID: "1", Text: "back"})
	tick(t, poller, fake)
	eventually(t, func() bool {
		snapshot := store.Snapshot()
		return !snapshot.Status.Reconnecting && len(snapshot.Messages) == 1
	}, "recovery")

	eventually(t, func() bool { return poller.Stats().Failures == 1 }, "one counted failure")
}

func TestPollerStopsWhenTicketGone(t *testing.T) {
	backend, client := newBackend(t, openTicket("1"))
	store := newLoadedStore(t, client, "1")
	poller, fake := startPoller(t, store)

	backend.DeleteTicket("1")
	tick(t, poller, fake)
	eventually(t, func() bool { return store.Status().Gone }, "gone status")

	fake.Advance(DefaultPollInterval)
	testutil.RequireClosed(t, poller.Done(), testTimeout, "poller exit after ticket gone")
}

func TestPollerStopCancelsInFlightRefresh(t *testing.T) {
	backend, client := newBackend(t, openTicket("1"))
	store := newLoadedStore(t, client, "1")
	poller, fake := startPoller(t, store)

	hold := backend.HoldNext(supportapitest.RouteMessages)
	tick(t, poller, fake)
	testutil.RequireClosed(t, hold.Arrived(), testTimeout, "polled refresh reaching backend")

	stopped := make(chan struct{})
	go func() {
		poller.Stop()
		close(stopped)
	}()
	testutil.RequireClosed(t, stopped, testTimeout, "Stop with a refresh in flight")
	testutil.RequireClosed(t, poller.Done(), testTimeout, "poller exit")

	if store.Status().Reconnecting {
		t.Error("canceled poll counted as a failure")
	}
	if fake.PendingCount() != 0 {
		t.Errorf("ticker still registered after Stop")
	}
}

func TestPollerStopWithoutStart(t *testing.T) {
	_, client := newBackend(t, openTicket("1"))
	store := newLoadedStore(t, client, "1")
	poller := NewPoller(store, PollerConfig{Logger: discardLogger()})
	poller.Stop()
	poller.Stop()
	testutil.RequireClosed(t, poller.Done(), time.Second, "Done after Stop without Start")
}
