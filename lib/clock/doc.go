// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for the chat core.
//
// Code that polls, stamps snapshots, or waits on a deadline takes a
// [Clock] instead of calling the time package directly. Production
// wiring passes [Real]; tests pass [Fake] and drive time explicitly:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	poller := chat.NewPoller(store, chat.PollerConfig{Clock: fake, Interval: 3 * time.Second})
//	poller.Start(ctx)
//	fake.WaitForTimers(1)         // the poller's ticker is registered
//	fake.Advance(3 * time.Second) // exactly one tick is delivered
//
// WaitForTimers closes the race between a goroutine registering its
// ticker and the test advancing the clock.
package clock
