// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// FreshDuration is how long a new message stays highlighted.
const FreshDuration = 4 * time.Second

// FreshTickInterval is the re-render period while anything is fresh.
const FreshTickInterval = 100 * time.Millisecond

// FreshTracker remembers when messages first appeared so the view can
// fade their highlight out. Not safe for concurrent use; it lives in
// the bubbletea model.
type FreshTracker struct {
	seen    map[string]time.Time
	primed  bool
	horizon time.Duration
}

// NewFreshTracker returns an empty tracker.
func NewFreshTracker() *FreshTracker {
	return &FreshTracker{seen: make(map[string]time.Time), horizon: FreshDuration}
}

// Observe records ids, marking the ones not seen before as arriving at
// now. The first call only primes the tracker: the backlog shown when
// a ticket opens is not highlighted.
func (tracker *FreshTracker) Observe(ids []string, now time.Time) (arrived int) {
	stamp := now
	if !tracker.primed {
		stamp = now.Add(-tracker.horizon)
		tracker.primed = true
	}
	for _, id := range ids {
		if _, known := tracker.seen[id]; known {
			continue
		}
		tracker.seen[id] = stamp
		if stamp.Equal(now) {
			arrived++
		}
	}
	return arrived
}

// Reset forgets everything, e.g. on a ticket switch.
func (tracker *FreshTracker) Reset() {
	clear(tracker.seen)
	tracker.primed = false
}

// Intensity is 1 when id just arrived and falls linearly to 0 over
// FreshDuration.
func (tracker *FreshTracker) Intensity(id string, now time.Time) float64 {
	arrived, ok := tracker.seen[id]
	if !ok {
		return 0
	}
	elapsed := now.Sub(arrived)
	if elapsed < 0 || elapsed >= tracker.horizon {
		return 0
	}
	return 1 - float64(elapsed)/float64(tracker.horizon)
}

// Active reports whether any message is still highlighted.
func (tracker *FreshTracker) Active(now time.Time) bool {
	for _, arrived := range tracker.seen {
		if now.Sub(arrived) < tracker.horizon {
			return true
		}
	}
	return false
}

// Blend mixes from toward to by amount (0..1) in Lab space and returns
// a hex color usable with lipgloss.
func Blend(from, to string, amount float64) string {
	switch {
	case amount <= 0:
		return from
	case amount >= 1:
		return to
	}
	start, errFrom := colorful.Hex(from)
	end, errTo := colorful.Hex(to)
	if errFrom != nil || errTo != nil {
		if amount >= 0.5 {
			return to
		}
		return from
	}
	return start.BlendLab(end, amount).Clamped().Hex()
}
