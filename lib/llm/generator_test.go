// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type countingGenerator struct {
	calls atomic.Int32
}

func (generator *countingGenerator) Generate(ctx context.Context, request Request) (*Generation, error) {
	generator.calls.Add(1)
	return &Generation{Text: "ok"}, nil
}

func TestThrottleDisabled(t *testing.T) {
	inner := &countingGenerator{}
	if Throttle(inner, 0) != Generator(inner) {
		t.Fatal("Throttle with zero rate should return the generator unchanged")
	}
}

func TestThrottleWaitsForSlot(t *testing.T) {
	inner := &countingGenerator{}
	throttled := Throttle(inner, 1)

	if _, err := throttled.Generate(context.Background(), Request{Prompt: "first"}); err != nil {
		t.Fatalf("first request should use the burst slot: %v", err)
	}

	// The next slot is a minute away; a cancelled context must not wait for it.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := throttled.Generate(ctx, Request{Prompt: "second"})
	if err == nil {
		t.Fatal("expected rate limit wait to fail on cancelled context")
	}
	if errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("unexpected error kind: %v", err)
	}
	if inner.calls.Load() != 1 {
		t.Fatalf("inner generator called %d times, want 1", inner.calls.Load())
	}
}
