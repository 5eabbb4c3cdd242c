// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive], [RequireSend], and [RequireClosed] wrap the select
// with a time.After fallback so tests never hang on a missed signal.
// They are the only place tests use real wall-clock timeouts; all
// other timing goes through lib/clock.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation, e.g. message bodies that must be told apart after a
// refresh.
package testutil
