// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chat is the session core of the support-chat client.
//
// A [Session] observes one ticket at a time. It owns:
//
//   - a [Store] holding the latest snapshot of the ticket and its
//     thread. The store is the only writer of that snapshot. Every
//     fetch carries a sequence number, and completions older than the
//     last applied one are dropped. At most one refresh per ticket is
//     in flight.
//   - a [Poller] refreshing the store on a fixed interval. A tick that
//     lands while a refresh is outstanding is skipped, not queued.
//   - a [Dispatcher] deciding, through a prefix [Grammar], whether an
//     input is sent as typed or first turned into an AI reply by the
//     [Gateway]. Generation failures fall back to sending the input
//     verbatim.
//   - a [Submitter] writing messages and forcing a refresh right after
//     each successful write.
//   - a [RatingCollector] for the customer's 1-5 rating once the
//     ticket is resolved.
//
// Ticket lifecycle is Open then Resolved, observed through refresh.
// Once resolved, submissions fail with [ErrInvalidState] before any
// write. While an AI reply is generating, submissions fail the same
// way, so at most one generation is in flight per session.
//
// Rendering is not part of this package: front ends read [View] values
// from [Session.View] or [Session.Subscribe].
package chat
