// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the binary serialization layer for supportchat.
//
// The chat core never speaks CBOR on the wire (the support backend is
// JSON). CBOR is used where bytes must be stable for a given value:
//
//   - Snapshot fingerprints. [Digest] hashes the Core Deterministic
//     Encoding (RFC 8949 §4.2) of a value with BLAKE3, so two refreshes
//     returning the same ticket and messages produce the same digest
//     and subscribers are not woken for a no-op.
//   - Transcript archives written by lib/transcript.
//
// Consumers import this package rather than fxamacker/cbor directly.
package codec
