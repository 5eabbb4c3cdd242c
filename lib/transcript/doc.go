// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transcript writes and reads exported ticket transcripts.
//
// A transcript file is a six-byte header followed by the body:
//
//	"SCT1" | flags (1 byte) | compression tag (1 byte) | body
//
// The body is a CBOR envelope holding the CBOR-encoded [Transcript]
// and its BLAKE3 checksum, compressed with zstd or LZ4 (or stored as
// is). When flag bit 0 is set the compressed body is additionally an
// age stream encrypted to one or more X25519 recipients. The header
// is never encrypted, so [ReadHeader] works without a key.
package transcript
