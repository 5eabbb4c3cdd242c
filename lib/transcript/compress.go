// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transcript

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a transcript body is compressed. Values
// are stored in the file header; changing them breaks existing files.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZstd Compression = 2
)

func (compression Compression) String() string {
	switch compression {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(compression))
	}
}

// ParseCompression parses "none", "lz4", or "zstd".
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("transcript: unknown compression %q (want none, lz4, or zstd)", name)
	}
}

// nopWriteCloser adapts a writer whose Close must not close the
// underlying stream.
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// compressor wraps destination in the stream compressor for
// compression. Closing the result flushes it without closing
// destination.
func compressor(destination io.Writer, compression Compression) (io.WriteCloser, error) {
	switch compression {
	case CompressionNone:
		return nopWriteCloser{destination}, nil
	case CompressionLZ4:
		return lz4.NewWriter(destination), nil
	case CompressionZstd:
		writer, err := zstd.NewWriter(destination, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("transcript: zstd encoder: %w", err)
		}
		return writer, nil
	default:
		return nil, fmt.Errorf("transcript: unsupported compression %s", compression)
	}
}

// decompressor wraps source in the stream decompressor for
// compression. The returned close function releases decoder state.
func decompressor(source io.Reader, compression Compression) (io.Reader, func(), error) {
	switch compression {
	case CompressionNone:
		return source, func() {}, nil
	case CompressionLZ4:
		return lz4.NewReader(source), func() {}, nil
	case CompressionZstd:
		decoder, err := zstd.NewReader(source)
		if err != nil {
			return nil, nil, fmt.Errorf("transcript: zstd decoder: %w", err)
		}
		return decoder, decoder.Close, nil
	default:
		return nil, nil, fmt.Errorf("transcript: unsupported compression %s", compression)
	}
}
