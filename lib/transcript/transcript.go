// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transcript

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"filippo.io/age"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/supportchat/lib/codec"
	"github.com/bureau-foundation/supportchat/supportapi"
)

// FormatVersion is the Transcript.Version written by this package.
const FormatVersion = 1

const (
	magic      = "SCT1"
	headerSize = len(magic) + 2

	flagEncrypted byte = 1 << 0

	// maxBodySize bounds the decompressed envelope.
	maxBodySize = 64 << 20
)

var (
	// ErrNotTranscript is returned when the file does not start with
	// the transcript magic.
	ErrNotTranscript = errors.New("transcript: not a transcript file")

	// ErrChecksum is returned when the payload does not match its
	// recorded checksum.
	ErrChecksum = errors.New("transcript: checksum mismatch")

	// ErrEncrypted is returned when reading an encrypted transcript
	// without identities.
	ErrEncrypted = errors.New("transcript: file is encrypted, an identity is required")
)

// Transcript is one ticket's conversation as exported.
type Transcript struct {
	Version    int       `cbor:"version"`
	ExportedAt time.Time `cbor:"exported_at"`

	// Client is the exporting program's user agent.
	Client string `cbor:"client"`

	Ticket   supportapi.Ticket    `cbor:"ticket"`
	Messages []supportapi.Message `cbor:"messages"`

	// Fingerprint is the session's snapshot fingerprint at export,
	// for matching an export against logs.
	Fingerprint string `cbor:"fingerprint,omitempty"`
}

// envelope carries the encoded transcript and its checksum.
type envelope struct {
	Payload  []byte `cbor:"payload"`
	Checksum []byte `cbor:"checksum"`
}

// Header is the unencrypted file prefix.
type Header struct {
	Encrypted   bool
	Compression Compression
}

// Options controls Write.
type Options struct {
	Compression Compression

	// Recipients, if non-empty, encrypts the body to each of them.
	Recipients []age.Recipient
}

// Write encodes transcript to writer.
func Write(writer io.Writer, transcript *Transcript, options Options) error {
	if transcript.Version == 0 {
		transcript.Version = FormatVersion
	}
	payload, err := codec.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("transcript: encoding: %w", err)
	}
	sum := blake3.Sum256(payload)
	body, err := codec.Marshal(envelope{Payload: payload, Checksum: sum[:]})
	if err != nil {
		return fmt.Errorf("transcript: encoding envelope: %w", err)
	}

	header := []byte(magic + "\x00\x00")
	if len(options.Recipients) > 0 {
		header[len(magic)] |= flagEncrypted
	}
	header[len(magic)+1] = byte(options.Compression)
	if _, err := writer.Write(header); err != nil {
		return fmt.Errorf("transcript: writing header: %w", err)
	}

	var sink io.WriteCloser = nopWriteCloser{writer}
	if len(options.Recipients) > 0 {
		sink, err = age.Encrypt(writer, options.Recipients...)
		if err != nil {
			return fmt.Errorf("transcript: creating age encryptor: %w", err)
		}
	}

	compressed, err := compressor(sink, options.Compression)
	if err != nil {
		return err
	}
	if _, err := compressed.Write(body); err != nil {
		return fmt.Errorf("transcript: writing body: %w", err)
	}
	if err := compressed.Close(); err != nil {
		return fmt.Errorf("transcript: flushing %s: %w", options.Compression, err)
	}
	if err := sink.Close(); err != nil {
		return fmt.Errorf("transcript: finalizing encryption: %w", err)
	}
	return nil
}

// ReadHeader reads and validates the file header.
func ReadHeader(reader io.Reader) (Header, error) {
	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(reader, raw); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, ErrNotTranscript
		}
		return Header{}, fmt.Errorf("transcript: reading header: %w", err)
	}
	if !bytes.Equal(raw[:len(magic)], []byte(magic)) {
		return Header{}, ErrNotTranscript
	}
	header := Header{
		Encrypted:   raw[len(magic)]&flagEncrypted != 0,
		Compression: Compression(raw[len(magic)+1]),
	}
	if header.Compression > CompressionZstd {
		return header, fmt.Errorf("transcript: unsupported compression %s", header.Compression)
	}
	return header, nil
}

// Read decodes a transcript. Encrypted files need at least one
// matching identity.
func Read(reader io.Reader, identities ...age.Identity) (*Transcript, Header, error) {
	buffered := bufio.NewReader(reader)
	header, err := ReadHeader(buffered)
	if err != nil {
		return nil, header, err
	}

	var source io.Reader = buffered
	if header.Encrypted {
		if len(identities) == 0 {
			return nil, header, ErrEncrypted
		}
		source, err = age.Decrypt(buffered, identities...)
		if err != nil {
			return nil, header, fmt.Errorf("transcript: decrypting: %w", err)
		}
	}

	decompressed, release, err := decompressor(source, header.Compression)
	if err != nil {
		return nil, header, err
	}
	defer release()

	body, err := io.ReadAll(io.LimitReader(decompressed, maxBodySize+1))
	if err != nil {
		return nil, header, fmt.Errorf("transcript: reading %s body: %w", header.Compression, err)
	}
	if len(body) > maxBodySize {
		return nil, header, fmt.Errorf("transcript: body exceeds %d bytes", maxBodySize)
	}

	var wrapped envelope
	if err := codec.Unmarshal(body, &wrapped); err != nil {
		return nil, header, fmt.Errorf("transcript: decoding envelope: %w", err)
	}
	sum := blake3.Sum256(wrapped.Payload)
	if !bytes.Equal(sum[:], wrapped.Checksum) {
		return nil, header, ErrChecksum
	}

	var transcript Transcript
	if err := codec.Unmarshal(wrapped.Payload, &transcript); err != nil {
		return nil, header, fmt.Errorf("transcript: decoding: %w", err)
	}
	if transcript.Version > FormatVersion {
		return nil, header, fmt.Errorf("transcript: version %d is newer than supported %d", transcript.Version, FormatVersion)
	}
	return &transcript, header, nil
}
