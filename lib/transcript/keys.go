// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transcript

import (
	"fmt"
	"io"
	"os"

	"filippo.io/age"
)

// ParseRecipients parses age X25519 public keys (age1...).
func ParseRecipients(keys []string) ([]age.Recipient, error) {
	recipients := make([]age.Recipient, 0, len(keys))
	for _, key := range keys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("transcript: parsing recipient %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}
	return recipients, nil
}

// ReadIdentities parses an age identity file: one AGE-SECRET-KEY-1...
// per line, blank lines and # comments ignored.
func ReadIdentities(reader io.Reader) ([]age.Identity, error) {
	identities, err := age.ParseIdentities(reader)
	if err != nil {
		return nil, fmt.Errorf("transcript: parsing identities: %w", err)
	}
	return identities, nil
}

// ReadIdentityFile is ReadIdentities on the file at path.
func ReadIdentityFile(path string) ([]age.Identity, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("transcript: opening identity file: %w", err)
	}
	defer file.Close()
	return ReadIdentities(file)
}
