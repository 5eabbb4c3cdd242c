// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework of the supportchat
// binary: a tree of [Command] values with pflag flag sets, help
// output, typo suggestions for unknown commands and flags, and error
// types that carry an exit code or a hint for the user.
package cli
