// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui provides the terminal building blocks shared by the
// chat front ends: the color theme, a scrollbar, a centered overlay
// box, and the fade-out highlight for newly arrived messages. It knows
// nothing about tickets; callers map domain state onto theme colors.
package tui
