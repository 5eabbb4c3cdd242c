// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chatui is the terminal front end of a chat session: a
// bubbletea model that draws the ticket header, the thread, and the
// input line, and sends the user's messages and ratings back through
// the session.
//
// The model never fetches anything itself. It listens on the session's
// view subscription, so polling, refresh after writes, and AI
// generation all happen in package chat and arrive here as new views.
// Messages that arrive while the user is watching get a background
// tint that fades over a few seconds.
//
// Log records belong in the status line while the alternate screen is
// active; install a [LogHandler] as the process logger and call
// SetProgram once the program exists.
package chatui
