// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea model of the practice chat screen.
//
// # Layout
//
//	┌ header ─────────────────────────────────────┐
//	│ history  │ conversation viewport            │
//	│          │ spinner while a reply is pending │
//	│          │ > input                          │
//	└ status bar ─────────────────────────────────┘
//
// The history column is hidden on narrow terminals.
//
// # Keys
//
// Enter sends, Tab moves focus to the history, Ctrl+N starts a new chat and
// Ctrl+Y copies the last corrected sentence. In the history, Enter opens the
// chat under the cursor and d deletes it.
//
// # Concurrency
//
// The update loop owns the session. A send is started with BeginSend on the
// loop, run by SendCmd in a command goroutine and finished by Complete when
// its SendResultMsg arrives. Replies for a chat that is no longer on screen
// are still saved to that chat.
package chat
