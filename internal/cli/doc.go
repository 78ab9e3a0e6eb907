// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the lingua command line.
//
// # Commands
//
//	lingua                      full-screen practice chat
//	lingua chat [--plain]       the chat, or a line-based version of it
//	lingua ask <text>           one correction without opening the chat
//	lingua serve                the HTTP relay for other clients
//	lingua history ...          list, show, delete and export saved chats
//	lingua config ...           inspect and change settings
//
// Output is styled with lipgloss when stdout is a terminal and plain
// otherwise. NO_COLOR and FORCE_COLOR override the detection.
package cli
