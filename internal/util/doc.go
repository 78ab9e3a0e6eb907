// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the storage, CLI and UI layers.
//
// String helpers are rune aware (TruncateRunes) or column aware
// (TruncateWidth, via go-runewidth). AtomicWriteFile writes through a
// synced temp file and a rename so a crash never leaves a half-written
// chat collection behind.
//
//	title := util.TruncateRunes(firstUserMessage, 30)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
