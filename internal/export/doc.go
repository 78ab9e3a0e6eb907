// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes stored chats to files.
//
// # Supported Formats
//
//   - Markdown: the conversation as shown on screen, corrections included
//   - HTML: a standalone page with <del>/<ins> correction markup
//   - JSON: the stored record, identical to the persisted shape
//   - YAML: the stored record
//
// # Usage
//
//	exporter, err := export.ForFormat("markdown", nil)
//	path, err := export.ExportToFile(chat, exporter, nil)
package export
