// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components renders the pieces of the practice chat screen.

# Components

  - Header (header.go): app title and the active chat title.
  - Sidebar (sidebar.go): chat history with the "+ New Chat" entry.
  - MessageBubble (message.go): user, partner, correction and notice bubbles.
  - RenderSegments (diff.go): inline word diff of a corrected user message.
  - StatusBar (statusbar.go): key hints or the last error.

Components hold no application state of their own beyond cursor and scroll
position; the chat model feeds them from the session on every render.
*/
package components
