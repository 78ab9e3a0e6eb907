// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/lingua-tui/internal/session"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// SendResultMsg carries the outcome of a send back to the update loop.
type SendResultMsg struct {
	Pending *session.Pending
	Reply   session.Reply
}

// HistoryChangedMsg reports that the chat store changed on disk, usually
// because another lingua process wrote to it.
type HistoryChangedMsg struct{}

// watchClosedMsg reports that the store watcher stopped.
type watchClosedMsg struct{}

// clearStatusMsg clears a transient status message when its id still
// matches.
type clearStatusMsg struct {
	id int
}
