// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/lingua-tui/internal/session"
)

// ErrNoCompleter is the send error when no completion backend is set up.
var ErrNoCompleter = errors.New("no completion backend configured")

// statusTimeout is how long a transient status message stays visible.
const statusTimeout = 3 * time.Second

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// SendCmd runs p against c in a command goroutine and reports the result as
// a SendResultMsg.
func SendCmd(ctx context.Context, c session.Completer, p *session.Pending) tea.Cmd {
	return func() tea.Msg {
		if c == nil {
			return SendResultMsg{Pending: p, Reply: session.Reply{Err: ErrNoCompleter}}
		}
		return SendResultMsg{Pending: p, Reply: session.Run(ctx, c, p)}
	}
}

// WaitForChange blocks until the store watcher fires and returns a
// HistoryChangedMsg. A nil channel never fires.
func WaitForChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return watchClosedMsg{}
		}
		return HistoryChangedMsg{}
	}
}

func clearStatusAfter(id int) tea.Cmd {
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}
