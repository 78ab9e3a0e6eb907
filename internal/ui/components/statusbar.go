// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/lingua-tui/internal/ui/styles"
	"github.com/jeranaias/lingua-tui/internal/util"
)

// Shortcut is one key hint in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line: an error when there is one, otherwise key
// hints.
type StatusBar struct {
	Shortcuts []Shortcut
	Error     string
	Info      string
	Width     int
	theme     *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme}
}

// View renders the status bar. Hints that do not fit are dropped from the
// end.
func (s *StatusBar) View() string {
	style := s.theme.StatusBar
	if s.Width > 0 {
		style = style.Width(s.Width)
	}
	inner := s.Width - style.GetHorizontalPadding()

	if s.Error != "" {
		return style.Render(s.theme.StatusError.Render(util.TruncateWidth(util.SingleLine("✗ "+s.Error), maxInt(inner, 8))))
	}

	var left string
	if s.Info != "" {
		left = s.theme.ShortcutDesc.Render(s.Info)
	}

	var hints []string
	used := lipgloss.Width(left)
	for _, sc := range s.Shortcuts {
		hint := s.theme.ShortcutKey.Render(sc.Key) + " " + s.theme.ShortcutDesc.Render(sc.Desc)
		w := lipgloss.Width(hint) + 3
		if inner > 0 && used+w > inner {
			break
		}
		hints = append(hints, hint)
		used += w
	}

	right := strings.Join(hints, s.theme.ShortcutDesc.Render(" · "))
	if left == "" {
		return style.Render(right)
	}
	gap := maxInt(inner-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return style.Render(left + strings.Repeat(" ", gap) + right)
}
