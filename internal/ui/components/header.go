// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/lingua-tui/internal/ui/styles"
	"github.com/jeranaias/lingua-tui/internal/util"
)

// Header text.
const (
	HeaderTitle    = "Language Practice Chat"
	HeaderSubtitle = "Practice with an AI language partner"
)

// Header is the bar above the conversation.
type Header struct {
	ChatTitle string
	Width     int
	theme     *styles.Theme
}

// NewHeader creates a header.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{theme: theme}
}

// View renders the header. The active chat title is shown on the right
// when there is room.
func (h *Header) View() string {
	inner := maxInt(h.Width-h.theme.Header.GetHorizontalFrameSize(), 0)

	left := lipgloss.JoinVertical(lipgloss.Left,
		h.theme.HeaderTitle.Render(HeaderTitle),
		h.theme.HeaderSubtitle.Render(HeaderSubtitle),
	)

	row := left
	if free := inner - lipgloss.Width(left) - 2; h.ChatTitle != "" && free >= 8 {
		title := h.theme.HeaderSubtitle.Render(util.TruncateWidth(util.SingleLine(h.ChatTitle), free))
		gap := maxInt(inner-lipgloss.Width(left)-lipgloss.Width(title), 1)
		row = lipgloss.JoinHorizontal(lipgloss.Top, left, lipgloss.NewStyle().Width(gap).Render(""), title)
	}

	style := h.theme.Header
	if inner > 0 {
		style = style.Width(h.Width - h.theme.Header.GetHorizontalBorderSize())
	}
	return style.Render(row)
}
