// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/lingua-tui/internal/model"
	"github.com/jeranaias/lingua-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one entry of the conversation display list.
type MessageBubble struct {
	Entry     model.Processed
	Width     int
	ShowStats bool
	theme     *styles.Theme
}

// NewMessageBubble creates a bubble for entry.
func NewMessageBubble(entry model.Processed, theme *styles.Theme) *MessageBubble {
	return &MessageBubble{
		Entry:     entry,
		Width:     80,
		ShowStats: true,
		theme:     theme,
	}
}

// SetWidth sets the available width.
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// View renders the bubble.
func (b *MessageBubble) View() string {
	switch b.Entry.Kind {
	case model.KindUser:
		return b.renderUserBubble()
	case model.KindCorrection:
		return b.renderCorrection()
	case model.KindPartner:
		return b.renderPartnerBubble()
	default:
		return b.renderNotice()
	}
}

// contentWidth is the wrap width inside a bubble: 80% of the row, leaving
// room for border and padding.
func (b *MessageBubble) contentWidth() int {
	return maxInt(b.Width*4/5-4, 16)
}

// ==========================================================================
// USER BUBBLE - right-aligned, shows the correction inline
// ==========================================================================

func (b *MessageBubble) renderUserBubble() string {
	content := b.Entry.Original
	var stats string
	if b.Entry.HasDiff() {
		segs := b.Entry.Segments()
		content = RenderSegments(segs, b.theme)
		if b.ShowStats {
			stats = RenderDiffStats(segs, b.theme)
		}
	}

	bubble := b.bubble(b.theme.UserBubble, content)
	label := b.theme.RoleLabel.Render(model.RoleUser.DisplayName())

	parts := []string{label, bubble}
	if stats != "" {
		parts = append(parts, stats)
	}
	block := lipgloss.JoinVertical(lipgloss.Right, parts...)
	return lipgloss.PlaceHorizontal(b.Width, lipgloss.Right, block)
}

// ==========================================================================
// PARTNER BUBBLE - left-aligned
// ==========================================================================

func (b *MessageBubble) renderPartnerBubble() string {
	bubble := b.bubble(b.theme.PartnerBubble, b.Entry.Text)
	label := b.theme.RoleLabel.Render(model.RoleAssistant.DisplayName())
	return lipgloss.JoinVertical(lipgloss.Left, label, bubble)
}

// ==========================================================================
// CORRECTION NOTE AND NOTICE
// ==========================================================================

func (b *MessageBubble) renderCorrection() string {
	return b.theme.CorrectionBubble.
		Width(b.contentWidth()).
		Render("✎ " + strings.TrimSpace(b.Entry.Text))
}

func (b *MessageBubble) renderNotice() string {
	notice := b.theme.NoticeBubble.Render(b.Entry.Text)
	return lipgloss.PlaceHorizontal(b.Width, lipgloss.Center, notice)
}

// bubble sizes the box to its text and wraps at contentWidth.
func (b *MessageBubble) bubble(style lipgloss.Style, content string) string {
	content = strings.TrimSpace(content)
	if limit := b.contentWidth(); maxLineWidth(content) > limit {
		style = style.Width(limit + style.GetHorizontalPadding())
	}
	return style.Render(content)
}

// RenderConversation renders the display list as one string, entries
// separated by a blank line. An empty list renders the empty-state hint.
func RenderConversation(entries []model.Processed, width int, showStats bool, theme *styles.Theme) string {
	if len(entries) == 0 {
		return RenderEmptyState(width, theme)
	}

	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		bubble := NewMessageBubble(e, theme)
		bubble.SetWidth(width)
		bubble.ShowStats = showStats
		blocks = append(blocks, bubble.View())
	}
	return strings.Join(blocks, "\n\n")
}

// EmptyStateText is shown before the first message of a chat.
const EmptyStateText = "Start a conversation in the language you are learning.\nYour partner will reply and point out any mistakes along the way."

// RenderEmptyState renders the hint shown in a chat without messages.
func RenderEmptyState(width int, theme *styles.Theme) string {
	return theme.EmptyState.Width(width).Render(EmptyStateText)
}
