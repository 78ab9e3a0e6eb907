// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/lingua-tui/internal/ui/styles"
)

// =============================================================================
// SHARED STYLES FOR ALL CLI COMMANDS
// =============================================================================

var (
	// TitleStyle is used for command titles and headers.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	// LabelStyle is used for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Width(18)

	// ValueStyle is used for regular values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	// SuccessStyle is used for success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	// ErrorStyle is used for error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	// WarningStyle is used for warnings.
	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// DimStyle is used for secondary information and hints.
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	// PromptStyle is the REPL prompt.
	PromptStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	// AddedStyle and RemovedStyle mark word changes in corrections.
	AddedStyle = lipgloss.NewStyle().
			Foreground(styles.DiffAddedFg).
			Bold(true)
	RemovedStyle = lipgloss.NewStyle().
			Foreground(styles.DiffRemovedFg).
			Strikethrough(true)

	// ExplanationStyle renders the correction note.
	ExplanationStyle = lipgloss.NewStyle().
				Foreground(styles.CorrectionFg).
				Italic(true)
)

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// RenderSeparator renders a horizontal separator line.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 60
	}
	return render(DimStyle, strings.Repeat("─", width))
}

// RenderLabel renders a label with consistent width.
func RenderLabel(label string) string {
	if !ColorsEnabled() {
		return LabelStyle.UnsetForeground().Render(label)
	}
	return LabelStyle.Render(label)
}

// render applies style when colors are enabled and returns text unchanged
// otherwise.
func render(style lipgloss.Style, text string) string {
	if !ColorsEnabled() {
		return text
	}
	return style.Render(text)
}
