// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserBubble       lipgloss.Style
	PartnerBubble    lipgloss.Style
	CorrectionBubble lipgloss.Style
	NoticeBubble     lipgloss.Style
	RoleLabel        lipgloss.Style
	EmptyState       lipgloss.Style

	// ==========================================================================
	// DIFF STYLES
	// ==========================================================================

	DiffAdded   lipgloss.Style
	DiffRemoved lipgloss.Style
	DiffStats   lipgloss.Style

	// ==========================================================================
	// SIDEBAR STYLES
	// ==========================================================================

	Sidebar         lipgloss.Style
	SidebarTitle    lipgloss.Style
	SidebarNew      lipgloss.Style
	SessionItem     lipgloss.Style
	SessionActive   lipgloss.Style
	SessionSelected lipgloss.Style
	SessionMeta     lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS STYLES
	// ==========================================================================

	InputContainer     lipgloss.Style
	InputContainerBlur lipgloss.Style
	Spinner            lipgloss.Style
	ThinkingText       lipgloss.Style
	StatusBar          lipgloss.Style
	StatusError        lipgloss.Style
	ShortcutKey        lipgloss.Style
	ShortcutDesc       lipgloss.Style
}

// NewTheme creates a theme for mode "dark", "light" or "auto". Auto asks the
// terminal for its background.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch mode {
	case "dark":
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case "light":
		isDark = false
		lipgloss.SetHasDarkBackground(false)
	default:
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay).
		Padding(0, 2)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Messages
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1)

	t.PartnerBubble = lipgloss.NewStyle().
		Foreground(PartnerBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(PartnerBubbleBorder).
		Padding(0, 1)

	t.CorrectionBubble = lipgloss.NewStyle().
		Foreground(CorrectionFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderTop(false).
		BorderRight(false).
		BorderBottom(false).
		BorderForeground(CorrectionBorder).
		PaddingLeft(1).
		Italic(true)

	t.NoticeBubble = lipgloss.NewStyle().
		Foreground(NoticeFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(NoticeBorder).
		Padding(0, 1).
		Align(lipgloss.Center)

	t.RoleLabel = lipgloss.NewStyle().
		Foreground(TextMuted).
		Bold(true)

	t.EmptyState = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		Align(lipgloss.Center)

	// Diff
	t.DiffAdded = lipgloss.NewStyle().
		Foreground(DiffAddedFg).
		Background(DiffAddedBg).
		Bold(true)

	t.DiffRemoved = lipgloss.NewStyle().
		Foreground(DiffRemovedFg).
		Background(DiffRemovedBg).
		Strikethrough(true)

	t.DiffStats = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		PaddingRight(1)

	t.SidebarTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary).
		MarginBottom(1)

	t.SidebarNew = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.SessionItem = lipgloss.NewStyle().
		Foreground(TextSecondary).
		PaddingLeft(1)

	t.SessionActive = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true).
		PaddingLeft(1)

	t.SessionSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SurfaceBright).
		PaddingLeft(1)

	t.SessionMeta = lipgloss.NewStyle().
		Foreground(TextMuted).
		PaddingLeft(1)

	// Input and status
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)

	t.InputContainerBlur = t.InputContainer.
		BorderForeground(Overlay)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 1)

	t.StatusError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// ShowSidebar reports whether the chat history fits beside the conversation.
func (t *Theme) ShowSidebar() bool {
	return t.GetLayoutMode() != LayoutNarrow
}

// SidebarWidth returns the history column width for the current layout.
func (t *Theme) SidebarWidth() int {
	switch t.GetLayoutMode() {
	case LayoutWide:
		return 32
	case LayoutMedium:
		return 24
	default:
		return 0
	}
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)

// String returns the layout name.
func (m LayoutMode) String() string {
	switch m {
	case LayoutNarrow:
		return "narrow"
	case LayoutMedium:
		return "medium"
	default:
		return "wide"
	}
}
