// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/lingua-tui/internal/storage"
	"github.com/jeranaias/lingua-tui/internal/ui/styles"
	"github.com/jeranaias/lingua-tui/internal/util"
)

// Sidebar labels.
const (
	SidebarTitle = "Chat History"
	NewChatLabel = "+ New Chat"
)

// =============================================================================
// SIDEBAR COMPONENT
// =============================================================================

// Sidebar lists saved chats, most recent first. Row 0 is the "+ New Chat"
// entry and row i+1 is Chats[i].
type Sidebar struct {
	Chats    []storage.StoredChat
	ActiveID string
	Cursor   int
	Focused  bool
	Width    int
	Height   int
	Now      func() time.Time

	offset int
	theme  *styles.Theme
}

// NewSidebar creates an empty sidebar.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{
		Width: 32,
		Now:   time.Now,
		theme: theme,
	}
}

// SetChats replaces the listed chats and keeps the cursor in range.
func (s *Sidebar) SetChats(chats []storage.StoredChat, activeID string) {
	s.Chats = chats
	s.ActiveID = activeID
	s.clamp()
}

// SetSize sets the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.Width = width
	s.Height = height
	s.clamp()
}

// Rows returns the number of selectable rows, the new-chat entry included.
func (s *Sidebar) Rows() int {
	return len(s.Chats) + 1
}

// MoveUp moves the cursor one row up.
func (s *Sidebar) MoveUp() {
	if s.Cursor > 0 {
		s.Cursor--
	}
	s.clamp()
}

// MoveDown moves the cursor one row down.
func (s *Sidebar) MoveDown() {
	if s.Cursor < s.Rows()-1 {
		s.Cursor++
	}
	s.clamp()
}

// FocusActive moves the cursor onto the active chat.
func (s *Sidebar) FocusActive() {
	for i, c := range s.Chats {
		if c.ID == s.ActiveID {
			s.Cursor = i + 1
			s.clamp()
			return
		}
	}
	s.Cursor = 0
	s.clamp()
}

// Selected returns the chat under the cursor, or nil when the cursor is on
// the new-chat entry.
func (s *Sidebar) Selected() *storage.StoredChat {
	if s.Cursor <= 0 || s.Cursor > len(s.Chats) {
		return nil
	}
	return &s.Chats[s.Cursor-1]
}

// visibleRows is how many chat rows fit below the title and new-chat entry.
// Each chat takes two lines.
func (s *Sidebar) visibleRows() int {
	if s.Height <= 0 {
		return len(s.Chats)
	}
	return maxInt((s.Height-4)/2, 1)
}

func (s *Sidebar) clamp() {
	if s.Cursor >= s.Rows() {
		s.Cursor = s.Rows() - 1
	}
	if s.Cursor < 0 {
		s.Cursor = 0
	}

	idx := s.Cursor - 1
	visible := s.visibleRows()
	if idx < s.offset {
		s.offset = maxInt(idx, 0)
	}
	if idx >= s.offset+visible {
		s.offset = idx - visible + 1
	}
	if s.offset > maxInt(len(s.Chats)-visible, 0) {
		s.offset = maxInt(len(s.Chats)-visible, 0)
	}
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	inner := maxInt(s.Width-s.theme.Sidebar.GetHorizontalBorderSize(), 8)
	content := inner - s.theme.Sidebar.GetHorizontalPadding()

	var lines []string
	lines = append(lines, s.theme.SidebarTitle.Render(SidebarTitle))

	newChat := s.theme.SidebarNew.Render(NewChatLabel)
	if s.Focused && s.Cursor == 0 {
		newChat = s.theme.SessionSelected.Width(content).Render(NewChatLabel)
	}
	lines = append(lines, newChat, "")

	if len(s.Chats) == 0 {
		lines = append(lines, s.theme.SessionMeta.Render("No chats yet"))
	}

	end := minInt(s.offset+s.visibleRows(), len(s.Chats))
	now := s.Now()
	for i := s.offset; i < end; i++ {
		c := s.Chats[i]
		title := util.TruncateWidth(util.SingleLine(c.DisplayTitle()), content-1)

		style := s.theme.SessionItem
		switch {
		case s.Focused && s.Cursor == i+1:
			style = s.theme.SessionSelected.Width(content)
		case c.ID == s.ActiveID:
			style = s.theme.SessionActive
		}

		lines = append(lines,
			style.Render(title),
			s.theme.SessionMeta.Render(storage.FormatAge(c.LastUpdated, now)),
		)
	}

	style := s.theme.Sidebar.Width(inner)
	if s.Height > 0 {
		style = style.Height(s.Height)
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// String renders the sidebar as plain lines, used by tests and logging.
func (s *Sidebar) String() string {
	var sb strings.Builder
	for i, c := range s.Chats {
		marker := " "
		if c.ID == s.ActiveID {
			marker = "*"
		}
		if s.Cursor == i+1 {
			marker = ">"
		}
		sb.WriteString(marker + " " + c.DisplayTitle() + "\n")
	}
	return sb.String()
}
