// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"
)

// Fixed heights of the rows around the conversation viewport.
const (
	headerHeight   = 3 // title, subtitle, bottom border
	thinkingHeight = 1
	inputHeight    = 3 // rounded border around one line
	statusHeight   = 1
)

// ThinkingText is shown next to the spinner while a reply is pending.
const ThinkingText = "Your partner is typing..."

// layout sizes the widgets for the current window.
func (m *Model) layout() {
	mainWidth := m.width
	if m.theme.ShowSidebar() {
		mainWidth -= m.theme.SidebarWidth()
	}
	mainWidth = maxInt(mainWidth, 10)

	bodyHeight := maxInt(m.height-headerHeight-statusHeight, 3)

	m.viewport.Width = mainWidth
	m.viewport.Height = maxInt(bodyHeight-thinkingHeight-inputHeight, 1)

	frame := m.theme.InputContainer.GetHorizontalFrameSize()
	m.input.Width = maxInt(mainWidth-frame-lipgloss.Width(m.input.Prompt)-1, 10)

	m.header.Width = m.width
	m.status.Width = m.width
	m.sidebar.SetSize(m.theme.SidebarWidth(), bodyHeight)
}

func (m Model) renderScreen() string {
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.renderThinking(),
		m.renderInput(),
	)

	body := main
	if m.theme.ShowSidebar() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), main)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		body,
		m.renderStatus(),
	)
}

func (m Model) renderThinking() string {
	if !m.session.Loading() {
		return " "
	}
	return m.spinner.View() + " " + m.theme.ThinkingText.Render(ThinkingText)
}

func (m Model) renderInput() string {
	style := m.theme.InputContainer
	if m.focus != FocusInput {
		style = m.theme.InputContainerBlur
	}
	return style.Width(m.viewport.Width - style.GetHorizontalBorderSize()).Render(m.input.View())
}

func (m Model) renderStatus() string {
	m.status.Error = m.statusErr
	m.status.Info = m.statusMsg
	if m.focus == FocusSidebar {
		m.status.Shortcuts = shortcuts(m.keyMap.SidebarHelp())
	} else {
		m.status.Shortcuts = shortcuts(m.keyMap.ShortHelp())
	}
	return m.status.View()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
