// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/lingua-tui/internal/logging"
	"github.com/jeranaias/lingua-tui/internal/model"
	"github.com/jeranaias/lingua-tui/internal/session"
	"github.com/jeranaias/lingua-tui/internal/ui/components"
	"github.com/jeranaias/lingua-tui/internal/ui/styles"
)

// Focus is the part of the screen receiving keys.
type Focus int

const (
	FocusInput Focus = iota
	FocusSidebar
)

// Options configures a chat Model.
type Options struct {
	// ShowDiffStats shows the "+n -m words" line under corrected messages.
	ShowDiffStats bool

	// Timeout bounds each send, title call included. Zero means no bound.
	Timeout time.Duration

	// Changes fires when the chat store changes on disk. May be nil.
	Changes <-chan struct{}

	// Clipboard writes text to the system clipboard. Defaults to
	// clipboard.WriteAll.
	Clipboard func(string) error
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the practice chat screen. The update loop
// is the only goroutine that touches the Session; sends run in commands and
// report back with SendResultMsg.
type Model struct {
	session   *session.Session
	completer session.Completer
	theme     *styles.Theme
	keyMap    KeyMap
	opts      Options

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	header  *components.Header
	sidebar *components.Sidebar
	status  *components.StatusBar

	focus    Focus
	width    int
	height   int
	ready    bool
	quitting bool

	statusMsg string
	statusErr string
	statusID  int

	sends *sendContext
}

// New creates the chat screen over an opened Session.
func New(sess *session.Session, completer session.Completer, theme *styles.Theme, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	m := Model{
		session:   sess,
		completer: completer,
		theme:     theme,
		keyMap:    DefaultKeyMap(),
		opts:      opts,
		viewport:  vp,
		input:     ti,
		spinner:   sp,
		header:    components.NewHeader(theme),
		sidebar:   components.NewSidebar(theme),
		status:    components.NewStatusBar(theme),
		focus:     FocusInput,
		sends:     newSendContext(context.Background()),
	}
	m.refresh()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink and the store watcher.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, WaitForChange(m.opts.Changes))
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case SendResultMsg:
		return m.handleSendResult(msg)

	case HistoryChangedMsg:
		return m.handleHistoryChanged()

	case watchClosedMsg:
		logging.Debugf("WATCH_CLOSED")
		return m, nil

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.statusMsg = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.session.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	return m.renderScreen()
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.theme.SetSize(m.width, m.height)

	if !m.theme.ShowSidebar() && m.focus == FocusSidebar {
		m.setFocus(FocusInput)
	}

	m.layout()
	m.refresh()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.sends.stop()
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.NewChat):
		return m.newChat()

	case key.Matches(msg, m.keyMap.Copy):
		return m.copyLastCorrection()

	case key.Matches(msg, m.keyMap.ToggleDiff):
		m.opts.ShowDiffStats = !m.opts.ShowDiffStats
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Focus):
		if m.focus == FocusSidebar {
			m.setFocus(FocusInput)
		} else if m.theme.ShowSidebar() || !m.ready {
			m.setFocus(FocusSidebar)
		}
		return m, nil
	}

	if m.focus == FocusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Back):
		m.setFocus(FocusInput)

	case key.Matches(msg, m.keyMap.Up):
		m.sidebar.MoveUp()

	case key.Matches(msg, m.keyMap.Down):
		m.sidebar.MoveDown()

	case key.Matches(msg, m.keyMap.Open):
		chat := m.sidebar.Selected()
		if chat == nil {
			return m.newChat()
		}
		if err := m.session.Select(chat.ID); err != nil {
			m.setError(err)
		} else {
			m.statusErr = ""
			m.setFocus(FocusInput)
		}
		m.refresh()

	case key.Matches(msg, m.keyMap.Delete):
		chat := m.sidebar.Selected()
		if chat == nil {
			return m, nil
		}
		title := chat.DisplayTitle()
		if err := m.session.Delete(chat.ID); err != nil {
			m.setError(err)
			m.refresh()
			return m, nil
		}
		m.refresh()
		return m, m.setStatus(fmt.Sprintf("Deleted %q", title))
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Submit) {
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSendResult(msg SendResultMsg) (tea.Model, tea.Cmd) {
	if err := m.session.Complete(msg.Pending, msg.Reply); err != nil {
		m.setError(err)
	} else if msg.Reply.Err != nil {
		m.setError(msg.Reply.Err)
	} else {
		m.statusErr = ""
	}
	m.refresh()
	return m, nil
}

func (m Model) handleHistoryChanged() (tea.Model, tea.Cmd) {
	if !m.session.Loading() {
		if err := m.session.RefreshHistory(); err != nil {
			m.setError(err)
		}
		m.refresh()
	}
	return m, WaitForChange(m.opts.Changes)
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) submit() (tea.Model, tea.Cmd) {
	p, err := m.session.BeginSend(m.input.Value())
	switch {
	case errors.Is(err, session.ErrEmptyMessage):
		return m, nil
	case errors.Is(err, session.ErrBusy):
		return m, m.setStatus("Waiting for your partner to reply...")
	case err != nil:
		m.setError(err)
		return m, nil
	}

	m.input.Reset()
	m.statusErr = ""
	m.refresh()

	ctx, release := m.sends.context(m.opts.Timeout)
	send := SendCmd(ctx, m.completer, p)
	return m, tea.Batch(
		func() tea.Msg {
			defer release()
			return send()
		},
		m.spinner.Tick,
	)
}

func (m Model) newChat() (tea.Model, tea.Cmd) {
	if err := m.session.NewChat(); err != nil {
		m.setError(err)
	} else {
		m.statusErr = ""
	}
	m.setFocus(FocusInput)
	m.refresh()
	return m, nil
}

func (m Model) copyLastCorrection() (tea.Model, tea.Cmd) {
	text, ok := lastCorrection(m.session.View())
	if !ok {
		return m, m.setStatus("No correction to copy")
	}
	if err := m.opts.Clipboard(text); err != nil {
		logging.Warnf("CLIPBOARD_FAILED | error=%v", err)
		m.setError(fmt.Errorf("copy failed: %w", err))
		return m, nil
	}
	return m, m.setStatus("Copied corrected text")
}

// lastCorrection returns the corrected text of the most recent user message
// that has one.
func lastCorrection(entries []model.Processed) (string, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Kind == model.KindUser && entries[i].HasDiff() {
			return entries[i].Corrected, true
		}
	}
	return "", false
}

// =============================================================================
// STATE HELPERS
// =============================================================================

func (m *Model) setFocus(f Focus) {
	m.focus = f
	m.sidebar.Focused = f == FocusSidebar
	if f == FocusSidebar {
		m.sidebar.FocusActive()
		m.input.Blur()
	} else {
		m.input.Focus()
	}
}

func (m *Model) setError(err error) {
	logging.Warnf("UI_ERROR | error=%v", err)
	m.statusErr = err.Error()
}

func (m *Model) setStatus(text string) tea.Cmd {
	m.statusID++
	m.statusMsg = text
	return clearStatusAfter(m.statusID)
}

// refresh copies session state into the components and re-renders the
// conversation.
func (m *Model) refresh() {
	m.header.ChatTitle = m.session.ActiveTitle()
	m.sidebar.SetChats(m.session.History(), m.session.ActiveID())

	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	m.viewport.SetContent(components.RenderConversation(m.session.View(), width, m.opts.ShowDiffStats, m.theme))
	m.viewport.GotoBottom()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Session returns the session behind the screen.
func (m Model) Session() *session.Session {
	return m.session
}

// Focus returns which part of the screen has focus.
func (m Model) Focus() Focus {
	return m.focus
}

// Status returns the current error, or the transient status message.
func (m Model) Status() string {
	if m.statusErr != "" {
		return m.statusErr
	}
	return m.statusMsg
}

// Input returns the text currently typed.
func (m Model) Input() string {
	return m.input.Value()
}
