// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jeranaias/lingua-tui/internal/logging"
	"github.com/jeranaias/lingua-tui/internal/model"
	"github.com/jeranaias/lingua-tui/internal/prompt"
	"github.com/jeranaias/lingua-tui/internal/storage"
)

// ErrorNotice is shown in place of a reply when a send fails.
const ErrorNotice = "Sorry, I encountered an error. Please try again."

var (
	// ErrBusy is returned by BeginSend while a reply is outstanding.
	ErrBusy = errors.New("a reply is still pending")

	// ErrEmptyMessage is returned by BeginSend for blank input.
	ErrEmptyMessage = errors.New("message is empty")
)

// =============================================================================
// COMPLETER
// =============================================================================

// Completer turns a conversation into the assistant's reply text.
// Both *relay.Client and *cloud.Client (via CompleterFunc) satisfy it.
type Completer interface {
	Complete(ctx context.Context, messages []model.Message) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, messages []model.Message) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, messages []model.Message) (string, error) {
	return f(ctx, messages)
}

// =============================================================================
// SEND LIFECYCLE
// =============================================================================

// Pending describes a send between BeginSend and Complete. It carries
// everything Run needs so that Run never touches the Session.
type Pending struct {
	// ChatID is the chat the send belongs to, captured when it started.
	ChatID string

	// Messages is the conversation to send, ending with the new user message.
	Messages []model.Message

	// Text is the user message that started the send.
	Text string

	// GenerateTitle requests a title for the chat alongside the reply.
	GenerateTitle bool
}

// Reply is the outcome of Run.
type Reply struct {
	Content string
	Title   string
	Err     error
}

// Run performs the completion call for p and, when requested, a second call
// that names the chat. A failed title call leaves Title empty so the stored
// title is derived from the first user message instead.
//
// Run is safe to call from any goroutine.
func Run(ctx context.Context, c Completer, p *Pending) Reply {
	content, err := c.Complete(ctx, p.Messages)
	if err != nil {
		return Reply{Err: err}
	}

	reply := Reply{Content: content}
	if !p.GenerateTitle {
		return reply
	}

	first, ok := model.FirstUserMessage(p.Messages)
	if !ok {
		return reply
	}
	raw, err := c.Complete(ctx, prompt.TitleRequest(first))
	if err != nil {
		logging.Warnf("TITLE_FAILED | chat=%s error=%v", p.ChatID, err)
		return reply
	}
	reply.Title = prompt.CleanTitle(raw)
	return reply
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the state behind the chat screen: the active chat, its messages,
// transient notices and the history listing.
//
// A Session is owned by one control loop and is not safe for concurrent use.
// Only Run may execute elsewhere.
type Session struct {
	store          *storage.ChatStore
	activeID       string
	messages       []model.Message
	notices        []model.Notice
	history        []storage.StoredChat
	loading        bool
	generateTitles bool
}

// New creates a Session over store. Call Open before use.
func New(store *storage.ChatStore) *Session {
	return &Session{store: store, generateTitles: true}
}

// WithTitleGeneration toggles the title call on a chat's first reply.
func (s *Session) WithTitleGeneration(enabled bool) *Session {
	s.generateTitles = enabled
	return s
}

// Open loads the history and activates the most recent chat, or starts a new
// one when there is none. A storage error is returned but the Session remains
// usable without persistence.
func (s *Session) Open() error {
	if err := s.RefreshHistory(); err != nil {
		return errors.Join(err, s.NewChat())
	}
	if len(s.history) > 0 {
		return s.Select(s.history[0].ID)
	}
	return s.NewChat()
}

// Store returns the underlying chat store.
func (s *Session) Store() *storage.ChatStore {
	return s.store
}

// ActiveID returns the id of the chat on screen.
func (s *Session) ActiveID() string {
	return s.activeID
}

// Messages returns a copy of the active conversation.
func (s *Session) Messages() []model.Message {
	return model.Clone(s.messages)
}

// Loading reports whether a reply is outstanding.
func (s *Session) Loading() bool {
	return s.loading
}

// History returns the chat listing, most recently created first.
func (s *Session) History() []storage.StoredChat {
	return s.history
}

// ActiveTitle returns the stored title of the active chat.
func (s *Session) ActiveTitle() string {
	if c := s.find(s.activeID); c != nil {
		return c.DisplayTitle()
	}
	return storage.DeriveTitle(s.messages)
}

// View returns the display list for the active chat.
func (s *Session) View() []model.Processed {
	return model.Project(s.messages, s.notices)
}

// RefreshHistory reloads the chat listing from the store.
func (s *Session) RefreshHistory() error {
	chats, err := s.store.GetAll()
	if err != nil {
		logging.Warnf("HISTORY_LOAD_FAILED | error=%v", err)
		return err
	}
	s.history = chats
	return nil
}

// NewChat starts a conversation holding only the system prompt and makes it
// active. When the store cannot be written the chat still becomes active; it
// is persisted by its first successful send.
func (s *Session) NewChat() error {
	initial := []model.Message{prompt.SystemMessage()}

	var saveErr error
	for attempt := 0; attempt < 2; attempt++ {
		id, err := s.store.NewID()
		if err != nil {
			saveErr = err
			break
		}
		if _, err := s.store.Create(id, initial); err != nil {
			saveErr = err
			if errors.Is(err, storage.ErrDuplicateID) {
				continue
			}
			s.activate(id, initial)
			return err
		}
		s.activate(id, initial)
		logging.Infof("CHAT_NEW | id=%s", id)
		return s.RefreshHistory()
	}

	s.activate(uuid.NewString(), initial)
	logging.Warnf("CHAT_NEW_UNSAVED | id=%s error=%v", s.activeID, saveErr)
	return saveErr
}

// Select makes a stored chat active. It is allowed while a reply is pending.
func (s *Session) Select(id string) error {
	chat, err := s.store.Get(id)
	if err != nil {
		return err
	}
	s.activate(chat.ID, chat.Messages)
	return nil
}

// Delete removes a chat. Deleting the active chat switches to the most recent
// remaining chat, or to a new one when none is left.
func (s *Session) Delete(id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	if err := s.RefreshHistory(); err != nil {
		return err
	}
	if id != s.activeID {
		return nil
	}
	if len(s.history) > 0 {
		return s.Select(s.history[0].ID)
	}
	return s.NewChat()
}

// BeginSend appends the user's text to the active chat and marks the session
// as loading. The returned Pending is handed to Run and then to Complete.
func (s *Session) BeginSend(text string) (*Pending, error) {
	if isBlank(text) {
		return nil, ErrEmptyMessage
	}
	if s.loading {
		return nil, ErrBusy
	}

	s.messages = append(s.messages, model.NewUserMessage(text))
	s.loading = true

	return &Pending{
		ChatID:        s.activeID,
		Messages:      model.Clone(s.messages),
		Text:          text,
		GenerateTitle: s.generateTitles && s.needsTitle(s.activeID),
	}, nil
}

// Complete applies the outcome of Run. A failure adds ErrorNotice to the chat
// it belongs to, if that chat is still on screen, and persists nothing. A
// success stores the conversation under the chat id captured by BeginSend.
//
// The returned error is a storage failure only; the Session is updated
// regardless.
func (s *Session) Complete(p *Pending, r Reply) error {
	s.loading = false

	if r.Err != nil {
		logging.Warnf("SEND_FAILED | chat=%s error=%v", p.ChatID, r.Err)
		if p.ChatID == s.activeID {
			s.notices = append(s.notices, model.Notice{After: len(s.messages), Text: ErrorNotice})
		}
		return nil
	}

	messages := append(model.Clone(p.Messages), model.NewAssistantMessage(r.Content))

	title := r.Title
	if !p.GenerateTitle {
		title = s.storedTitle(p.ChatID)
	}

	_, saveErr := s.store.Save(p.ChatID, messages, title)

	if p.ChatID == s.activeID {
		s.messages = messages
	}
	if err := s.RefreshHistory(); err != nil && saveErr == nil {
		saveErr = err
	}
	return saveErr
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Session) activate(id string, messages []model.Message) {
	s.activeID = id
	s.messages = model.Clone(messages)
	s.notices = nil
}

func (s *Session) find(id string) *storage.StoredChat {
	for i := range s.history {
		if s.history[i].ID == id {
			return &s.history[i]
		}
	}
	return nil
}

// needsTitle reports whether the stored chat has never been titled from a
// user message.
func (s *Session) needsTitle(id string) bool {
	c := s.find(id)
	return c == nil || model.CountRole(c.Messages, model.RoleUser) == 0
}

// storedTitle returns the title to keep on a later save, or "" to derive one.
func (s *Session) storedTitle(id string) string {
	c := s.find(id)
	if c == nil || c.Title == storage.DefaultTitle {
		return ""
	}
	return c.Title
}

func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
