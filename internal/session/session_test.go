// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/lingua-tui/internal/model"
	"github.com/jeranaias/lingua-tui/internal/storage"
)

const correctedReply = `{"original": "I goed home", "corrected": "I went home", "explanation": "Use the past tense of go."} Where did you go after that?`

// scriptedCompleter answers chat calls with reply and title calls with title.
type scriptedCompleter struct {
	reply    string
	title    string
	err      error
	titleErr error
	calls    [][]model.Message
}

func (c *scriptedCompleter) Complete(ctx context.Context, messages []model.Message) (string, error) {
	c.calls = append(c.calls, messages)
	if isTitleRequest(messages) {
		return c.title, c.titleErr
	}
	return c.reply, c.err
}

func isTitleRequest(messages []model.Message) bool {
	return len(messages) == 2 && messages[0].Role == model.RoleSystem &&
		strings.Contains(strings.ToLower(messages[0].Content), "title")
}

func newTestSession(t *testing.T) (*Session, *storage.MemoryBackend) {
	t.Helper()
	backend := storage.NewMemoryBackend(0)
	s := New(storage.NewChatStore(backend))
	require.NoError(t, s.Open())
	return s, backend
}

func send(t *testing.T, s *Session, c Completer, text string) error {
	t.Helper()
	p, err := s.BeginSend(text)
	require.NoError(t, err)
	return s.Complete(p, Run(context.Background(), c, p))
}

// =============================================================================
// OPEN / NEW / SELECT / DELETE
// =============================================================================

func TestOpen_EmptyStoreStartsNewChat(t *testing.T) {
	s, _ := newTestSession(t)

	require.NotEmpty(t, s.ActiveID())
	require.Len(t, s.History(), 1)
	assert.Equal(t, s.ActiveID(), s.History()[0].ID)
	assert.Equal(t, storage.DefaultTitle, s.ActiveTitle())

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleSystem, msgs[0].Role)
	assert.Empty(t, s.View(), "system prompt is not displayed")
}

func TestOpen_SelectsMostRecentChat(t *testing.T) {
	backend := storage.NewMemoryBackend(0)
	store := storage.NewChatStore(backend)
	_, err := store.Save("old", []model.Message{model.NewUserMessage("old chat")}, "")
	require.NoError(t, err)
	_, err = store.Save("recent", []model.Message{model.NewUserMessage("recent chat")}, "")
	require.NoError(t, err)

	s := New(store)
	require.NoError(t, s.Open())
	assert.Equal(t, "recent", s.ActiveID())
	assert.Len(t, s.History(), 2)
}

func TestNewChat_PrependsToHistory(t *testing.T) {
	s, _ := newTestSession(t)
	first := s.ActiveID()

	require.NoError(t, s.NewChat())
	assert.NotEqual(t, first, s.ActiveID())
	require.Len(t, s.History(), 2)
	assert.Equal(t, s.ActiveID(), s.History()[0].ID)
}

func TestNewChat_StorageFailureStillActivates(t *testing.T) {
	s, backend := newTestSession(t)
	backend.FailWith(errors.New("disk gone"))

	err := s.NewChat()
	assert.ErrorIs(t, err, storage.ErrStorage)
	assert.NotEmpty(t, s.ActiveID())
	assert.Len(t, s.Messages(), 1)
}

func TestSelect_ClearsNotices(t *testing.T) {
	s, _ := newTestSession(t)
	first := s.ActiveID()

	c := &scriptedCompleter{err: errors.New("offline")}
	require.NoError(t, send(t, s, c, "hola"))
	require.Equal(t, model.KindSystem, s.View()[len(s.View())-1].Kind)

	require.NoError(t, s.NewChat())
	require.NoError(t, s.Select(first))
	for _, p := range s.View() {
		assert.NotEqual(t, model.KindSystem, p.Kind)
	}
}

func TestSelect_Missing(t *testing.T) {
	s, _ := newTestSession(t)
	assert.ErrorIs(t, s.Select("nope"), storage.ErrChatNotFound)
}

func TestDelete_ActiveSwitchesToMostRecent(t *testing.T) {
	s, _ := newTestSession(t)
	first := s.ActiveID()
	require.NoError(t, s.NewChat())
	second := s.ActiveID()

	require.NoError(t, s.Delete(second))
	assert.Equal(t, first, s.ActiveID())
	assert.Len(t, s.History(), 1)
}

func TestDelete_LastChatStartsNewOne(t *testing.T) {
	s, _ := newTestSession(t)
	only := s.ActiveID()

	require.NoError(t, s.Delete(only))
	assert.NotEqual(t, only, s.ActiveID())
	require.Len(t, s.History(), 1)
}

func TestDelete_InactiveKeepsActive(t *testing.T) {
	s, _ := newTestSession(t)
	first := s.ActiveID()
	require.NoError(t, s.NewChat())
	second := s.ActiveID()

	require.NoError(t, s.Delete(first))
	assert.Equal(t, second, s.ActiveID())
}

// =============================================================================
// SEND
// =============================================================================

func TestBeginSend_Rejects(t *testing.T) {
	s, _ := newTestSession(t)

	_, err := s.BeginSend("   \n")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = s.BeginSend("hola")
	require.NoError(t, err)
	assert.True(t, s.Loading())

	_, err = s.BeginSend("otra vez")
	assert.ErrorIs(t, err, ErrBusy)
}

func TestSend_SuccessPersistsAndTitles(t *testing.T) {
	s, _ := newTestSession(t)
	c := &scriptedCompleter{reply: correctedReply, title: `"Going Home."`}

	require.NoError(t, send(t, s, c, "I goed home"))
	assert.False(t, s.Loading())

	// chat call then title call
	require.Len(t, c.calls, 2)
	assert.Equal(t, model.RoleSystem, c.calls[0][0].Role)
	assert.Equal(t, "I goed home", c.calls[0][1].Content)
	assert.Equal(t, "I goed home", c.calls[1][1].Content)

	stored, err := s.Store().Get(s.ActiveID())
	require.NoError(t, err)
	assert.Equal(t, "Going Home", stored.Title)
	require.Len(t, stored.Messages, 3)
	assert.Equal(t, model.RoleAssistant, stored.Messages[2].Role)

	view := s.View()
	require.Len(t, view, 3)
	assert.Equal(t, model.KindUser, view[0].Kind)
	assert.Equal(t, "I went home", view[0].Corrected)
	assert.True(t, view[0].HasDiff())
	assert.Equal(t, model.KindCorrection, view[1].Kind)
	assert.Equal(t, "Use the past tense of go.", view[1].Text)
	assert.Equal(t, model.KindPartner, view[2].Kind)
	assert.Equal(t, "Where did you go after that?", view[2].Text)
}

func TestSend_TitleOnlyOnFirstUserMessage(t *testing.T) {
	s, _ := newTestSession(t)
	c := &scriptedCompleter{reply: "Muy bien.", title: "Greetings"}

	require.NoError(t, send(t, s, c, "hola"))
	c.title = "Something Else"
	require.NoError(t, send(t, s, c, "¿qué tal?"))

	assert.Len(t, c.calls, 3, "second send makes no title call")
	stored, err := s.Store().Get(s.ActiveID())
	require.NoError(t, err)
	assert.Equal(t, "Greetings", stored.Title)
	assert.Len(t, stored.Messages, 5)
}

func TestSend_TitleFailureFallsBackToDerived(t *testing.T) {
	s, _ := newTestSession(t)
	long := "This sentence is definitely longer than thirty characters"
	c := &scriptedCompleter{reply: "ok", titleErr: errors.New("rate limited")}

	require.NoError(t, send(t, s, c, long))

	stored, err := s.Store().Get(s.ActiveID())
	require.NoError(t, err)
	assert.Equal(t, storage.DeriveTitle([]model.Message{model.NewUserMessage(long)}), stored.Title)
	assert.True(t, strings.HasSuffix(stored.Title, "..."))
}

func TestSend_TitleGenerationDisabled(t *testing.T) {
	s, _ := newTestSession(t)
	s.WithTitleGeneration(false)
	c := &scriptedCompleter{reply: "ok", title: "unused"}

	require.NoError(t, send(t, s, c, "buenos días"))
	assert.Len(t, c.calls, 1)
	assert.Equal(t, "buenos días", s.ActiveTitle())
}

func TestSend_FailureShowsNoticeAndPersistsNothing(t *testing.T) {
	s, _ := newTestSession(t)
	c := &scriptedCompleter{err: errors.New("502")}

	require.NoError(t, send(t, s, c, "hola"))
	assert.False(t, s.Loading())

	view := s.View()
	require.Len(t, view, 2)
	assert.Equal(t, model.KindUser, view[0].Kind)
	assert.Equal(t, model.KindSystem, view[1].Kind)
	assert.Equal(t, ErrorNotice, view[1].Text)

	stored, err := s.Store().Get(s.ActiveID())
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 1, "only the system prompt is stored")
}

func TestSend_RetryAfterFailureStillGetsTitle(t *testing.T) {
	s, _ := newTestSession(t)
	c := &scriptedCompleter{err: errors.New("timeout")}
	require.NoError(t, send(t, s, c, "hola"))

	c.err = nil
	c.reply = "¡Hola!"
	c.title = "Saying Hello"
	require.NoError(t, send(t, s, c, "hola otra vez"))

	stored, err := s.Store().Get(s.ActiveID())
	require.NoError(t, err)
	assert.Equal(t, "Saying Hello", stored.Title)
	// both user messages and the reply
	assert.Equal(t, 2, model.CountRole(stored.Messages, model.RoleUser))
}

func TestSend_ReplyLandsInOriginatingChat(t *testing.T) {
	s, _ := newTestSession(t)
	origin := s.ActiveID()

	p, err := s.BeginSend("hola")
	require.NoError(t, err)

	// user navigates away while the reply is outstanding
	require.NoError(t, s.NewChat())
	other := s.ActiveID()
	assert.True(t, s.Loading())

	require.NoError(t, s.Complete(p, Reply{Content: "¡Hola!"}))

	assert.Equal(t, other, s.ActiveID())
	assert.Len(t, s.Messages(), 1, "active chat untouched")

	stored, err := s.Store().Get(origin)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 3)
}

func TestSend_FailureForInactiveChatAddsNoNotice(t *testing.T) {
	s, _ := newTestSession(t)

	p, err := s.BeginSend("hola")
	require.NoError(t, err)
	require.NoError(t, s.NewChat())

	require.NoError(t, s.Complete(p, Reply{Err: errors.New("boom")}))
	assert.Empty(t, s.View())
}

func TestSend_StorageFailureKeepsConversation(t *testing.T) {
	s, backend := newTestSession(t)
	backend.FailWith(errors.New("quota"))

	err := send(t, s, &scriptedCompleter{reply: "hola"}, "hola")
	assert.ErrorIs(t, err, storage.ErrStorage)
	assert.Len(t, s.Messages(), 3)
	assert.False(t, s.Loading())
}

func TestCompleterFunc(t *testing.T) {
	f := CompleterFunc(func(ctx context.Context, messages []model.Message) (string, error) {
		return "n=" + string(rune('0'+len(messages))), nil
	})
	out, err := f.Complete(context.Background(), []model.Message{model.NewUserMessage("a")})
	require.NoError(t, err)
	assert.Equal(t, "n=1", out)
}
