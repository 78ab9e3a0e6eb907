// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/lingua-tui/internal/model"
)

func newTestStore(t *testing.T) (*ChatStore, *MemoryBackend) {
	t.Helper()
	backend := NewMemoryBackend(0)
	return NewChatStore(backend), backend
}

func sampleMessages(user string) []model.Message {
	return []model.Message{
		model.NewSystemMessage("prompt"),
		model.NewUserMessage(user),
		model.NewAssistantMessage("reply"),
	}
}

// =============================================================================
// TITLE DERIVATION
// =============================================================================

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name     string
		messages []model.Message
		want     string
	}{
		{"no messages", nil, "New Chat"},
		{"system only", []model.Message{model.NewSystemMessage("prompt")}, "New Chat"},
		{"short", sampleMessages("Hello"), "Hello"},
		{"exactly thirty", sampleMessages(strings.Repeat("a", 30)), strings.Repeat("a", 30)},
		{"thirty one", sampleMessages(strings.Repeat("b", 31)), strings.Repeat("b", 30) + "..."},
		{
			"uses first user message",
			[]model.Message{model.NewUserMessage("first"), model.NewUserMessage("second")},
			"first",
		},
		{"runes not bytes", sampleMessages(strings.Repeat("ñ", 31)), strings.Repeat("ñ", 30) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTitle(tt.messages); got != tt.want {
				t.Errorf("DeriveTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

// =============================================================================
// SAVE / GET
// =============================================================================

func TestChatStore_SaveThenGet(t *testing.T) {
	store, _ := newTestStore(t)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.WithClock(func() time.Time { return fixed })

	msgs := sampleMessages("I has a apple and a very long sentence here")
	saved, err := store.Save("chat-1", msgs, "")
	require.NoError(t, err)
	assert.Equal(t, "I has a apple and a very long ...", saved.Title)
	assert.Equal(t, fixed, saved.LastUpdated)

	got, err := store.Get("chat-1")
	require.NoError(t, err)
	assert.Equal(t, msgs, got.Messages)
	assert.Equal(t, saved.Title, got.Title)
	assert.True(t, got.LastUpdated.Equal(fixed))
}

func TestChatStore_TitleOverride(t *testing.T) {
	store, _ := newTestStore(t)

	saved, err := store.Save("c", sampleMessages("hello"), "Greetings Practice")
	require.NoError(t, err)
	assert.Equal(t, "Greetings Practice", saved.Title)
}

func TestChatStore_SaveDoesNotAlias(t *testing.T) {
	store, _ := newTestStore(t)

	msgs := sampleMessages("hello")
	_, err := store.Save("c", msgs, "")
	require.NoError(t, err)
	msgs[1].Content = "changed"

	got, err := store.Get("c")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Messages[1].Content)
}

func TestChatStore_ListingOrder(t *testing.T) {
	store, _ := newTestStore(t)

	for _, id := range []string{"a", "b", "c"} {
		_, err := store.Save(id, sampleMessages(id), "")
		require.NoError(t, err)
	}

	// Updating an existing chat keeps its position.
	_, err := store.Save("a", sampleMessages("a again"), "")
	require.NoError(t, err)

	all, err := store.GetAll()
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, c := range all {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"c", "b", "a"}, ids)
	assert.Equal(t, "a again", all[2].Title)
}

func TestChatStore_GetMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get("nope")
	if !errors.Is(err, ErrChatNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrChatNotFound", err)
	}
}

func TestChatStore_EmptyID(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Save("", sampleMessages("x"), "")
	assert.ErrorIs(t, err, ErrInvalidID)
}

// =============================================================================
// DELETE
// =============================================================================

func TestChatStore_Delete(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Save("keep", sampleMessages("keep"), "")
	require.NoError(t, err)
	_, err = store.Save("drop", sampleMessages("drop"), "")
	require.NoError(t, err)

	require.NoError(t, store.Delete("drop"))

	_, err = store.Get("drop")
	assert.ErrorIs(t, err, ErrChatNotFound)

	all, err := store.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "keep", all[0].ID)

	assert.NoError(t, store.Delete("never-existed"))
}

// =============================================================================
// CREATE / IDS
// =============================================================================

func TestChatStore_CreateRejectsDuplicate(t *testing.T) {
	store, _ := newTestStore(t)

	created, err := store.Create("same", []model.Message{model.NewSystemMessage("p")})
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, created.Title)

	_, err = store.Create("same", nil)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestChatStore_NewIDRegeneratesOnCollision(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Save("taken", sampleMessages("x"), "")
	require.NoError(t, err)

	ids := []string{"taken", "taken", "fresh"}
	store.WithIDGenerator(func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	})

	id, err := store.NewID()
	require.NoError(t, err)
	assert.Equal(t, "fresh", id)
}

func TestChatStore_NewIDGivesUp(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Save("taken", sampleMessages("x"), "")
	require.NoError(t, err)
	store.WithIDGenerator(func() string { return "taken" })

	_, err = store.NewID()
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestChatStore_DefaultIDsAreUUIDs(t *testing.T) {
	store, _ := newTestStore(t)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := store.NewID()
		require.NoError(t, err)
		assert.Len(t, id, 36)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

// =============================================================================
// FAILURES
// =============================================================================

func TestChatStore_QuotaExceeded(t *testing.T) {
	backend := NewMemoryBackend(64)
	store := NewChatStore(backend)

	_, err := store.Save("c", sampleMessages(strings.Repeat("long ", 40)), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	_, err = store.Get("c")
	assert.ErrorIs(t, err, ErrChatNotFound, "failed save must not persist")
}

func TestChatStore_BackendUnavailable(t *testing.T) {
	store, backend := newTestStore(t)
	backend.FailWith(errors.New("disk gone"))

	_, err := store.Save("c", sampleMessages("x"), "")
	assert.ErrorIs(t, err, ErrStorage)

	_, err = store.GetAll()
	assert.ErrorIs(t, err, ErrStorage)

	assert.ErrorIs(t, store.Delete("c"), ErrStorage)
}

func TestChatStore_CorruptBlob(t *testing.T) {
	store, backend := newTestStore(t)
	require.NoError(t, backend.Set(DefaultKey, []byte("{not json")))

	_, err := store.GetAll()
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "decode", se.Op)
}

func TestChatStore_WithKey(t *testing.T) {
	backend := NewMemoryBackend(0)
	a := NewChatStore(backend)
	b := NewChatStore(backend).WithKey("other")

	_, err := a.Save("x", sampleMessages("x"), "")
	require.NoError(t, err)

	all, err := b.GetAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStoredChat_Helpers(t *testing.T) {
	c := StoredChat{Messages: sampleMessages("hello\nthere  friend")}
	assert.Equal(t, DefaultTitle, c.DisplayTitle())
	assert.Equal(t, "hello there friend", c.Preview(40))
	assert.Equal(t, "hello...", c.Preview(5))
}
