// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/lingua-tui/internal/logging"
	"github.com/jeranaias/lingua-tui/internal/model"
	"github.com/jeranaias/lingua-tui/internal/util"
)

const (
	// DefaultKey is the backend key holding the serialized chat collection.
	DefaultKey = "chats"

	// DefaultTitle is used for chats without a user message.
	DefaultTitle = "New Chat"

	// TitleMaxRunes is the length a derived title is cut to before the ellipsis.
	TitleMaxRunes = 30

	// maxIDAttempts bounds id regeneration on collision.
	maxIDAttempts = 8
)

// =============================================================================
// STORED CHAT TYPE
// =============================================================================

// StoredChat is one persisted conversation.
type StoredChat struct {
	ID          string          `json:"id" yaml:"id"`
	Title       string          `json:"title" yaml:"title"`
	Messages    []model.Message `json:"messages" yaml:"messages"`
	LastUpdated time.Time       `json:"lastUpdated" yaml:"lastUpdated"`
}

// DisplayTitle returns Title, or DefaultTitle when it is empty.
func (c *StoredChat) DisplayTitle() string {
	if c.Title == "" {
		return DefaultTitle
	}
	return c.Title
}

// Preview returns the first user message on a single line, for listings.
func (c *StoredChat) Preview(maxRunes int) string {
	text, ok := model.FirstUserMessage(c.Messages)
	if !ok {
		return ""
	}
	return util.TruncateRunes(util.SingleLine(text), maxRunes)
}

// DeriveTitle returns the title for a message list: the first user message
// cut to TitleMaxRunes characters with "..." appended when cut, or
// DefaultTitle when there is no user message.
func DeriveTitle(messages []model.Message) string {
	text, ok := model.FirstUserMessage(messages)
	if !ok {
		return DefaultTitle
	}
	return util.TruncateRunes(text, TitleMaxRunes)
}

// =============================================================================
// CHAT STORE
// =============================================================================

// ChatStore keeps every chat in one serialized collection under a single
// backend key. Each operation reads the whole collection, changes it and
// writes it back; nothing is cached between calls.
type ChatStore struct {
	backend Backend
	key     string
	now     func() time.Time
	newID   func() string

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// NewChatStore creates a store over backend using DefaultKey.
func NewChatStore(backend Backend) *ChatStore {
	return &ChatStore{
		backend: backend,
		key:     DefaultKey,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// WithKey sets the backend key the collection is stored under.
func (s *ChatStore) WithKey(key string) *ChatStore {
	s.key = key
	return s
}

// WithClock overrides the timestamp source.
func (s *ChatStore) WithClock(now func() time.Time) *ChatStore {
	s.now = now
	return s
}

// WithIDGenerator overrides the id source used by NewID.
func (s *ChatStore) WithIDGenerator(gen func() string) *ChatStore {
	s.newID = gen
	return s
}

// Backend returns the underlying key-value backend.
func (s *ChatStore) Backend() Backend {
	return s.backend
}

// Key returns the key the collection is stored under.
func (s *ChatStore) Key() string {
	return s.key
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Save upserts the chat with the given id. The title is titleOverride when
// non-empty, otherwise it is derived from the messages. A new chat is placed
// at the front of the listing; an existing chat keeps its position.
//
// An error means the chat was not persisted. Callers are expected to carry
// on without persistence.
func (s *ChatStore) Save(id string, messages []model.Message, titleOverride string) (*StoredChat, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.load()
	if err != nil {
		return nil, err
	}

	title := titleOverride
	if title == "" {
		title = DeriveTitle(messages)
	}
	rec := StoredChat{
		ID:          id,
		Title:       title,
		Messages:    model.Clone(messages),
		LastUpdated: s.now(),
	}

	if i := indexOf(chats, id); i >= 0 {
		chats[i] = rec
	} else {
		chats = append([]StoredChat{rec}, chats...)
	}

	if err := s.store(chats); err != nil {
		logging.Warnf("CHAT_SAVE_FAILED | id=%s error=%v", id, err)
		return nil, err
	}

	logging.Debugf("CHAT_SAVED | id=%s messages=%d title=%q", id, len(messages), title)
	return &rec, nil
}

// Create inserts a new chat at the front of the listing. It fails with
// ErrDuplicateID when the id is already taken.
func (s *ChatStore) Create(id string, messages []model.Message) (*StoredChat, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.load()
	if err != nil {
		return nil, err
	}
	if indexOf(chats, id) >= 0 {
		return nil, ErrDuplicateID
	}

	rec := StoredChat{
		ID:          id,
		Title:       DeriveTitle(messages),
		Messages:    model.Clone(messages),
		LastUpdated: s.now(),
	}
	chats = append([]StoredChat{rec}, chats...)

	if err := s.store(chats); err != nil {
		return nil, err
	}

	logging.Debugf("CHAT_CREATED | id=%s", id)
	return &rec, nil
}

// Get returns the chat with the given id, or ErrChatNotFound.
func (s *ChatStore) Get(id string) (*StoredChat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.load()
	if err != nil {
		return nil, err
	}
	i := indexOf(chats, id)
	if i < 0 {
		return nil, ErrChatNotFound
	}
	return &chats[i], nil
}

// GetAll returns every chat in listing order.
func (s *ChatStore) GetAll() ([]StoredChat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// Delete removes the chat with the given id. Deleting an id that does not
// exist succeeds.
func (s *ChatStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.load()
	if err != nil {
		return err
	}

	kept := chats[:0]
	for _, c := range chats {
		if c.ID != id {
			kept = append(kept, c)
		}
	}

	if err := s.store(kept); err != nil {
		logging.Warnf("CHAT_DELETE_FAILED | id=%s error=%v", id, err)
		return err
	}

	logging.Debugf("CHAT_DELETED | id=%s", id)
	return nil
}

// NewID returns a random id not used by any stored chat.
func (s *ChatStore) NewID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.load()
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := s.newID()
		if id != "" && indexOf(chats, id) < 0 {
			return id, nil
		}
		logging.Warnf("CHAT_ID_COLLISION | id=%s attempt=%d", id, attempt+1)
	}
	return "", ErrDuplicateID
}

// =============================================================================
// SERIALIZATION
// =============================================================================

func (s *ChatStore) load() ([]StoredChat, error) {
	data, ok, err := s.backend.Get(s.key)
	if err != nil {
		return nil, &StoreError{Op: "read", Key: s.key, Err: err}
	}
	if !ok || len(data) == 0 {
		return []StoredChat{}, nil
	}

	var chats []StoredChat
	if err := json.Unmarshal(data, &chats); err != nil {
		return nil, &StoreError{Op: "decode", Key: s.key, Err: err}
	}
	if chats == nil {
		chats = []StoredChat{}
	}
	return chats, nil
}

func (s *ChatStore) store(chats []StoredChat) error {
	data, err := json.Marshal(chats)
	if err != nil {
		return &StoreError{Op: "encode", Key: s.key, Err: err}
	}
	if err := s.backend.Set(s.key, data); err != nil {
		return &StoreError{Op: "write", Key: s.key, Err: err}
	}
	return nil
}

func indexOf(chats []StoredChat, id string) int {
	for i := range chats {
		if chats[i].ID == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrChatNotFound is returned when a chat doesn't exist.
// Use errors.Is(err, ErrChatNotFound) to check for this error.
var ErrChatNotFound = &ChatError{Message: "chat not found"}

// ErrDuplicateID is returned when a new chat would reuse an existing id.
var ErrDuplicateID = &ChatError{Message: "chat id already exists"}

// ErrInvalidID is returned for an empty chat id.
var ErrInvalidID = &ChatError{Message: "chat id must not be empty"}

// ChatError represents a chat-level error. It can be compared using errors.Is.
type ChatError struct {
	Message string
}

// Error implements the error interface.
func (e *ChatError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing chat errors.
func (e *ChatError) Is(target error) bool {
	t, ok := target.(*ChatError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// ErrStorage matches every StoreError via errors.Is.
var ErrStorage = errors.New("chat storage unavailable")

// StoreError reports a failure of the underlying key-value storage.
type StoreError struct {
	Op  string // "read", "decode", "encode", "write"
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is makes every StoreError match ErrStorage.
func (e *StoreError) Is(target error) bool {
	return target == ErrStorage
}
