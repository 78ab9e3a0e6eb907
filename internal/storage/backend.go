// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/jeranaias/lingua-tui/internal/util"
)

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// Backend is a minimal key-value store. Values are opaque bytes.
type Backend interface {
	// Get returns the value for key and whether it exists.
	Get(key string) ([]byte, bool, error)
	// Set replaces the value for key.
	Set(key string, value []byte) error
	// Close releases resources held by the backend.
	Close() error
}

// Pather is implemented by backends that live in a file on disk, so that
// changes by other processes can be watched.
type Pather interface {
	Path() string
}

// Backend kinds accepted by OpenBackend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// ErrQuotaExceeded is returned by a MemoryBackend whose quota is too small
// for a value.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

var validKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func checkKey(key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}

// OpenBackend opens a backend of the given kind rooted at dir.
func OpenBackend(kind, dir string) (Backend, error) {
	switch strings.ToLower(kind) {
	case BackendFile, "":
		return NewFileBackend(dir)
	case BackendSQLite:
		return OpenSQLiteBackend(filepath.Join(dir, "lingua.db"))
	case BackendMemory:
		return NewMemoryBackend(0), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}

// =============================================================================
// MEMORY BACKEND
// =============================================================================

// MemoryBackend keeps values in memory. A positive Quota caps the size of a
// single value.
type MemoryBackend struct {
	Quota int

	mu   sync.RWMutex
	data map[string][]byte
	fail error
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend(quota int) *MemoryBackend {
	return &MemoryBackend{Quota: quota, data: make(map[string][]byte)}
}

// FailWith makes every subsequent call return err. Passing nil clears it.
func (m *MemoryBackend) FailWith(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

// Get implements Backend.
func (m *MemoryBackend) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.fail != nil {
		return nil, false, m.fail
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set implements Backend.
func (m *MemoryBackend) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		return m.fail
	}
	if m.Quota > 0 && len(value) > m.Quota {
		return fmt.Errorf("%w: %d bytes > %d", ErrQuotaExceeded, len(value), m.Quota)
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error { return nil }

// =============================================================================
// FILE BACKEND
// =============================================================================

// FileBackend stores each key as <dir>/<key>.json, replaced atomically on
// every write.
type FileBackend struct {
	dir string
}

// NewFileBackend creates dir if needed and returns a backend over it.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Dir returns the directory holding the key files.
func (f *FileBackend) Dir() string {
	return f.dir
}

// Path returns the file of the default chat collection key.
func (f *FileBackend) Path() string {
	return f.keyPath(DefaultKey)
}

func (f *FileBackend) keyPath(key string) string {
	return filepath.Join(f.dir, key+".json")
}

// Get implements Backend.
func (f *FileBackend) Get(key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(f.keyPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set implements Backend.
func (f *FileBackend) Set(key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return util.AtomicWriteFileWithDir(f.keyPath(key), value, 0600, 0700)
}

// Close implements Backend.
func (f *FileBackend) Close() error { return nil }
