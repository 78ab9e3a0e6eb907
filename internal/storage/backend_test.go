// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseBackend runs the same contract checks against any Backend.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()

	_, ok, err := b.Get("chats")
	require.NoError(t, err)
	assert.False(t, ok, "fresh backend should be empty")

	require.NoError(t, b.Set("chats", []byte(`[1]`)))
	v, ok, err := b.Get("chats")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[1]`, string(v))

	require.NoError(t, b.Set("chats", []byte(`[2]`)))
	v, _, err = b.Get("chats")
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(v))
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend(0))
}

func TestFileBackend(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	b, err := NewFileBackend(dir)
	require.NoError(t, err)
	exerciseBackend(t, b)

	_, err = os.Stat(filepath.Join(dir, "chats.json"))
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chats.json"), b.Path())
}

func TestFileBackend_RejectsPathKeys(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, b.Set("../escape", []byte("x")))
	_, _, err = b.Get("a/b")
	assert.Error(t, err)
}

func TestSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lingua.db")
	b, err := OpenSQLiteBackend(path)
	require.NoError(t, err)
	defer b.Close()

	exerciseBackend(t, b)
	assert.Equal(t, path, b.Path())
}

func TestSQLiteBackend_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lingua.db")

	b, err := OpenSQLiteBackend(path)
	require.NoError(t, err)
	store := NewChatStore(b)
	_, err = store.Save("persisted", sampleMessages("hola"), "")
	require.NoError(t, err)
	require.NoError(t, b.Close())

	b2, err := OpenSQLiteBackend(path)
	require.NoError(t, err)
	defer b2.Close()

	got, err := NewChatStore(b2).Get("persisted")
	require.NoError(t, err)
	assert.Equal(t, "hola", got.Title)
}

func TestOpenBackend(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		kind    string
		wantErr bool
	}{
		{"file", false},
		{"", false},
		{"sqlite", false},
		{"memory", false},
		{"redis", true},
	}

	for _, tt := range tests {
		b, err := OpenBackend(tt.kind, dir)
		if (err != nil) != tt.wantErr {
			t.Errorf("OpenBackend(%q) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
		}
		if b != nil {
			b.Close()
		}
	}
}

func TestFileBackend_StoreRoundTrip(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	store := NewChatStore(b)

	_, err = store.Save("a", sampleMessages("one"), "")
	require.NoError(t, err)
	_, err = store.Save("b", sampleMessages("two"), "")
	require.NoError(t, err)

	// A second store over the same directory sees the same collection.
	other, err := NewFileBackend(b.Dir())
	require.NoError(t, err)
	all, err := NewChatStore(other).GetAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
}
