// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chats on the local machine.
//
// All chats live in one JSON array stored under a single key ("chats") of a
// small key-value Backend. Every ChatStore operation decodes the whole
// collection, changes it and encodes it again. Within a process operations
// are serialized; two processes writing the same store race and the last
// writer wins.
//
// # Backends
//
//   - FileBackend: <dir>/chats.json, replaced atomically
//   - SQLiteBackend: a kv table in <dir>/lingua.db (modernc.org/sqlite)
//   - MemoryBackend: tests, with an optional per-value quota
//
// # Usage
//
//	backend, err := storage.OpenBackend("file", dir)
//	store := storage.NewChatStore(backend)
//	id, _ := store.NewID()
//	chat, err := store.Save(id, messages, "")
//	if err != nil {
//	    // not persisted; keep going
//	}
//
// Watch notifies about changes made by another process so a history list can
// be reloaded.
package storage
