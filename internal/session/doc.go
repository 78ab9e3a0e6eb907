// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the state of the practice chat screen and the
// commands that change it.
//
// A send is split in three steps so that the network call can run outside
// the UI loop:
//
//	p, err := sess.BeginSend(text) // on the loop
//	reply := session.Run(ctx, completer, p) // anywhere
//	err = sess.Complete(p, reply) // back on the loop
//
// Failed sends leave the user message on screen followed by a notice. The
// notice is never stored, so reopening the chat shows only completed
// exchanges.
package session
