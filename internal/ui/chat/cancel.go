// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// SEND CONTEXT MANAGEMENT
// =============================================================================

// sendContext owns the context that outstanding sends run under. Sends are
// never cancelled individually; the context ends only when the screen quits.
// It must be used as a pointer so Bubble Tea's model copies share it.
type sendContext struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func newSendContext(parent context.Context) *sendContext {
	ctx, cancel := context.WithCancel(parent)
	return &sendContext{ctx: ctx, cancel: cancel}
}

// context returns the context for a new send, bounded by timeout when it is
// positive. The returned release func must be called when the send ends.
func (sc *sendContext) context(timeout time.Duration) (context.Context, context.CancelFunc) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if timeout > 0 {
		return context.WithTimeout(sc.ctx, timeout)
	}
	return context.WithCancel(sc.ctx)
}

// stop cancels every outstanding send. Safe to call more than once.
func (sc *sendContext) stop() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cancel()
}
