// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"github.com/jeranaias/lingua-tui/internal/correction"
	"github.com/jeranaias/lingua-tui/internal/diff"
)

// FallbackReply is shown in the partner bubble when a reply carries no
// conversational text after its correction block.
const FallbackReply = "I understand! Please continue."

// Kind tags a processed message for display.
type Kind string

const (
	KindUser       Kind = "user"
	KindPartner    Kind = "partner"
	KindCorrection Kind = "correction"
	KindSystem     Kind = "system"
)

// Processed is a display-only view of a conversation entry. It is rebuilt
// from the stored messages on every render and never persisted.
type Processed struct {
	Kind Kind

	// Original is the text the user typed. Set for KindUser.
	Original string
	// Corrected is the model's correction of Original, if any. Set for KindUser.
	Corrected string

	// Text holds the body of partner, correction and system entries.
	Text string
}

// HasDiff reports whether a user entry should be drawn as a diff.
func (p Processed) HasDiff() bool {
	return p.Kind == KindUser && p.Corrected != "" && p.Corrected != p.Original
}

// Segments returns the word diff between Original and Corrected.
func (p Processed) Segments() []diff.Segment {
	return diff.Words(p.Original, p.Corrected)
}

// Notice is a transient entry, such as a failed send, shown after the first
// After messages of a conversation. Notices are never stored.
type Notice struct {
	After int
	Text  string
}

// Project builds the display list for a conversation. System messages are
// hidden; each assistant reply annotates the preceding user entry with its
// correction and contributes an optional correction entry plus a partner
// entry.
func Project(messages []Message, notices []Notice) []Processed {
	out := make([]Processed, 0, len(messages)*2+len(notices))
	out = appendNotices(out, notices, 0)

	for i, msg := range messages {
		switch msg.Role {
		case RoleUser:
			out = append(out, Processed{Kind: KindUser, Original: msg.Content})

		case RoleAssistant:
			parsed := correction.Parse(msg.Content)

			if parsed.Corrected != "" {
				if n := len(out); n > 0 && out[n-1].Kind == KindUser {
					out[n-1].Corrected = parsed.Corrected
				}
			}
			if parsed.Explanation != "" {
				out = append(out, Processed{Kind: KindCorrection, Text: parsed.Explanation})
			}

			text := parsed.Conversation
			if text == "" {
				text = FallbackReply
			}
			out = append(out, Processed{Kind: KindPartner, Text: text})
		}

		out = appendNotices(out, notices, i+1)
	}

	for _, n := range notices {
		if n.After > len(messages) {
			out = append(out, Processed{Kind: KindSystem, Text: n.Text})
		}
	}
	return out
}

func appendNotices(out []Processed, notices []Notice, after int) []Processed {
	for _, n := range notices {
		if n.After == after {
			out = append(out, Processed{Kind: KindSystem, Text: n.Text})
		}
	}
	return out
}
