// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "fmt"

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the roles accepted by the completion API.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Partner"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one turn of a conversation. It is stored and sent to the model
// exactly as {"role", "content"}.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// ValidateMessages checks that a message list can be forwarded to a
// completion endpoint.
func ValidateMessages(messages []Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("messages array cannot be empty")
	}
	for i, msg := range messages {
		if !msg.Role.Valid() {
			return fmt.Errorf("message %d has invalid role %q", i, msg.Role)
		}
	}
	return nil
}

// FirstUserMessage returns the content of the first user message.
func FirstUserMessage(messages []Message) (string, bool) {
	for _, msg := range messages {
		if msg.Role == RoleUser {
			return msg.Content, true
		}
	}
	return "", false
}

// CountRole returns how many messages carry the given role.
func CountRole(messages []Message, role Role) int {
	n := 0
	for _, msg := range messages {
		if msg.Role == role {
			n++
		}
	}
	return n
}

// Clone returns a copy of messages that shares no backing array with the input.
func Clone(messages []Message) []Message {
	if messages == nil {
		return nil
	}
	out := make([]Message, len(messages))
	copy(out, messages)
	return out
}
