// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ROLE & MESSAGE TESTS
// =============================================================================

func TestRole_Valid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleUser, true},
		{RoleAssistant, true},
		{RoleSystem, true},
		{Role("tool"), false},
		{Role(""), false},
	}

	for _, tt := range tests {
		if got := tt.role.Valid(); got != tt.want {
			t.Errorf("Role(%q).Valid() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestValidateMessages(t *testing.T) {
	if err := ValidateMessages(nil); err == nil {
		t.Error("ValidateMessages(nil) should fail")
	}
	if err := ValidateMessages([]Message{{Role: "robot", Content: "x"}}); err == nil {
		t.Error("ValidateMessages with invalid role should fail")
	}
	if err := ValidateMessages([]Message{NewSystemMessage("p"), NewUserMessage("hi")}); err != nil {
		t.Errorf("ValidateMessages() = %v, want nil", err)
	}
}

func TestFirstUserMessage(t *testing.T) {
	msgs := []Message{NewSystemMessage("prompt"), NewUserMessage("first"), NewUserMessage("second")}

	got, ok := FirstUserMessage(msgs)
	if !ok || got != "first" {
		t.Errorf("FirstUserMessage() = %q, %v, want %q, true", got, ok, "first")
	}

	if _, ok := FirstUserMessage(msgs[:1]); ok {
		t.Error("FirstUserMessage() on system-only list should report false")
	}
}

func TestClone(t *testing.T) {
	orig := []Message{NewUserMessage("a")}
	cp := Clone(orig)
	cp[0].Content = "b"

	if orig[0].Content != "a" {
		t.Errorf("Clone shares storage with its input")
	}
	if Clone(nil) != nil {
		t.Errorf("Clone(nil) should be nil")
	}
}

// =============================================================================
// PROJECTION TESTS
// =============================================================================

func TestProject_EndToEnd(t *testing.T) {
	msgs := []Message{
		NewSystemMessage("you are a language partner"),
		NewUserMessage("I has a apple"),
		NewAssistantMessage(`{"original":"I has a apple","corrected":"I have an apple","explanation":"has→have, a→an"}` + "\nGood job!"),
	}

	got := Project(msgs, nil)

	require.Len(t, got, 3)
	assert.Equal(t, KindUser, got[0].Kind)
	assert.Equal(t, "I has a apple", got[0].Original)
	assert.Equal(t, "I have an apple", got[0].Corrected)
	assert.True(t, got[0].HasDiff())

	segs := got[0].Segments()
	var removed, added []string
	for _, s := range segs {
		if s.Removed {
			removed = append(removed, s.Value)
		}
		if s.Added {
			added = append(added, s.Value)
		}
	}
	assert.Equal(t, []string{"has", "a"}, removed)
	assert.Equal(t, []string{"have", "an"}, added)

	assert.Equal(t, Processed{Kind: KindCorrection, Text: "has→have, a→an"}, got[1])
	assert.Equal(t, Processed{Kind: KindPartner, Text: "Good job!"}, got[2])
}

func TestProject_PlainReply(t *testing.T) {
	msgs := []Message{
		NewUserMessage("Hello"),
		NewAssistantMessage("Hi! How are you today?"),
	}

	got := Project(msgs, nil)

	require.Len(t, got, 2)
	assert.False(t, got[0].HasDiff())
	assert.Equal(t, Processed{Kind: KindPartner, Text: "Hi! How are you today?"}, got[1])
}

func TestProject_FallbackAndNoExplanation(t *testing.T) {
	msgs := []Message{
		NewUserMessage("I am fine"),
		NewAssistantMessage(`{"original":"I am fine","corrected":"I am fine","explanation":""}`),
	}

	got := Project(msgs, nil)

	require.Len(t, got, 2)
	assert.False(t, got[0].HasDiff(), "identical correction draws no diff")
	assert.Equal(t, FallbackReply, got[1].Text)
}

func TestProject_Notices(t *testing.T) {
	msgs := []Message{
		NewSystemMessage("prompt"),
		NewUserMessage("first try"),
		NewUserMessage("second try"),
		NewAssistantMessage("ok"),
	}
	notices := []Notice{
		{After: 2, Text: "failed once"},
		{After: 9, Text: "late"},
	}

	got := Project(msgs, notices)

	kinds := make([]Kind, len(got))
	for i, p := range got {
		kinds[i] = p.Kind
	}
	assert.Equal(t, []Kind{KindUser, KindSystem, KindUser, KindPartner, KindSystem}, kinds)
	assert.Equal(t, "failed once", got[1].Text)
	assert.Equal(t, "late", got[4].Text)
}
