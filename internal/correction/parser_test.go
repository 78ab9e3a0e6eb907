// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package correction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_WellFormedReply(t *testing.T) {
	raw := `{"original":"I has a apple","corrected":"I have an apple","explanation":"has→have, a→an"}` + "\nGood job!"

	got := Parse(raw)

	assert.True(t, got.HasCorrection())
	assert.Equal(t, "I has a apple", got.Original)
	assert.Equal(t, "I have an apple", got.Corrected)
	assert.Equal(t, "has→have, a→an", got.Explanation)
	assert.Equal(t, "Good job!", got.Conversation)
}

func TestParse_NoBlock(t *testing.T) {
	raw := "  Hello there! How was your day?  "

	got := Parse(raw)

	assert.False(t, got.HasCorrection())
	assert.Empty(t, got.Original)
	assert.Empty(t, got.Corrected)
	assert.Empty(t, got.Explanation)
	assert.Equal(t, raw, got.Conversation, "fallback keeps the reply untrimmed")
}

func TestParse_FallbackCases(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"invalid json", `{original: I has} nice`},
		{"missing field", `{"original":"a","corrected":"b"} text`},
		{"number field", `{"original":"a","corrected":"b","explanation":3} text`},
		{"null field", `{"original":null,"corrected":"b","explanation":"c"}`},
		{"empty braces", `{} hi`},
		{"nested too deep", `{"a":{"b":{"c":1}}} hi`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			assert.False(t, got.HasCorrection())
			assert.Equal(t, Result{Conversation: tt.raw}, got)
		})
	}
}

func TestParse_Normalization(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		corrected string
		remainder string
	}{
		{
			name:      "smart quotes",
			raw:       "{“original”:“me go”,“corrected”:“I go”,“explanation”:“subject pronoun”}\nWhere to?",
			corrected: "I go",
			remainder: "Where to?",
		},
		{
			name:      "trailing comma",
			raw:       `{"original":"x","corrected":"y","explanation":"z", }   Keep going!`,
			corrected: "y",
			remainder: "Keep going!",
		},
		{
			name:      "line breaks inside block",
			raw:       "{\n\"original\": \"x\",\r\n\"corrected\": \"y\",\n\"explanation\": \"z\"\n}\nNice.",
			corrected: "y",
			remainder: "Nice.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			assert.True(t, got.HasCorrection())
			assert.Equal(t, tt.corrected, got.Corrected)
			assert.Equal(t, tt.remainder, got.Conversation)
		})
	}
}

func TestParse_OneLevelNesting(t *testing.T) {
	raw := `{"original":"a","corrected":"b","explanation":"c","meta":{"level":"A1"}} after`

	got := Parse(raw)

	assert.True(t, got.HasCorrection())
	assert.Equal(t, "c", got.Explanation)
	assert.Equal(t, "after", got.Conversation)
}

func TestParse_EmptyRemainder(t *testing.T) {
	got := Parse(`Sure! {"original":"ok","corrected":"ok","explanation":""}   `)

	assert.True(t, got.HasCorrection())
	assert.Empty(t, got.Conversation)
	assert.Empty(t, got.Explanation)
}

func TestParse_EmptyInput(t *testing.T) {
	got := Parse("")
	assert.Equal(t, Result{}, got)
}
