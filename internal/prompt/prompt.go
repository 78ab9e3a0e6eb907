// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt holds the instructions sent to the language model.
package prompt

import (
	_ "embed"
	"strings"

	"github.com/jeranaias/lingua-tui/internal/model"
)

//go:embed system_prompt.txt
var systemPrompt string

//go:embed title_prompt.txt
var titlePrompt string

// MaxTitleRunes bounds a model-generated title before it is stored.
const MaxTitleRunes = 60

// System returns the language-partner system prompt.
func System() string {
	return strings.TrimSpace(systemPrompt)
}

// SystemMessage returns the system prompt as the first message of a chat.
func SystemMessage() model.Message {
	return model.NewSystemMessage(System())
}

// TitleRequest builds the message list for the title-generation call.
func TitleRequest(firstUserMessage string) []model.Message {
	return []model.Message{
		model.NewSystemMessage(strings.TrimSpace(titlePrompt)),
		model.NewUserMessage(firstUserMessage),
	}
}

// CleanTitle tidies a model-generated title: first line only, surrounding
// quotes and trailing punctuation removed. It returns "" when nothing usable
// is left so that callers fall back to the derived title.
func CleanTitle(raw string) string {
	line := strings.TrimSpace(raw)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	line = strings.Trim(line, " \t\"'“”‘’`*#")
	line = strings.TrimRight(line, ".!?:;, ")
	if line == "" {
		return ""
	}
	runes := []rune(line)
	if len(runes) > MaxTitleRunes {
		line = strings.TrimSpace(string(runes[:MaxTitleRunes]))
	}
	return line
}
