// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package correction

import (
	"encoding/json"
	"regexp"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/jeranaias/lingua-tui/internal/logging"
	"github.com/jeranaias/lingua-tui/internal/util"
)

// =============================================================================
// RESULT
// =============================================================================

// Result is the structured part of a model reply plus the free text that
// follows it. All fields are empty strings when no correction block could be
// decoded, in which case Conversation holds the whole reply.
type Result struct {
	Original     string `json:"original"`
	Corrected    string `json:"corrected"`
	Explanation  string `json:"explanation"`
	Conversation string `json:"conversation"`

	decoded bool
}

// HasCorrection reports whether a correction block was found and decoded.
func (r Result) HasCorrection() bool {
	return r.decoded
}

// =============================================================================
// PARSING
// =============================================================================

// blockPattern matches the first brace-delimited block allowing one level of
// nested braces.
var blockPattern = regexp.MustCompile(`\{(?:[^{}]|(?:\{[^{}]*\}))*\}`)

var trailingComma = regexp.MustCompile(`,\s*}`)

// plainQuotes maps curly double quotes to ASCII and line breaks to spaces.
var plainQuotes = runes.Map(func(r rune) rune {
	switch r {
	case '“', '”':
		return '"'
	case '\n', '\r':
		return ' '
	default:
		return r
	}
})

// Parse extracts the correction block from a raw model reply. It never
// fails: anything that does not decode into three string fields degrades to
// a Result whose Conversation is the unmodified reply.
func Parse(raw string) Result {
	loc := blockPattern.FindStringIndex(raw)
	if loc == nil {
		logging.Debugf("CORRECTION_FALLBACK | reason=no_block len=%d", len(raw))
		return fallback(raw)
	}

	block, err := normalize(raw[loc[0]:loc[1]])
	if err != nil {
		logging.Warnf("CORRECTION_FALLBACK | reason=normalize error=%v", err)
		return fallback(raw)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(block), &fields); err != nil {
		logging.Warnf("CORRECTION_FALLBACK | reason=decode error=%v block=%q", err, util.TruncateRunes(block, 80))
		return fallback(raw)
	}

	original, ok1 := fields["original"].(string)
	corrected, ok2 := fields["corrected"].(string)
	explanation, ok3 := fields["explanation"].(string)
	if !ok1 || !ok2 || !ok3 {
		logging.Warnf("CORRECTION_FALLBACK | reason=field_types block=%q", util.TruncateRunes(block, 80))
		return fallback(raw)
	}

	return Result{
		Original:     original,
		Corrected:    corrected,
		Explanation:  explanation,
		Conversation: strings.TrimSpace(raw[loc[1]:]),
		decoded:      true,
	}
}

// normalize repairs the most common ways models bend JSON: smart quotes,
// hard line breaks inside the block and a trailing comma.
func normalize(block string) (string, error) {
	out, _, err := transform.String(plainQuotes, block)
	if err != nil {
		return "", err
	}
	return trailingComma.ReplaceAllString(out, "}"), nil
}

func fallback(raw string) Result {
	return Result{Conversation: raw}
}
