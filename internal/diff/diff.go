// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff

import (
	"fmt"
	"strings"
	"unicode"
)

// =============================================================================
// SEGMENT TYPES
// =============================================================================

// SegmentType classifies a run of text in a word diff.
type SegmentType int

const (
	// SegmentContext is text present in both versions.
	SegmentContext SegmentType = iota
	// SegmentAdded is text only present in the corrected version.
	SegmentAdded
	// SegmentRemoved is text only present in the original version.
	SegmentRemoved
)

// String returns the string representation of a segment type.
func (t SegmentType) String() string {
	switch t {
	case SegmentContext:
		return "context"
	case SegmentAdded:
		return "added"
	case SegmentRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Prefix returns the marker used when a segment is printed without color.
func (t SegmentType) Prefix() string {
	switch t {
	case SegmentAdded:
		return "+"
	case SegmentRemoved:
		return "-"
	default:
		return ""
	}
}

// =============================================================================
// SEGMENT
// =============================================================================

// Segment is one run of the word diff. At most one of Added and Removed is set.
type Segment struct {
	Value   string `json:"value"`
	Added   bool   `json:"added"`
	Removed bool   `json:"removed"`
}

// Type returns the segment classification.
func (s Segment) Type() SegmentType {
	switch {
	case s.Added:
		return SegmentAdded
	case s.Removed:
		return SegmentRemoved
	default:
		return SegmentContext
	}
}

func segmentOf(t SegmentType, value string) Segment {
	return Segment{Value: value, Added: t == SegmentAdded, Removed: t == SegmentRemoved}
}

// =============================================================================
// WORD DIFF
// =============================================================================

// Words computes a word-level diff from original to corrected.
//
// Joining the values of all non-removed segments yields corrected and joining
// all non-added segments yields original. When either side is empty the
// result is a single unmarked segment holding the other side.
func Words(original, corrected string) []Segment {
	if original == "" {
		return []Segment{{Value: corrected}}
	}
	if corrected == "" {
		return []Segment{{Value: original}}
	}
	return coalesce(computeTokenDiff(tokenize(original), tokenize(corrected)))
}

// tokenize splits s into whitespace runs, word runs and single punctuation
// characters. Concatenating the tokens yields s.
func tokenize(s string) []string {
	var tokens []string
	start := -1
	prev := classNone

	for i, r := range s {
		c := classify(r)
		if start >= 0 && (c != prev || c == classPunct) {
			tokens = append(tokens, s[start:i])
			start = -1
		}
		if start < 0 {
			start = i
		}
		prev = c
	}
	if start >= 0 {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

type runeClass int

const (
	classNone runeClass = iota
	classSpace
	classWord
	classPunct
)

func classify(r rune) runeClass {
	switch {
	case unicode.IsSpace(r):
		return classSpace
	case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r), r == '_':
		return classWord
	default:
		return classPunct
	}
}

// computeTokenDiff walks both token lists against their longest common
// subsequence. At a change, removals are emitted before additions.
func computeTokenDiff(oldTokens, newTokens []string) []Segment {
	var result []Segment

	lcs := computeLCS(oldTokens, newTokens)

	oldIdx, newIdx, lcsIdx := 0, 0, 0
	for oldIdx < len(oldTokens) || newIdx < len(newTokens) {
		if lcsIdx < len(lcs) &&
			oldIdx < len(oldTokens) && newIdx < len(newTokens) &&
			oldTokens[oldIdx] == lcs[lcsIdx] &&
			newTokens[newIdx] == lcs[lcsIdx] {
			result = append(result, segmentOf(SegmentContext, oldTokens[oldIdx]))
			oldIdx++
			newIdx++
			lcsIdx++
		} else if oldIdx < len(oldTokens) && (lcsIdx >= len(lcs) || oldTokens[oldIdx] != lcs[lcsIdx]) {
			result = append(result, segmentOf(SegmentRemoved, oldTokens[oldIdx]))
			oldIdx++
		} else {
			result = append(result, segmentOf(SegmentAdded, newTokens[newIdx]))
			newIdx++
		}
	}

	return result
}

// computeLCS computes the longest common subsequence of two token slices.
func computeLCS(a, b []string) []string {
	m, n := len(a), len(b)

	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	lcs := make([]string, dp[m][n])
	k := len(lcs) - 1
	i, j := m, n
	for i > 0 && j > 0 {
		if a[i-1] == b[j-1] {
			lcs[k] = a[i-1]
			k--
			i--
			j--
		} else if dp[i-1][j] > dp[i][j-1] {
			i--
		} else {
			j--
		}
	}

	return lcs
}

// coalesce joins neighbouring tokens of the same type into one segment.
func coalesce(tokens []Segment) []Segment {
	var out []Segment
	for _, s := range tokens {
		if n := len(out); n > 0 && out[n-1].Type() == s.Type() {
			out[n-1].Value += s.Value
			continue
		}
		out = append(out, s)
	}
	return out
}

// =============================================================================
// RECONSTRUCTION & STATS
// =============================================================================

// Original rebuilds the original text from segments.
func Original(segments []Segment) string {
	var sb strings.Builder
	for _, s := range segments {
		if !s.Added {
			sb.WriteString(s.Value)
		}
	}
	return sb.String()
}

// Corrected rebuilds the corrected text from segments.
func Corrected(segments []Segment) string {
	var sb strings.Builder
	for _, s := range segments {
		if !s.Removed {
			sb.WriteString(s.Value)
		}
	}
	return sb.String()
}

// Stats counts the words inserted and deleted by a diff.
type Stats struct {
	Additions int
	Deletions int
}

// Compute returns the word counts of the added and removed segments.
func Compute(segments []Segment) Stats {
	var st Stats
	for _, s := range segments {
		switch s.Type() {
		case SegmentAdded:
			st.Additions += len(strings.Fields(s.Value))
		case SegmentRemoved:
			st.Deletions += len(strings.Fields(s.Value))
		}
	}
	return st
}

// Changed reports whether the diff contains any insertion or deletion.
func (st Stats) Changed() bool {
	return st.Additions > 0 || st.Deletions > 0
}

// Summary returns a short human-readable description such as "+2 -2 words".
func (st Stats) Summary() string {
	if !st.Changed() {
		return "no changes"
	}
	return fmt.Sprintf("+%d -%d words", st.Additions, st.Deletions)
}

// Plain renders segments without color, wrapping changes in [-...-] and
// {+...+} markers. It is used when output is not a terminal.
func Plain(segments []Segment) string {
	var sb strings.Builder
	for _, s := range segments {
		switch s.Type() {
		case SegmentAdded:
			sb.WriteString("{+" + s.Value + "+}")
		case SegmentRemoved:
			sb.WriteString("[-" + s.Value + "-]")
		default:
			sb.WriteString(s.Value)
		}
	}
	return sb.String()
}
