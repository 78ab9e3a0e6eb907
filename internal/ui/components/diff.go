// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/lingua-tui/internal/diff"
	"github.com/jeranaias/lingua-tui/internal/ui/styles"
)

// RenderSegments draws a word diff inline: removed words struck through,
// added words highlighted, unchanged text as is. Whitespace that only exists
// in the original is dropped so the sentence reads naturally.
func RenderSegments(segs []diff.Segment, theme *styles.Theme) string {
	var sb strings.Builder
	for _, s := range segs {
		blank := strings.TrimSpace(s.Value) == ""
		switch {
		case s.Removed && blank:
		case s.Removed:
			sb.WriteString(theme.DiffRemoved.Render(s.Value))
		case s.Added && !blank:
			sb.WriteString(theme.DiffAdded.Render(s.Value))
		default:
			sb.WriteString(s.Value)
		}
	}
	return sb.String()
}

// RenderDiffStats renders the "+n -m words" summary line.
func RenderDiffStats(segs []diff.Segment, theme *styles.Theme) string {
	return theme.DiffStats.Render(diff.Compute(segs).Summary())
}
