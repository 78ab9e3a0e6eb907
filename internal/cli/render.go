// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/lingua-tui/internal/diff"
	"github.com/jeranaias/lingua-tui/internal/model"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderMarkdown renders partner text for the terminal. It returns content
// unchanged when colors are off or glamour fails.
func renderMarkdown(content string) string {
	if !ColorsEnabled() {
		return content
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(renderWidth()-4),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// highlight colors code in language for a 256-color terminal. It returns
// code unchanged when colors are off or highlighting fails.
func highlight(code, language string) string {
	if !ColorsEnabled() {
		return code
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// =============================================================================
// CONVERSATION RENDERING
// =============================================================================

// renderSegments draws a word diff with styles, or with {+ +} / [- -]
// markers when colors are off.
func renderSegments(segs []diff.Segment) string {
	if !ColorsEnabled() {
		return diff.Plain(segs)
	}

	var sb strings.Builder
	for _, s := range segs {
		switch {
		case s.Removed:
			sb.WriteString(RemovedStyle.Render(s.Value))
		case s.Added:
			sb.WriteString(AddedStyle.Render(s.Value))
		default:
			sb.WriteString(s.Value)
		}
	}
	return sb.String()
}

// printEntry writes one display entry as the line-mode chat shows it.
func printEntry(w io.Writer, e model.Processed) {
	switch e.Kind {
	case model.KindUser:
		if e.HasDiff() {
			segs := e.Segments()
			fmt.Fprintf(w, "%s %s\n", render(DimStyle, "You:"), renderSegments(segs))
			fmt.Fprintf(w, "     %s\n", render(DimStyle, diff.Compute(segs).Summary()))
			return
		}
		fmt.Fprintf(w, "%s %s\n", render(DimStyle, "You:"), e.Original)

	case model.KindCorrection:
		fmt.Fprintf(w, "%s %s\n", render(ExplanationStyle, "✎"), render(ExplanationStyle, e.Text))

	case model.KindPartner:
		fmt.Fprintf(w, "%s\n%s\n", render(TitleStyle, "Partner:"), renderMarkdown(e.Text))

	default:
		fmt.Fprintln(w, render(WarningStyle, e.Text))
	}
}

// printConversation writes every entry, separated by blank lines.
func printConversation(w io.Writer, entries []model.Processed) {
	for i, e := range entries {
		if i > 0 && e.Kind != model.KindCorrection {
			fmt.Fprintln(w)
		}
		printEntry(w, e)
	}
}
