// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/lingua-tui/internal/diff"
	"github.com/jeranaias/lingua-tui/internal/model"
	"github.com/jeranaias/lingua-tui/internal/storage"
	"github.com/jeranaias/lingua-tui/internal/util"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders a chat the way the chat screen shows it: learner
// messages with their corrections, correction notes and partner replies.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a chat to Markdown.
func (e *MarkdownExporter) Export(chat *storage.StoredChat) ([]byte, error) {
	if err := validate(chat); err != nil {
		return nil, err
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(chat.DisplayTitle())))
		sb.WriteString(fmt.Sprintf("id: %s\n", chat.ID))
		sb.WriteString(fmt.Sprintf("updated: %s\n", chat.LastUpdated.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(chat.Messages)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", e.options.now().Format(time.RFC3339)))
		sb.WriteString("generator: lingua\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(util.SingleLine(chat.DisplayTitle()))))

	if e.options.IncludeSystem {
		for _, msg := range chat.Messages {
			if msg.Role == model.RoleSystem {
				sb.WriteString("<details><summary>System prompt</summary>\n\n")
				sb.WriteString(strings.TrimSpace(msg.Content))
				sb.WriteString("\n\n</details>\n\n")
			}
		}
	}

	entries := model.Project(chat.Messages, nil)
	if len(entries) == 0 {
		sb.WriteString("_No messages yet._\n")
	}

	var corrections int
	for _, p := range entries {
		switch p.Kind {
		case model.KindUser:
			sb.WriteString("**You:** ")
			sb.WriteString(strings.TrimSpace(p.Original))
			sb.WriteString("\n\n")
			if p.HasDiff() {
				corrections++
				segs := p.Segments()
				sb.WriteString(fmt.Sprintf("> ✎ %s  \n", renderSegments(segs)))
				sb.WriteString(fmt.Sprintf("> <sub>%s</sub>\n\n", diff.Compute(segs).Summary()))
			}
		case model.KindCorrection:
			sb.WriteString(fmt.Sprintf("> 💡 %s\n\n", strings.TrimSpace(p.Text)))
		case model.KindPartner:
			sb.WriteString("**Partner:** ")
			sb.WriteString(strings.TrimSpace(p.Text))
			sb.WriteString("\n\n")
		}
	}

	if e.options.IncludeMetadata {
		sb.WriteString("---\n\n")
		sb.WriteString(fmt.Sprintf("*%d messages, %d corrected. Last updated %s.*\n",
			model.CountRole(chat.Messages, model.RoleUser), corrections, formatTimestamp(chat.LastUpdated)))
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// renderSegments marks removals with strikethrough and additions in bold.
func renderSegments(segs []diff.Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		switch {
		case s.Removed && strings.TrimSpace(s.Value) != "":
			sb.WriteString("~~" + escapeMarkdown(s.Value) + "~~")
		case s.Added && strings.TrimSpace(s.Value) != "":
			sb.WriteString("**" + escapeMarkdown(s.Value) + "**")
		case s.Removed:
		default:
			sb.WriteString(escapeMarkdown(s.Value))
		}
	}
	return sb.String()
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "~", "\\~")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes a frontmatter value when it contains special characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
