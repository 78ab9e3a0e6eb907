// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/lingua-tui/internal/diff"
	"github.com/jeranaias/lingua-tui/internal/model"
	"github.com/jeranaias/lingua-tui/internal/storage"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter renders a chat as a standalone page with embedded CSS. Word
// corrections are marked up with <del> and <ins>.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a chat to HTML.
func (e *HTMLExporter) Export(chat *storage.StoredChat) ([]byte, error) {
	if err := validate(chat); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}
	title := html.EscapeString(chat.DisplayTitle())

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", title))
	sb.WriteString("    <meta name=\"generator\" content=\"lingua\">\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", chat.LastUpdated.Format(time.RFC3339)))
	sb.WriteString(htmlCSS)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", theme))
	sb.WriteString("    <div class=\"container\">\n")

	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", title))
	if e.options.IncludeMetadata {
		sb.WriteString(fmt.Sprintf("            <p class=\"metadata\">Last updated %s &middot; %d messages</p>\n",
			formatTimestamp(chat.LastUpdated), model.CountRole(chat.Messages, model.RoleUser)))
	}
	sb.WriteString("        </header>\n")

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, p := range model.Project(chat.Messages, nil) {
		sb.WriteString(e.renderEntry(p))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>lingua</strong> on %s</p>\n",
		e.options.now().Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderEntry(p model.Processed) string {
	switch p.Kind {
	case model.KindUser:
		body := html.EscapeString(p.Original)
		if p.HasDiff() {
			body = renderSegmentsHTML(p.Segments())
		}
		return fmt.Sprintf("            <div class=\"message user\">%s</div>\n", body)
	case model.KindCorrection:
		return fmt.Sprintf("            <div class=\"message correction\">%s</div>\n", html.EscapeString(p.Text))
	case model.KindPartner:
		return fmt.Sprintf("            <div class=\"message partner\">%s</div>\n", html.EscapeString(p.Text))
	default:
		return fmt.Sprintf("            <div class=\"message system\">%s</div>\n", html.EscapeString(p.Text))
	}
}

func renderSegmentsHTML(segs []diff.Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		v := html.EscapeString(s.Value)
		switch {
		case s.Removed:
			sb.WriteString("<del>" + v + "</del>")
		case s.Added:
			sb.WriteString("<ins>" + v + "</ins>")
		default:
			sb.WriteString(v)
		}
	}
	return sb.String()
}

const htmlCSS = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        .dark-theme {
            --bg: #1a1b26; --fg: #c0caf5; --muted: #565f89;
            --user-bg: #3d59a1; --partner-bg: #24283b; --note-bg: #3b3222;
            --ins: #9ece6a; --del: #f7768e;
        }
        .light-theme {
            --bg: #ffffff; --fg: #24292e; --muted: #6a737d;
            --user-bg: #dbeafe; --partner-bg: #f3f4f6; --note-bg: #fef3c7;
            --ins: #22863a; --del: #d73a49;
        }
        body { background: var(--bg); color: var(--fg); font-family: -apple-system, "Segoe UI", Roboto, sans-serif; line-height: 1.5; }
        .container { max-width: 760px; margin: 0 auto; padding: 2rem 1rem; }
        .header h1 { font-size: 1.5rem; }
        .metadata, .footer { color: var(--muted); font-size: 0.85rem; }
        .conversation { display: flex; flex-direction: column; gap: 0.75rem; margin: 1.5rem 0; }
        .message { padding: 0.6rem 0.9rem; border-radius: 12px; max-width: 80%; white-space: pre-wrap; }
        .user { align-self: flex-end; background: var(--user-bg); }
        .partner { align-self: flex-start; background: var(--partner-bg); }
        .correction { align-self: flex-start; background: var(--note-bg); font-size: 0.9rem; }
        .system { align-self: center; color: var(--del); font-size: 0.85rem; }
        ins { color: var(--ins); text-decoration: none; font-weight: 600; }
        del { color: var(--del); }
    </style>
`
