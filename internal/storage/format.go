// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/lingua-tui/internal/util"
)

// FormatChatList renders chats as a plain aligned table, for output that is
// not a terminal.
func FormatChatList(chats []StoredChat) string {
	if len(chats) == 0 {
		return "No saved chats.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-36s  %-34s  %5s  %s\n", "ID", "TITLE", "MSGS", "UPDATED"))
	for _, c := range chats {
		sb.WriteString(fmt.Sprintf("%-36s  %s  %5d  %s\n",
			c.ID,
			padRight(util.TruncateWidth(util.SingleLine(c.DisplayTitle()), 34), 34),
			len(c.Messages),
			FormatAge(c.LastUpdated, time.Now()),
		))
	}
	return sb.String()
}

// FormatAge renders how long ago t was, e.g. "just now", "5m ago", "3d ago".
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// padRight pads s with spaces to width display columns.
func padRight(s string, width int) string {
	if w := util.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
