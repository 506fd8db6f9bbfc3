// ABOUTME: HTML formatting helpers for outbound messages.
// ABOUTME: Escaping, clickable user mentions, and human file sizes.

package telegram

import (
	"fmt"
	"strings"
)

// ParseModeHTML is the parse_mode used for all formatted outbound text.
const ParseModeHTML = "HTML"

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML escapes the characters Telegram's HTML parse mode treats
// specially. Quotes are fine in text nodes and left alone.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// UserMention renders a clickable mention that works even when the user
// has no public username.
func UserMention(userID int64, name string) string {
	if name == "" {
		name = fmt.Sprintf("user %d", userID)
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, userID, EscapeHTML(name))
}

// FormatFileSize renders a byte count the way the admin posts show it.
func FormatFileSize(size int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
	)
	switch {
	case size >= mb:
		return fmt.Sprintf("%.2f MB", float64(size)/mb)
	case size >= kb:
		return fmt.Sprintf("%.1f KB", float64(size)/kb)
	default:
		return fmt.Sprintf("%d B", size)
	}
}
