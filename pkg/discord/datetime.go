package discord

import (
	"fmt"
	"time"
)

// Discord timestamp styles. Clients render them in the reader's own timezone.
const (
	TimestampRelative  = 'R'
	TimestampShortFull = 'f'
)

// FormatTimestamp returns the Discord markup for t, or "" for the zero time.
func FormatTimestamp(t time.Time, style rune) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("<t:%d:%c>", t.Unix(), style)
}
