package service

import (
	"strconv"
	"strings"
)

// discordMessageLimit is the safe content length for one message.
const discordMessageLimit = 1900

// truncateForDiscord shortens text to fit in a single message.
func truncateForDiscord(text string) string {
	if len(text) <= discordMessageLimit {
		return text
	}
	return text[:discordMessageLimit-3] + "..."
}

// FormatRoomName renders a ticket room name from a pattern with {id} and
// {player} placeholders, then sanitizes it into a valid channel name.
func FormatRoomName(pattern, player string, ticketID uint32) string {
	name := pattern
	if name == "" {
		name = "ticket-{id}-{player}"
	}
	name = strings.ReplaceAll(name, "{id}", strconv.FormatUint(uint64(ticketID), 10))
	name = strings.ReplaceAll(name, "{player}", player)

	var b strings.Builder
	b.Grow(len(name))
	for _, ch := range name {
		switch {
		case ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		case ch == '-' || ch == '_':
			b.WriteRune(ch)
		default:
			b.WriteByte('-')
		}
	}
	return strings.ToLower(b.String())
}

// ParseTicketIDFromThreadName recovers a ticket id from a thread named
// with the default "ticket-<id>[-...]" pattern. Used as a fallback when
// the correlation map was emptied by a restart.
func ParseTicketIDFromThreadName(name string) (uint32, bool) {
	const prefix = "ticket-"
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	idStr := name[len(prefix):]
	if idx := strings.IndexByte(idStr, '-'); idx >= 0 {
		idStr = idStr[:idx]
	}
	if idStr == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint32(id), true
}

// SanitizeGMName keeps only alphanumeric characters of a display name so
// it is safe to attribute a whisper to.
func SanitizeGMName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, ch := range name {
		if ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}
