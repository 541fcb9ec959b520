package domain

import "time"

// TicketRoom maps a ticket to its dedicated Discord channel. Once archived
// the row is kept for audit but no longer routed to.
type TicketRoom struct {
	TicketID   uint32
	ChannelID  uint64
	GuildID    uint64
	CreatedAt  time.Time
	ArchivedAt time.Time // zero while the room is open
}

// Archived reports whether the room has been moved to the archive.
func (r *TicketRoom) Archived() bool {
	return !r.ArchivedAt.IsZero()
}
