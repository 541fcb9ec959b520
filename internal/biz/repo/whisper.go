package repo

import (
	"context"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
)

// WhisperSessionRepo tracks active whisper relay conversations.
type WhisperSessionRepo interface {
	// Upsert creates or overwrites the session for a player.
	Upsert(ctx context.Context, session *domain.WhisperSession) error

	// GetByGMName finds the most recently updated session for a GM name.
	// The lookup is case-insensitive. Returns nil when none exists.
	GetByGMName(ctx context.Context, gmName string) (*domain.WhisperSession, error)
}

// TicketRoomRepo persists ticket->channel correlations.
type TicketRoomRepo interface {
	// Get returns the room for a ticket, or nil when none exists.
	Get(ctx context.Context, ticketID uint32) (*domain.TicketRoom, error)

	// Upsert creates or replaces the room mapping for a ticket.
	Upsert(ctx context.Context, room *domain.TicketRoom) error

	// MarkArchived stamps the room archived. The row is retained.
	MarkArchived(ctx context.Context, ticketID uint32) error
}

// AuditRepo is the append-only inbound action audit trail.
type AuditRepo interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
}
