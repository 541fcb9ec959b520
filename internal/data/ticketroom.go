package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
	"github.com/azerothguard/gm-discord-bridge/internal/biz/repo"
)

// ticketRoomRepo implements the ticket room store on SQLite.
type ticketRoomRepo struct {
	db *sql.DB
}

// NewTicketRoomRepo creates a new ticket room repository.
func NewTicketRoomRepo(db *sql.DB) repo.TicketRoomRepo {
	return &ticketRoomRepo{db: db}
}

// Get returns the room for a ticket, or nil when none exists.
func (r *ticketRoomRepo) Get(ctx context.Context, ticketID uint32) (*domain.TicketRoom, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT ticket_id, channel_id, guild_id, created_at, archived_at
		FROM ticket_room
		WHERE ticket_id = ?
	`, ticketID)

	var room domain.TicketRoom
	var channelID, guildID, createdAt int64
	var archivedAt sql.NullInt64
	err := row.Scan(&room.TicketID, &channelID, &guildID, &createdAt, &archivedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ticket room: %w", err)
	}

	room.ChannelID = uint64(channelID)
	room.GuildID = uint64(guildID)
	room.CreatedAt = time.Unix(createdAt, 0)
	if archivedAt.Valid {
		room.ArchivedAt = time.Unix(archivedAt.Int64, 0)
	}
	return &room, nil
}

// Upsert creates or replaces the room mapping for a ticket.
func (r *ticketRoomRepo) Upsert(ctx context.Context, room *domain.TicketRoom) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO ticket_room (ticket_id, channel_id, guild_id, created_at, archived_at)
		VALUES (?, ?, ?, ?, NULL)
	`, room.TicketID, int64(room.ChannelID), int64(room.GuildID), room.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert ticket room: %w", err)
	}
	return nil
}

// MarkArchived stamps the room archived.
func (r *ticketRoomRepo) MarkArchived(ctx context.Context, ticketID uint32) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE ticket_room SET archived_at = ? WHERE ticket_id = ?
	`, time.Now().Unix(), ticketID)
	if err != nil {
		return fmt.Errorf("failed to mark ticket room archived: %w", err)
	}
	return nil
}
