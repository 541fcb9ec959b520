package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
	"github.com/azerothguard/gm-discord-bridge/internal/biz/repo"
)

// outboxRepo implements the outbound event queue on SQLite.
type outboxRepo struct {
	db *sql.DB
}

// NewOutboxRepo creates a new outbox repository.
func NewOutboxRepo(db *sql.DB) repo.OutboxRepo {
	return &outboxRepo{db: db}
}

// Enqueue appends a non-dispatched outbound event.
func (r *outboxRepo) Enqueue(ctx context.Context, eventType, payload string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO outbox (event_type, payload, created_at, dispatched)
		VALUES (?, ?, ?, 0)
	`, eventType, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to enqueue outbox event: %w", err)
	}
	return nil
}

// ListPending lists non-dispatched items in ascending id order.
func (r *outboxRepo) ListPending(ctx context.Context, limit int) ([]*domain.OutboxItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_type, payload, created_at
		FROM outbox
		WHERE dispatched = 0
		ORDER BY id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending outbox items: %w", err)
	}
	defer rows.Close()

	var items []*domain.OutboxItem
	for rows.Next() {
		var item domain.OutboxItem
		var createdAt int64
		if err := rows.Scan(&item.ID, &item.EventType, &item.Payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox item: %w", err)
		}
		item.CreatedAt = time.Unix(createdAt, 0)
		items = append(items, &item)
	}
	return items, rows.Err()
}

// MarkDispatched flips the dispatched flag.
func (r *outboxRepo) MarkDispatched(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox SET dispatched = 1, dispatched_at = ? WHERE id = ?
	`, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox item dispatched: %w", err)
	}
	return nil
}
