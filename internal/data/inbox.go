package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
	"github.com/azerothguard/gm-discord-bridge/internal/biz/repo"
)

// inboxRepo implements the inbound action queue on SQLite.
type inboxRepo struct {
	db *sql.DB
}

// NewInboxRepo creates a new inbox repository.
func NewInboxRepo(db *sql.DB) repo.InboxRepo {
	return &inboxRepo{db: db}
}

// Enqueue appends a pending inbound action.
func (r *inboxRepo) Enqueue(ctx context.Context, discordUserID uint64, action, payload string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inbox (discord_user_id, action, payload, created_at, processed)
		VALUES (?, ?, ?, ?, 0)
	`, int64(discordUserID), action, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to enqueue inbox action: %w", err)
	}
	return nil
}

// ListPending lists pending items in ascending id order.
func (r *inboxRepo) ListPending(ctx context.Context, limit int) ([]*domain.InboxItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, discord_user_id, action, payload, created_at, processed, status, result
		FROM inbox
		WHERE processed = 0
		ORDER BY id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending inbox items: %w", err)
	}
	defer rows.Close()

	var items []*domain.InboxItem
	for rows.Next() {
		var item domain.InboxItem
		var discordUserID, createdAt int64
		var processed int
		if err := rows.Scan(&item.ID, &discordUserID, &item.Action, &item.Payload, &createdAt, &processed, &item.Status, &item.Result); err != nil {
			return nil, fmt.Errorf("failed to scan inbox item: %w", err)
		}
		item.DiscordUserID = uint64(discordUserID)
		item.CreatedAt = time.Unix(createdAt, 0)
		item.State = domain.ProcessState(processed)
		items = append(items, &item)
	}
	return items, rows.Err()
}

// Claim transitions pending -> processing, guarded on the item still
// being pending so concurrent pollers cannot double-claim.
func (r *inboxRepo) Claim(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE inbox SET processed = 2 WHERE id = ? AND processed = 0
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to claim inbox item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}
	return affected == 1, nil
}

// MarkDone records the terminal status and result for an item.
func (r *inboxRepo) MarkDone(ctx context.Context, id int64, status, result string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE inbox SET processed = 1, processed_at = ?, status = ?, result = ? WHERE id = ?
	`, time.Now().Unix(), status, result, id)
	if err != nil {
		return fmt.Errorf("failed to mark inbox item done: %w", err)
	}
	return nil
}
