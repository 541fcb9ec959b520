package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
	"github.com/azerothguard/gm-discord-bridge/internal/biz/repo"
)

// auditRepo implements the append-only audit trail on SQLite.
type auditRepo struct {
	db *sql.DB
}

// NewAuditRepo creates a new audit repository.
func NewAuditRepo(db *sql.DB) repo.AuditRepo {
	return &auditRepo{db: db}
}

// Append records one inbound action disposition.
func (r *auditRepo) Append(ctx context.Context, entry *domain.AuditEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit (discord_user_id, account_id, action, category, status, detail, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, int64(entry.DiscordUserID), entry.AccountID, entry.Action, entry.Category, entry.Status, entry.Detail, entry.Payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}
