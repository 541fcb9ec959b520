package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
	"github.com/azerothguard/gm-discord-bridge/internal/biz/repo"
)

// linkRepo implements the Link repository on SQLite.
type linkRepo struct {
	db *sql.DB
}

// NewLinkRepo creates a new Link repository.
func NewLinkRepo(db *sql.DB) repo.LinkRepo {
	return &linkRepo{db: db}
}

const linkColumns = `account_id, discord_user_id, verified, secret_hash, secret_expires_at, gm_name, created_at, updated_at`

func scanLink(row interface{ Scan(...any) error }) (*domain.Link, error) {
	var link domain.Link
	var discordUserID sql.NullInt64
	var secretHash sql.NullString
	var secretExpires sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&link.AccountID, &discordUserID, &link.Verified, &secretHash, &secretExpires, &link.GMName, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan link: %w", err)
	}

	if discordUserID.Valid {
		link.DiscordUserID = uint64(discordUserID.Int64)
	}
	if secretHash.Valid {
		link.SecretHash = secretHash.String
	}
	if secretExpires.Valid {
		link.SecretExpiresAt = time.Unix(secretExpires.Int64, 0)
	}
	link.CreatedAt = time.Unix(createdAt, 0)
	link.UpdatedAt = time.Unix(updatedAt, 0)
	return &link, nil
}

// GetByAccount gets a link by account id.
func (r *linkRepo) GetByAccount(ctx context.Context, accountID uint32) (*domain.Link, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+linkColumns+` FROM gm_link WHERE account_id = ?
	`, accountID)
	return scanLink(row)
}

// GetByDiscordUser gets a link by Discord user id.
func (r *linkRepo) GetByDiscordUser(ctx context.Context, discordUserID uint64) (*domain.Link, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+linkColumns+` FROM gm_link WHERE discord_user_id = ?
	`, int64(discordUserID))
	return scanLink(row)
}

// UpsertPending creates or refreshes a link with a fresh pending secret.
func (r *linkRepo) UpsertPending(ctx context.Context, accountID uint32, gmName, secretHash string, expiresAt time.Time) error {
	now := time.Now().Unix()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO gm_link (account_id, discord_user_id, verified, secret_hash, secret_expires_at, gm_name, created_at, updated_at)
		VALUES (?, NULL, 0, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			discord_user_id = NULL,
			verified = 0,
			secret_hash = excluded.secret_hash,
			secret_expires_at = excluded.secret_expires_at,
			gm_name = excluded.gm_name,
			updated_at = excluded.updated_at
	`, accountID, secretHash, expiresAt.Unix(), gmName, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert pending link: %w", err)
	}
	return nil
}

// ListPending lists links with a live pending secret, oldest account first.
func (r *linkRepo) ListPending(ctx context.Context, now time.Time) ([]*domain.Link, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+linkColumns+` FROM gm_link
		WHERE secret_hash IS NOT NULL AND secret_expires_at > ?
		ORDER BY account_id ASC
	`, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list pending links: %w", err)
	}
	defer rows.Close()

	var links []*domain.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// MarkVerified links the Discord user and clears the pending secret. A
// Discord user holds one link at a time, so any link the user already has
// on another account is removed in the same transaction.
func (r *linkRepo) MarkVerified(ctx context.Context, accountID uint32, discordUserID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM gm_link WHERE discord_user_id = ? AND account_id != ?
	`, int64(discordUserID), accountID)
	if err != nil {
		return fmt.Errorf("failed to remove previous link: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE gm_link
		SET discord_user_id = ?, verified = 1, secret_hash = NULL, secret_expires_at = NULL, updated_at = ?
		WHERE account_id = ?
	`, int64(discordUserID), time.Now().Unix(), accountID)
	if err != nil {
		return fmt.Errorf("failed to mark link verified: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit link verification: %w", err)
	}
	return nil
}

// Delete removes a link.
func (r *linkRepo) Delete(ctx context.Context, accountID uint32) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM gm_link WHERE account_id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	return nil
}
