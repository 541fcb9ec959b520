package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
	"github.com/azerothguard/gm-discord-bridge/internal/biz/repo"
)

// whisperSessionRepo implements the whisper session store on SQLite.
type whisperSessionRepo struct {
	db *sql.DB
}

// NewWhisperSessionRepo creates a new whisper session repository.
func NewWhisperSessionRepo(db *sql.DB) repo.WhisperSessionRepo {
	return &whisperSessionRepo{db: db}
}

// Upsert creates or overwrites the session for a player.
func (r *whisperSessionRepo) Upsert(ctx context.Context, session *domain.WhisperSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO whisper_session (player_guid, discord_user_id, gm_name, updated_at)
		VALUES (?, ?, ?, ?)
	`, int64(session.PlayerGUID), int64(session.DiscordUserID), session.GMName, session.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert whisper session: %w", err)
	}
	return nil
}

// GetByGMName finds the most recently updated session for a GM name,
// case-insensitively.
func (r *whisperSessionRepo) GetByGMName(ctx context.Context, gmName string) (*domain.WhisperSession, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT player_guid, discord_user_id, gm_name, updated_at
		FROM whisper_session
		WHERE gm_name = ? COLLATE NOCASE
		ORDER BY updated_at DESC
		LIMIT 1
	`, gmName)

	var session domain.WhisperSession
	var playerGUID, discordUserID, updatedAt int64
	err := row.Scan(&playerGUID, &discordUserID, &session.GMName, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query whisper session: %w", err)
	}

	session.PlayerGUID = uint64(playerGUID)
	session.DiscordUserID = uint64(discordUserID)
	session.UpdatedAt = time.Unix(updatedAt, 0)
	return &session, nil
}
