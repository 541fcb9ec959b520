package repo

import (
	"context"
	"time"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
)

// LinkRepo is the account<->Discord link repository interface.
// Responsible for link persistence (SQLite).
type LinkRepo interface {
	// GetByAccount gets a link by game account id.
	GetByAccount(ctx context.Context, accountID uint32) (*domain.Link, error)

	// GetByDiscordUser gets a link by Discord user id.
	GetByDiscordUser(ctx context.Context, discordUserID uint64) (*domain.Link, error)

	// UpsertPending creates or refreshes a link with a fresh pending
	// secret. Any previous verification is reset.
	UpsertPending(ctx context.Context, accountID uint32, gmName, secretHash string, expiresAt time.Time) error

	// ListPending lists links whose pending secret has not expired, in
	// ascending account-id order.
	ListPending(ctx context.Context, now time.Time) ([]*domain.Link, error)

	// MarkVerified sets the Discord user on a link, flips verified and
	// clears the pending secret. A Discord user holds at most one link,
	// so a previous link of the same user is removed.
	MarkVerified(ctx context.Context, accountID uint32, discordUserID uint64) error

	// Delete removes a link.
	Delete(ctx context.Context, accountID uint32) error
}
