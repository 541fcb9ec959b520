package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
	"github.com/azerothguard/gm-discord-bridge/internal/biz/repo"
	"github.com/azerothguard/gm-discord-bridge/internal/secret"
)

// MinSecretLength is the minimum accepted link secret length.
const MinSecretLength = 8

// LinkUsecase handles link issuance, verification and teardown.
type LinkUsecase struct {
	links     repo.LinkRepo
	secretTTL time.Duration
	now       func() time.Time
}

// NewLinkUsecase creates a new link usecase.
func NewLinkUsecase(links repo.LinkRepo, secretTTL time.Duration) *LinkUsecase {
	return &LinkUsecase{
		links:     links,
		secretTTL: secretTTL,
		now:       time.Now,
	}
}

// IssueSecret hashes and stores a fresh pending secret for the account,
// resetting any prior verification. Called from the in-game link command.
func (uc *LinkUsecase) IssueSecret(ctx context.Context, accountID uint32, gmName, plainSecret string) error {
	plainSecret = strings.TrimSpace(plainSecret)
	if len(plainSecret) < MinSecretLength {
		return fmt.Errorf("secret must be at least %d characters", MinSecretLength)
	}

	hash, err := secret.Hash(plainSecret)
	if err != nil {
		return fmt.Errorf("failed to hash secret: %w", err)
	}

	expiresAt := uc.now().Add(uc.secretTTL)
	if err := uc.links.UpsertPending(ctx, accountID, gmName, hash, expiresAt); err != nil {
		return fmt.Errorf("failed to store pending link: %w", err)
	}
	return nil
}

// VerifyAndLink scans links with a non-expired pending secret in storage
// order and links the first one whose hash verifies. The pending secret is
// cleared atomically with the link, so a secret is single-use.
func (uc *LinkUsecase) VerifyAndLink(ctx context.Context, discordUserID uint64, plainSecret string) (uint32, bool, error) {
	pending, err := uc.links.ListPending(ctx, uc.now())
	if err != nil {
		return 0, false, fmt.Errorf("failed to list pending links: %w", err)
	}

	for _, link := range pending {
		if link.SecretHash == "" {
			continue
		}
		if secret.Verify(plainSecret, link.SecretHash) {
			if err := uc.links.MarkVerified(ctx, link.AccountID, discordUserID); err != nil {
				return 0, false, fmt.Errorf("failed to link account %d: %w", link.AccountID, err)
			}
			return link.AccountID, true, nil
		}
	}
	return 0, false, nil
}

// Status returns the link for an account, or nil when none exists.
func (uc *LinkUsecase) Status(ctx context.Context, accountID uint32) (*domain.Link, error) {
	return uc.links.GetByAccount(ctx, accountID)
}

// Unlink removes the account's link.
func (uc *LinkUsecase) Unlink(ctx context.Context, accountID uint32) error {
	return uc.links.Delete(ctx, accountID)
}

// GMNameFor resolves the GM display name of a verified Discord user.
func (uc *LinkUsecase) GMNameFor(ctx context.Context, discordUserID uint64) (string, bool, error) {
	link, err := uc.links.GetByDiscordUser(ctx, discordUserID)
	if err != nil {
		return "", false, err
	}
	if link == nil || !link.Verified {
		return "", false, nil
	}
	name := strings.TrimSpace(link.GMName)
	return name, name != "", nil
}
