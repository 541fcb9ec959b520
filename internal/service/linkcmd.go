package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/usecase"
)

// LinkCommands backs the in-game ".discord" chat command. Each method
// returns the line shown to the GM in their chat window.
type LinkCommands struct {
	linkUC  *usecase.LinkUsecase
	enabled bool
}

// NewLinkCommands creates the in-game link command handler.
func NewLinkCommands(linkUC *usecase.LinkUsecase, enabled bool) *LinkCommands {
	return &LinkCommands{linkUC: linkUC, enabled: enabled}
}

// Handle dispatches one ".discord <sub> [args]" invocation for the given
// account. Unknown subcommands return the usage line.
func (c *LinkCommands) Handle(ctx context.Context, accountID uint32, gmName, args string) string {
	if !c.enabled {
		return "Discord integration is disabled."
	}

	fields := strings.Fields(args)
	if len(fields) == 0 {
		return c.usage()
	}

	switch strings.ToLower(fields[0]) {
	case "link":
		if len(fields) < 2 {
			return "Usage: .discord link <secret>"
		}
		return c.link(ctx, accountID, gmName, fields[1])
	case "status":
		return c.status(ctx, accountID)
	case "unlink":
		return c.unlink(ctx, accountID)
	default:
		return c.usage()
	}
}

func (c *LinkCommands) usage() string {
	return "Usage: .discord link <secret> | .discord status | .discord unlink"
}

func (c *LinkCommands) link(ctx context.Context, accountID uint32, gmName, plainSecret string) string {
	if err := c.linkUC.IssueSecret(ctx, accountID, gmName, plainSecret); err != nil {
		if strings.Contains(err.Error(), "at least") {
			return fmt.Sprintf("Secret too short: use at least %d characters.", usecase.MinSecretLength)
		}
		fmt.Printf("[LinkCmd] Failed to issue secret for account %d: %v\n", accountID, err)
		return "Failed to store the link secret. Try again."
	}
	return "Secret stored. Run /gm-auth with the same secret in Discord to finish linking."
}

func (c *LinkCommands) status(ctx context.Context, accountID uint32) string {
	link, err := c.linkUC.Status(ctx, accountID)
	if err != nil {
		fmt.Printf("[LinkCmd] Failed to read link status for account %d: %v\n", accountID, err)
		return "Failed to read link status."
	}
	if link == nil {
		return "Not linked. Use .discord link <secret> to start."
	}
	if link.Verified {
		return fmt.Sprintf("Linked to Discord user %d.", link.DiscordUserID)
	}
	if link.HasPendingSecret(time.Now()) {
		return "Link pending: verify the secret with /gm-auth in Discord."
	}
	return "Link secret expired. Use .discord link <secret> to issue a new one."
}

func (c *LinkCommands) unlink(ctx context.Context, accountID uint32) string {
	if err := c.linkUC.Unlink(ctx, accountID); err != nil {
		fmt.Printf("[LinkCmd] Failed to unlink account %d: %v\n", accountID, err)
		return "Failed to remove the link."
	}
	return "Discord link removed."
}
