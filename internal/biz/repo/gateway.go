package repo

import (
	"context"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
)

// SlashCommand is one slash-command invocation delivered by the gateway.
type SlashCommand struct {
	Name    string
	GuildID uint64
	UserID  uint64
	Roles   []uint64
	Options map[string]string
}

// ChannelMessage is one message posted in a channel or thread.
type ChannelMessage struct {
	ChannelID   uint64
	UserID      uint64
	DisplayName string
	Content     string
	FromBot     bool
}

// OutMessage is content to post: an embed when set, plain text otherwise.
type OutMessage struct {
	Content string
	Embed   *domain.Embed
}

// Gateway is the chat platform client. The bridge only depends on this
// narrow surface; the concrete client lives in internal/infra/discord.
type Gateway interface {
	// Start connects the gateway and begins event delivery.
	Start() error

	// Stop closes the connection and joins background work.
	Stop()

	// RegisterCommands registers the bridge slash commands, guild-scoped
	// when guildID is non-zero.
	RegisterCommands(guildID uint64) error

	// OnSlashCommand sets the slash-command handler. The returned string
	// is sent back as an ephemeral acknowledgement.
	OnSlashCommand(handler func(cmd *SlashCommand) string)

	// OnChannelMessage sets the handler for inbound channel messages.
	OnChannelMessage(handler func(msg *ChannelMessage))

	// PostMessage posts to a channel and returns the created message id.
	PostMessage(ctx context.Context, channelID uint64, msg OutMessage) (uint64, error)

	// CreateThread opens a thread attached to an existing message.
	CreateThread(ctx context.Context, channelID, messageID uint64, name string) (uint64, error)

	// ThreadName returns the name of a thread channel.
	ThreadName(ctx context.Context, threadID uint64) (string, error)

	// ArchiveThread locks and archives a thread.
	ArchiveThread(ctx context.Context, threadID uint64) error

	// CreateChannel creates a text channel under a category, visible only
	// to the given roles (everyone when the list is empty).
	CreateChannel(ctx context.Context, guildID, parentID uint64, name string, allowedRoles []uint64) (uint64, error)

	// MoveChannel re-parents a channel to another category.
	MoveChannel(ctx context.Context, channelID, parentID uint64) error
}
