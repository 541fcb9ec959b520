package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
	"github.com/azerothguard/gm-discord-bridge/internal/biz/repo"
	"github.com/azerothguard/gm-discord-bridge/internal/biz/usecase"
	"github.com/azerothguard/gm-discord-bridge/internal/service"
)

// DiscordServer binds the gateway to the bridge: it registers the slash
// commands, validates invocations and enqueues them as durable inbox
// items. Heavy work never happens in a handler; the ephemeral reply only
// acknowledges that the action was queued.
type DiscordServer struct {
	gateway   repo.Gateway
	inbox     repo.InboxRepo
	linkUC    *usecase.LinkUsecase
	outboxSvc *service.OutboxService

	guildID  uint64
	roleMap  map[uint64]map[string]bool
	whispers bool
}

// NewDiscordServer creates a new Discord server.
func NewDiscordServer(
	gateway repo.Gateway,
	inbox repo.InboxRepo,
	linkUC *usecase.LinkUsecase,
	outboxSvc *service.OutboxService,
	guildID uint64,
	roleMap map[uint64]map[string]bool,
	whispersEnabled bool,
) *DiscordServer {
	return &DiscordServer{
		gateway:   gateway,
		inbox:     inbox,
		linkUC:    linkUC,
		outboxSvc: outboxSvc,
		guildID:   guildID,
		roleMap:   roleMap,
		whispers:  whispersEnabled,
	}
}

// Start registers commands and begins event delivery.
func (s *DiscordServer) Start() error {
	if err := s.gateway.RegisterCommands(s.guildID); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	s.gateway.OnSlashCommand(s.handleSlash)
	s.gateway.OnChannelMessage(s.handleChannelMessage)

	if err := s.gateway.Start(); err != nil {
		return fmt.Errorf("failed to start gateway: %w", err)
	}
	fmt.Println("[Server] Discord gateway started")
	return nil
}

// Stop stops the gateway.
func (s *DiscordServer) Stop() {
	s.gateway.Stop()
}

func (s *DiscordServer) handleSlash(cmd *repo.SlashCommand) string {
	if s.guildID != 0 && cmd.GuildID != s.guildID {
		return "This bot is not enabled in this guild."
	}

	fmt.Printf("[Server] Slash command %s from user %d\n", cmd.Name, cmd.UserID)

	switch cmd.Name {
	case "gm-auth":
		return s.handleAuth(cmd)
	case "gm-command":
		return s.handleCommand(cmd)
	case "gm-whisper":
		return s.handleWhisper(cmd)
	case "gm-ticket-assign":
		return s.handleTicketAssign(cmd)
	default:
		return "Unknown command."
	}
}

func (s *DiscordServer) handleAuth(cmd *repo.SlashCommand) string {
	secret := strings.TrimSpace(cmd.Options["secret"])
	if len(secret) < usecase.MinSecretLength {
		return fmt.Sprintf("Secret must be at least %d characters.", usecase.MinSecretLength)
	}

	if err := s.inbox.Enqueue(context.Background(), cmd.UserID, domain.ActionAuth, secret); err != nil {
		fmt.Printf("[Server] Failed to enqueue auth: %v\n", err)
		return "Failed to queue the request. Try again."
	}
	return "Link request submitted."
}

func (s *DiscordServer) handleCommand(cmd *repo.SlashCommand) string {
	command := strings.TrimSpace(cmd.Options["command"])
	if command == "" {
		return "Missing command text."
	}

	category := usecase.CommandCategory(usecase.CommandRoot(command))
	if !usecase.HasRoleForCategory(s.roleMap, cmd.Roles, category) {
		return fmt.Sprintf("Your roles do not grant access to category '%s'.", category)
	}

	if err := s.inbox.Enqueue(context.Background(), cmd.UserID, domain.ActionCommand, command); err != nil {
		fmt.Printf("[Server] Failed to enqueue command: %v\n", err)
		return "Failed to queue the command. Try again."
	}
	return "Command queued."
}

func (s *DiscordServer) handleWhisper(cmd *repo.SlashCommand) string {
	if !s.whispers {
		return "Whisper relay is disabled."
	}

	player := strings.TrimSpace(cmd.Options["player"])
	message := strings.TrimSpace(cmd.Options["message"])
	if player == "" || message == "" {
		return "Both player and message are required."
	}

	if !usecase.HasRoleForCategory(s.roleMap, cmd.Roles, "whisper") {
		return "Your roles do not grant access to category 'whisper'."
	}

	gmName, ok, err := s.linkUC.GMNameFor(context.Background(), cmd.UserID)
	if err != nil {
		fmt.Printf("[Server] Failed to resolve GM name: %v\n", err)
		return "Failed to resolve your link. Try again."
	}
	if !ok {
		return "You are not linked. Use in-game .discord link <secret>, then /gm-auth."
	}

	whisperPayload := player + "|" + gmName + "|" + message
	if err := s.inbox.Enqueue(context.Background(), cmd.UserID, domain.ActionWhisper, whisperPayload); err != nil {
		fmt.Printf("[Server] Failed to enqueue whisper: %v\n", err)
		return "Failed to queue the whisper. Try again."
	}
	return "Whisper queued."
}

func (s *DiscordServer) handleTicketAssign(cmd *repo.SlashCommand) string {
	if !usecase.HasRoleForCategory(s.roleMap, cmd.Roles, "ticket") {
		return "Your roles do not grant access to category 'ticket'."
	}

	idStr := strings.TrimSpace(cmd.Options["ticket_id"])
	gmName := strings.TrimSpace(cmd.Options["gm_name"])
	ticketID, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || ticketID == 0 || gmName == "" {
		return "A numeric ticket id and a GM name are required."
	}

	assignPayload := idStr + "|" + gmName
	if err := s.inbox.Enqueue(context.Background(), cmd.UserID, domain.ActionTicketAssign, assignPayload); err != nil {
		fmt.Printf("[Server] Failed to enqueue ticket assignment: %v\n", err)
		return "Failed to queue the assignment. Try again."
	}
	return "Ticket assignment queued."
}

func (s *DiscordServer) handleChannelMessage(msg *repo.ChannelMessage) {
	s.outboxSvc.HandleThreadMessage(context.Background(), msg)
}
