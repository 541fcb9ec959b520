package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/usecase"
	"github.com/azerothguard/gm-discord-bridge/internal/conf"
	"github.com/azerothguard/gm-discord-bridge/internal/data"
	"github.com/azerothguard/gm-discord-bridge/internal/infra/discord"
	"github.com/azerothguard/gm-discord-bridge/internal/infra/game"
	"github.com/azerothguard/gm-discord-bridge/internal/server"
	"github.com/azerothguard/gm-discord-bridge/internal/service"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if !cfg.Enabled {
		fmt.Println("[Bridge] Disabled by config, exiting")
		return
	}

	// Initialize repository layer
	repos, err := data.NewRepositories(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()
	fmt.Printf("[Bridge] Database: %s\n", cfg.DBPath)

	// Game server collaborators. The standalone binary reaches the world
	// through the SOAP console only; presence and ticket snapshots need
	// the embedded build.
	executor := game.NewSoapExecutor(cfg.Game.SoapURL, cfg.Game.SoapUser, cfg.Game.SoapPassword)
	accounts := game.NewStaticAccountDirectory(game.ParseAccountLevels(cfg.Game.AccountLevels), cfg.Game.DefaultSecurity)
	world := game.OfflineWorld{}

	// Initialize usecase layer
	linkUC := usecase.NewLinkUsecase(repos.Link, cfg.Security.SecretTTL)
	perm := cfg.ToPermissionConfig()
	rate := usecase.NewRateLimiter(cfg.ToRateLimitConfig())

	// Initialize service layer
	inboxSvc := service.NewInboxService(service.InboxDeps{
		Inbox:    repos.Inbox,
		Outbox:   repos.Outbox,
		Audit:    repos.Audit,
		Links:    repos.Link,
		Sessions: repos.WhisperSession,
		Tickets:  world,
		Players:  world,
		Whispers: world,
		Accounts: accounts,
		Executor: executor,
	}, linkUC, perm, rate, service.InboxOptions{
		PollInterval:    cfg.Inbox.PollInterval,
		MaxBatchSize:    cfg.Inbox.MaxBatchSize,
		MaxResultLength: cfg.Inbox.MaxResultLength,
		AuditPayloadMax: cfg.Inbox.AuditPayloadMax,
		WhisperEnabled:  cfg.Inbox.WhisperEnabled,
	})

	gateway := discord.NewClient(cfg.Discord.Token, cfg.Discord.AppID)
	corr := service.NewCorrelationMap()

	mappedRoles := make([]uint64, 0, len(cfg.Security.RoleMappings))
	for roleID := range cfg.Security.RoleMappings {
		mappedRoles = append(mappedRoles, roleID)
	}

	outboxSvc := service.NewOutboxService(
		repos.Outbox, repos.TicketRoom, repos.Link, repos.Inbox,
		world, gateway, corr,
		service.OutboxOptions{
			PollInterval:    cfg.Outbox.PollInterval,
			MaxBatchSize:    cfg.Outbox.MaxBatchSize,
			GuildID:         cfg.Discord.GuildID,
			OutboxChannelID: cfg.Discord.OutboxChannelID,
			TicketRooms: service.TicketRoomOptions{
				Enabled:           cfg.TicketRooms.Enabled,
				CategoryID:        cfg.TicketRooms.CategoryID,
				ArchiveCategoryID: cfg.TicketRooms.ArchiveCategoryID,
				NameFormat:        cfg.TicketRooms.NameFormat,
				PostUpdates:       cfg.TicketRooms.PostUpdates,
				ArchiveOnClose:    cfg.TicketRooms.ArchiveOnClose,
				AllowedRoles:      cfg.TicketRooms.AllowedRoles,
				MappedRoles:       mappedRoles,
			},
		})

	// Initialize server
	srv := server.NewDiscordServer(
		gateway, repos.Inbox, linkUC, outboxSvc,
		cfg.Discord.GuildID, cfg.Security.RoleMappings, cfg.Inbox.WhisperEnabled,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inboxSvc.Start(ctx)
	if cfg.Outbox.Enabled {
		outboxSvc.Start(ctx)
	}

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Starting GM Discord Bridge...")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down...")
	srv.Stop()
	if cfg.Outbox.Enabled {
		outboxSvc.Stop()
	}
	inboxSvc.Stop()
}
