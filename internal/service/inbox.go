package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
	"github.com/azerothguard/gm-discord-bridge/internal/biz/repo"
	"github.com/azerothguard/gm-discord-bridge/internal/biz/usecase"
	"github.com/azerothguard/gm-discord-bridge/internal/payload"
)

// InboxOptions bounds one processing cycle.
type InboxOptions struct {
	PollInterval    time.Duration
	MaxBatchSize    int
	MaxResultLength int
	AuditPayloadMax int
	WhisperEnabled  bool
}

// InboxDeps are the stores and game collaborators the processor uses.
type InboxDeps struct {
	Inbox    repo.InboxRepo
	Outbox   repo.OutboxRepo
	Audit    repo.AuditRepo
	Links    repo.LinkRepo
	Sessions repo.WhisperSessionRepo
	Tickets  repo.TicketAccessor
	Players  repo.PlayerResolver
	Whispers repo.WhisperSender
	Accounts repo.AccountDirectory
	Executor repo.CommandExecutor
}

// InboxService drives the inbound action state machine: it polls pending
// items in id order, authorizes them, dispatches them to the game server
// and records exactly one audit entry per disposition.
type InboxService struct {
	deps   InboxDeps
	linkUC *usecase.LinkUsecase
	perm   *usecase.PermissionConfig
	rate   *usecase.RateLimiter
	opts   InboxOptions

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewInboxService creates a new inbox processor.
func NewInboxService(deps InboxDeps, linkUC *usecase.LinkUsecase, perm *usecase.PermissionConfig, rate *usecase.RateLimiter, opts InboxOptions) *InboxService {
	return &InboxService{
		deps:   deps,
		linkUC: linkUC,
		perm:   perm,
		rate:   rate,
		opts:   opts,
	}
}

// Start launches the polling loop.
func (s *InboxService) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.pollLoop()
	fmt.Printf("[Inbox] Started with interval %v, batch %d\n", s.opts.PollInterval, s.opts.MaxBatchSize)
}

// Stop stops the polling loop and waits for it to drain.
func (s *InboxService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	fmt.Println("[Inbox] Stopped")
}

func (s *InboxService) pollLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.ProcessBatch(s.ctx)
		}
	}
}

// ProcessBatch processes one bounded batch of pending items in id order.
// Storage failures leave items pending for the next cycle.
func (s *InboxService) ProcessBatch(ctx context.Context) {
	items, err := s.deps.Inbox.ListPending(ctx, s.opts.MaxBatchSize)
	if err != nil {
		fmt.Printf("[Inbox] Failed to list pending items: %v\n", err)
		return
	}

	for _, item := range items {
		s.processItem(ctx, item)
	}
}

func (s *InboxService) processItem(ctx context.Context, item *domain.InboxItem) {
	action := strings.ToLower(item.Action)

	if reason, ok := s.rate.Check(item.DiscordUserID, action); !ok {
		s.finish(ctx, item, 0, action, domain.StatusRateLimited, reason, reason)
		return
	}

	switch action {
	case domain.ActionCommand:
		s.processCommand(ctx, item)
	case domain.ActionAuth:
		s.processAuth(ctx, item)
	case domain.ActionWhisper:
		s.processWhisper(ctx, item)
	case domain.ActionTicketAssign:
		s.processTicketAssign(ctx, item)
	default:
		s.finish(ctx, item, 0, action, domain.StatusInvalid, "Unknown action", "Unknown action")
	}
}

// requireVerifiedLink resolves the actor's link. The bool result is false
// when the item was finished (or left pending after a storage error).
func (s *InboxService) requireVerifiedLink(ctx context.Context, item *domain.InboxItem, category string) (*domain.Link, bool) {
	link, err := s.deps.Links.GetByDiscordUser(ctx, item.DiscordUserID)
	if err != nil {
		fmt.Printf("[Inbox] Failed to resolve link for item %d: %v\n", item.ID, err)
		return nil, false
	}
	if link == nil {
		s.finish(ctx, item, 0, category, domain.StatusNotLinked, "Discord user is not linked to a GM account", "Discord user is not linked")
		return nil, false
	}
	if !link.Verified {
		s.finish(ctx, item, link.AccountID, category, domain.StatusNotVerified, "Discord user is not verified", "Discord user is not verified")
		return nil, false
	}
	return link, true
}

func (s *InboxService) processCommand(ctx context.Context, item *domain.InboxItem) {
	link, ok := s.requireVerifiedLink(ctx, item, "command")
	if !ok {
		return
	}

	security := s.deps.Accounts.Security(link.AccountID)
	category, reason, ok := s.perm.CheckCommand(item.Payload, security)
	if !ok {
		if category == "" {
			category = "command"
		}
		s.finish(ctx, item, link.AccountID, category, domain.StatusForbidden, reason, reason)
		return
	}

	s.queueCommand(ctx, item, link.AccountID, category, item.Payload)
}

func (s *InboxService) processAuth(ctx context.Context, item *domain.InboxItem) {
	secret := strings.TrimSpace(item.Payload)
	if secret == "" {
		s.finish(ctx, item, 0, "auth", domain.StatusInvalid, "Missing secret payload", "Missing secret payload")
		return
	}

	accountID, linked, err := s.linkUC.VerifyAndLink(ctx, item.DiscordUserID, secret)
	if err != nil {
		fmt.Printf("[Inbox] Failed to verify secret for item %d: %v\n", item.ID, err)
		return
	}
	if !linked {
		s.finish(ctx, item, 0, "auth", domain.StatusInvalid, "Secret not found or expired", "Secret not found or expired")
		return
	}

	s.finish(ctx, item, accountID, "auth", domain.StatusOK, "Discord user linked successfully", "Discord user linked successfully")
}

func (s *InboxService) processWhisper(ctx context.Context, item *domain.InboxItem) {
	if !s.opts.WhisperEnabled {
		s.finish(ctx, item, 0, "whisper", domain.StatusDisabled, "Whisper relay disabled", "Whisper relay disabled")
		return
	}

	link, ok := s.requireVerifiedLink(ctx, item, "whisper")
	if !ok {
		return
	}

	security := s.deps.Accounts.Security(link.AccountID)
	if security < s.perm.RequiredSecurity("whisper") {
		s.finish(ctx, item, link.AccountID, "whisper", domain.StatusForbidden, "Account security is too low", "Account security is too low")
		return
	}

	playerName, gmName, message, ok := ParseWhisperPayload(item.Payload)
	if !ok {
		s.finish(ctx, item, link.AccountID, "whisper", domain.StatusInvalid, "Invalid whisper payload", "Invalid whisper payload")
		return
	}

	player, online := s.deps.Players.FindOnlineByName(playerName)
	if !online {
		s.finish(ctx, item, link.AccountID, "whisper", domain.StatusPlayerOffline, "Player is offline", "Player is offline")
		return
	}

	if err := s.deps.Whispers.SendWhisper(player.GUID, gmName, message); err != nil {
		fmt.Printf("[Inbox] Failed to deliver whisper for item %d: %v\n", item.ID, err)
		return
	}

	session := &domain.WhisperSession{
		PlayerGUID:    player.GUID,
		DiscordUserID: item.DiscordUserID,
		GMName:        gmName,
		UpdatedAt:     time.Now(),
	}
	if err := s.deps.Sessions.Upsert(ctx, session); err != nil {
		fmt.Printf("[Inbox] Failed to save whisper session for item %d: %v\n", item.ID, err)
	}

	s.finish(ctx, item, link.AccountID, "whisper", domain.StatusOK, "Whisper delivered", "Whisper delivered")

	var ticketID uint32
	if ticket := s.deps.Tickets.OpenTicketByPlayer(player.GUID); ticket != nil {
		ticketID = ticket.ID
	}
	out := payload.BuildWhisperPayload(domain.EventGMWhisper, player.Name, player.GUID, gmName, item.DiscordUserID, ticketID, message, time.Now())
	if err := s.deps.Outbox.Enqueue(ctx, domain.EventGMWhisper, out); err != nil {
		fmt.Printf("[Inbox] Failed to enqueue gm_whisper event: %v\n", err)
	}
}

func (s *InboxService) processTicketAssign(ctx context.Context, item *domain.InboxItem) {
	link, ok := s.requireVerifiedLink(ctx, item, "ticket")
	if !ok {
		return
	}

	security := s.deps.Accounts.Security(link.AccountID)
	if _, reason, ok := s.perm.CheckCommand(".ticket assign", security); !ok {
		s.finish(ctx, item, link.AccountID, "ticket", domain.StatusForbidden, reason, reason)
		return
	}

	ticketID, gmName, ok := ParseTicketAssignPayload(item.Payload)
	if !ok {
		s.finish(ctx, item, link.AccountID, "ticket", domain.StatusInvalid, "Invalid ticket assignment payload", "Invalid ticket assignment payload")
		return
	}

	command := fmt.Sprintf(".ticket assign %d %s", ticketID, gmName)
	s.queueCommand(ctx, item, link.AccountID, "ticket", command)
}

// queueCommand claims the item and hands the command to the executor.
// Terminal state is written by the completion callback; an execution
// failure is terminal (done/error), not retried.
func (s *InboxService) queueCommand(ctx context.Context, item *domain.InboxItem, accountID uint32, category, command string) {
	claimed, err := s.deps.Inbox.Claim(ctx, item.ID)
	if err != nil {
		fmt.Printf("[Inbox] Failed to claim item %d: %v\n", item.ID, err)
		return
	}
	if !claimed {
		// Another processor raced us to this item.
		return
	}

	var outMu sync.Mutex
	var output strings.Builder
	itemID := item.ID
	maxLen := s.opts.MaxResultLength

	s.deps.Executor.Execute(command,
		func(text string) {
			if text == "" {
				return
			}
			outMu.Lock()
			defer outMu.Unlock()
			if output.Len() >= maxLen {
				return
			}
			remaining := maxLen - output.Len()
			if len(text) > remaining {
				text = text[:remaining]
			}
			output.WriteString(text)
		},
		func(success bool) {
			outMu.Lock()
			result := output.String()
			outMu.Unlock()
			if result == "" {
				if success {
					result = "OK"
				} else {
					result = "Error"
				}
			}

			status := domain.StatusError
			if success {
				status = domain.StatusOK
			}

			done := context.Background()
			if err := s.deps.Inbox.MarkDone(done, itemID, status, result); err != nil {
				fmt.Printf("[Inbox] Failed to record result for item %d: %v\n", itemID, err)
			}

			out := payload.BuildCommandResultPayload(itemID, success, result, time.Now())
			if err := s.deps.Outbox.Enqueue(done, domain.EventCommandResult, out); err != nil {
				fmt.Printf("[Inbox] Failed to enqueue command_result event: %v\n", err)
			}
		})

	s.audit(ctx, item, accountID, category, "queued", "Command queued")
}

// finish writes the terminal state and the matching audit entry. When the
// state write fails the item stays pending and no audit entry is written,
// so a retried item still yields exactly one entry.
func (s *InboxService) finish(ctx context.Context, item *domain.InboxItem, accountID uint32, category, status, result, detail string) {
	if err := s.deps.Inbox.MarkDone(ctx, item.ID, status, result); err != nil {
		fmt.Printf("[Inbox] Failed to finish item %d: %v\n", item.ID, err)
		return
	}
	s.audit(ctx, item, accountID, category, status, detail)
}

func (s *InboxService) audit(ctx context.Context, item *domain.InboxItem, accountID uint32, category, status, detail string) {
	auditPayload := item.Payload
	if s.opts.AuditPayloadMax > 0 && len(auditPayload) > s.opts.AuditPayloadMax {
		auditPayload = auditPayload[:s.opts.AuditPayloadMax]
	}
	entry := &domain.AuditEntry{
		DiscordUserID: item.DiscordUserID,
		AccountID:     accountID,
		Action:        strings.ToLower(item.Action),
		Category:      category,
		Status:        status,
		Detail:        detail,
		Payload:       auditPayload,
	}
	if err := s.deps.Audit.Append(ctx, entry); err != nil {
		fmt.Printf("[Inbox] Failed to append audit entry for item %d: %v\n", item.ID, err)
	}
}

// ParseWhisperPayload splits a "player|gmName|message" payload. All three
// fields are trimmed and must be non-empty; the message may itself
// contain further '|' characters.
func ParseWhisperPayload(raw string) (player, gmName, message string, ok bool) {
	first := strings.IndexByte(raw, '|')
	if first < 0 {
		return "", "", "", false
	}
	second := strings.IndexByte(raw[first+1:], '|')
	if second < 0 {
		return "", "", "", false
	}
	second += first + 1

	player = strings.TrimSpace(raw[:first])
	gmName = strings.TrimSpace(raw[first+1 : second])
	message = strings.TrimSpace(raw[second+1:])
	if player == "" || gmName == "" || message == "" {
		return "", "", "", false
	}
	return player, gmName, message, true
}

// ParseTicketAssignPayload splits a "ticketId|gmName" payload.
func ParseTicketAssignPayload(raw string) (ticketID uint32, gmName string, ok bool) {
	sep := strings.IndexByte(raw, '|')
	if sep < 0 {
		return 0, "", false
	}
	idStr := strings.TrimSpace(raw[:sep])
	gmName = strings.TrimSpace(raw[sep+1:])
	if idStr == "" || gmName == "" {
		return 0, "", false
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		return 0, "", false
	}
	return uint32(id), gmName, true
}
