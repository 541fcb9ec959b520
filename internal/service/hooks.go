package service

import (
	"context"
	"fmt"
	"time"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
	"github.com/azerothguard/gm-discord-bridge/internal/biz/repo"
	"github.com/azerothguard/gm-discord-bridge/internal/payload"
)

// GameHooks is the game-server-facing entrypoint. The host process calls
// these from its ticket and chat handlers; each hook encodes a payload
// and enqueues a durable outbound event. Hooks never touch the network.
type GameHooks struct {
	outbox   repo.OutboxRepo
	sessions repo.WhisperSessionRepo
	tickets  repo.TicketAccessor
	enabled  bool
}

// NewGameHooks creates the hook surface. When enabled is false every
// hook is a no-op, matching a bridge that is configured off.
func NewGameHooks(outbox repo.OutboxRepo, sessions repo.WhisperSessionRepo, tickets repo.TicketAccessor, enabled bool) *GameHooks {
	return &GameHooks{
		outbox:   outbox,
		sessions: sessions,
		tickets:  tickets,
		enabled:  enabled,
	}
}

// OnTicketCreate notifies Discord of a newly opened ticket.
func (h *GameHooks) OnTicketCreate(ctx context.Context, t *domain.Ticket) {
	h.enqueueTicket(ctx, domain.EventTicketCreate, t)
}

// OnTicketUpdate notifies Discord of an edited ticket.
func (h *GameHooks) OnTicketUpdate(ctx context.Context, t *domain.Ticket) {
	h.enqueueTicket(ctx, domain.EventTicketUpdate, t)
}

// OnTicketClose notifies Discord of a closed ticket.
func (h *GameHooks) OnTicketClose(ctx context.Context, t *domain.Ticket) {
	h.enqueueTicket(ctx, domain.EventTicketClose, t)
}

// OnTicketStatusUpdate notifies Discord of a status change such as
// assignment or escalation.
func (h *GameHooks) OnTicketStatusUpdate(ctx context.Context, t *domain.Ticket) {
	h.enqueueTicket(ctx, domain.EventTicketStatus, t)
}

// OnTicketResolve notifies Discord of a resolved ticket.
func (h *GameHooks) OnTicketResolve(ctx context.Context, t *domain.Ticket) {
	h.enqueueTicket(ctx, domain.EventTicketResolve, t)
}

func (h *GameHooks) enqueueTicket(ctx context.Context, eventType string, t *domain.Ticket) {
	if !h.enabled || t == nil {
		return
	}
	raw := payload.BuildTicketPayload(eventType, t, time.Now())
	if err := h.outbox.Enqueue(ctx, eventType, raw); err != nil {
		fmt.Printf("[Hooks] Failed to enqueue %s for ticket %d: %v\n", eventType, t.ID, err)
	}
}

// OnPlayerWhisper intercepts a whisper a player sends to a GM name that
// has an active relay session, forwarding it to Discord instead. Returns
// true when the whisper was captured and must not be delivered in-game.
func (h *GameHooks) OnPlayerWhisper(ctx context.Context, playerGUID uint64, playerName, targetName, message string) bool {
	if !h.enabled || message == "" {
		return false
	}

	session, err := h.sessions.GetByGMName(ctx, targetName)
	if err != nil {
		fmt.Printf("[Hooks] Failed to look up whisper session for %q: %v\n", targetName, err)
		return false
	}
	if session == nil || session.PlayerGUID != playerGUID {
		return false
	}

	var ticketID uint32
	if ticket := h.tickets.OpenTicketByPlayer(playerGUID); ticket != nil {
		ticketID = ticket.ID
	}

	raw := payload.BuildWhisperPayload(domain.EventPlayerWhisper, playerName, playerGUID,
		session.GMName, session.DiscordUserID, ticketID, message, time.Now())
	if err := h.outbox.Enqueue(ctx, domain.EventPlayerWhisper, raw); err != nil {
		fmt.Printf("[Hooks] Failed to enqueue player whisper from %s: %v\n", playerName, err)
		return false
	}
	return true
}
