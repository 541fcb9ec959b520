package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
	"github.com/azerothguard/gm-discord-bridge/internal/biz/repo"
	"github.com/azerothguard/gm-discord-bridge/internal/payload"
)

// TicketRoomOptions controls per-ticket channel automation.
type TicketRoomOptions struct {
	Enabled           bool
	CategoryID        uint64
	ArchiveCategoryID uint64
	NameFormat        string
	PostUpdates       bool
	ArchiveOnClose    bool
	AllowedRoles      []uint64

	// Fallback role set when AllowedRoles is empty: the keys of the
	// role->category mapping.
	MappedRoles []uint64
}

// OutboxOptions bounds one dispatch cycle and carries channel routing.
type OutboxOptions struct {
	PollInterval    time.Duration
	MaxBatchSize    int
	GuildID         uint64
	OutboxChannelID uint64
	TicketRooms     TicketRoomOptions
}

// OutboxService polls non-dispatched domain events, formats them, posts
// them to Discord and maintains the ticket<->thread/channel correlation
// state including archival. Items are marked dispatched regardless of
// posting outcome: a persistently failing channel must not produce a
// duplicate storm, so post failures are logged and accepted as lost.
type OutboxService struct {
	outbox  repo.OutboxRepo
	rooms   repo.TicketRoomRepo
	links   repo.LinkRepo
	inbox   repo.InboxRepo
	tickets repo.TicketAccessor
	gateway repo.Gateway
	corr    *CorrelationMap
	opts    OutboxOptions

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOutboxService creates a new outbox dispatcher.
func NewOutboxService(
	outbox repo.OutboxRepo,
	rooms repo.TicketRoomRepo,
	links repo.LinkRepo,
	inbox repo.InboxRepo,
	tickets repo.TicketAccessor,
	gateway repo.Gateway,
	corr *CorrelationMap,
	opts OutboxOptions,
) *OutboxService {
	return &OutboxService{
		outbox:  outbox,
		rooms:   rooms,
		links:   links,
		inbox:   inbox,
		tickets: tickets,
		gateway: gateway,
		corr:    corr,
		opts:    opts,
	}
}

// Start launches the dispatch loop.
func (s *OutboxService) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.pollLoop()
	fmt.Printf("[Outbox] Started with interval %v, batch %d\n", s.opts.PollInterval, s.opts.MaxBatchSize)
}

// Stop stops the dispatch loop and waits for it to drain.
func (s *OutboxService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	fmt.Println("[Outbox] Stopped")
}

func (s *OutboxService) pollLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Dispatch(s.ctx)
		}
	}
}

// Dispatch processes one bounded batch of non-dispatched events in id
// order.
func (s *OutboxService) Dispatch(ctx context.Context) {
	items, err := s.outbox.ListPending(ctx, s.opts.MaxBatchSize)
	if err != nil {
		fmt.Printf("[Outbox] Failed to list pending events: %v\n", err)
		return
	}

	for _, item := range items {
		s.dispatchItem(ctx, item)
		if err := s.outbox.MarkDispatched(ctx, item.ID); err != nil {
			fmt.Printf("[Outbox] Failed to mark event %d dispatched: %v\n", item.ID, err)
		}
	}
}

// ticketIDOf extracts the correlated ticket id from an event payload.
func ticketIDOf(item *domain.OutboxItem) (uint32, bool) {
	if item.IsTicketEvent() {
		if block, ok := payload.ExtractBlock(item.Payload, "ticket"); ok {
			if id, ok := payload.ExtractUint(block, "id"); ok {
				return uint32(id), true
			}
		}
	} else if item.IsWhisperEvent() {
		if block, ok := payload.ExtractBlock(item.Payload, "whisper"); ok {
			if id, ok := payload.ExtractUint(block, "ticketId"); ok && id > 0 {
				return uint32(id), true
			}
		}
	}
	return 0, false
}

func (s *OutboxService) dispatchItem(ctx context.Context, item *domain.OutboxItem) {
	ticketID, hasTicketID := ticketIDOf(item)

	embed, hasEmbed := buildEmbed(item)
	msg := repo.OutMessage{Embed: embed}
	if !hasEmbed {
		msg = repo.OutMessage{Content: truncateForDiscord(fmt.Sprintf("[%s] %s", item.EventType, item.Payload))}
	}

	if s.opts.OutboxChannelID != 0 {
		if item.EventType == domain.EventTicketCreate && hasTicketID {
			s.postWithThread(ctx, item, msg, ticketID)
		} else if _, err := s.gateway.PostMessage(ctx, s.opts.OutboxChannelID, msg); err != nil {
			fmt.Printf("[Outbox] Failed to post event %d: %v\n", item.ID, err)
		}
	}

	closing := item.EventType == domain.EventTicketClose || item.EventType == domain.EventTicketResolve
	if closing && hasTicketID {
		s.archiveThread(ctx, ticketID)
	}

	s.updateTicketRoom(ctx, item, msg, ticketID, hasTicketID, closing)
}

// archiveThread closes the correlated conversation thread, if any.
func (s *OutboxService) archiveThread(ctx context.Context, ticketID uint32) {
	threadID, ok := s.corr.ThreadFor(ticketID)
	if !ok {
		return
	}
	if err := s.gateway.ArchiveThread(ctx, threadID); err != nil {
		fmt.Printf("[Outbox] Failed to archive thread for ticket %d: %v\n", ticketID, err)
	}
	s.corr.Delete(ticketID)
}

// postWithThread posts a ticket_create notification and opens the
// correlated conversation thread on it.
func (s *OutboxService) postWithThread(ctx context.Context, item *domain.OutboxItem, msg repo.OutMessage, ticketID uint32) {
	messageID, err := s.gateway.PostMessage(ctx, s.opts.OutboxChannelID, msg)
	if err != nil {
		fmt.Printf("[Outbox] Failed to post ticket_create %d: %v\n", item.ID, err)
		return
	}

	playerName, ok := payload.ExtractString(item.Payload, "player")
	if !ok {
		playerName = "player"
	}
	threadName := FormatRoomName("ticket-{id}-{player}", playerName, ticketID)

	threadID, err := s.gateway.CreateThread(ctx, s.opts.OutboxChannelID, messageID, threadName)
	if err != nil {
		fmt.Printf("[Outbox] Failed to create thread for ticket %d: %v\n", ticketID, err)
		return
	}
	s.corr.Put(ticketID, threadID)
}

// updateTicketRoom drives the dedicated channel lifecycle for a ticket:
// creation on ticket_create, update mirroring, and archival on close.
func (s *OutboxService) updateTicketRoom(ctx context.Context, item *domain.OutboxItem, msg repo.OutMessage, ticketID uint32, hasTicketID, closing bool) {
	rooms := s.opts.TicketRooms
	if !rooms.Enabled || !hasTicketID || rooms.CategoryID == 0 || s.opts.GuildID == 0 {
		return
	}

	room, err := s.rooms.Get(ctx, ticketID)
	if err != nil {
		fmt.Printf("[Outbox] Failed to look up room for ticket %d: %v\n", ticketID, err)
		return
	}

	if room == nil && item.EventType == domain.EventTicketCreate {
		s.createTicketRoom(ctx, item, ticketID)
		return
	}

	if room != nil && !room.Archived() && rooms.PostUpdates {
		if _, err := s.gateway.PostMessage(ctx, room.ChannelID, msg); err != nil {
			fmt.Printf("[Outbox] Failed to mirror event %d into room: %v\n", item.ID, err)
		}
	}

	if closing {
		s.archiveTicketRoom(ctx, room, ticketID)
	}
}

func (s *OutboxService) createTicketRoom(ctx context.Context, item *domain.OutboxItem, ticketID uint32) {
	rooms := s.opts.TicketRooms

	playerName, ok := payload.ExtractString(item.Payload, "player")
	if !ok {
		playerName = "player"
	}
	channelName := FormatRoomName(rooms.NameFormat, playerName, ticketID)

	allowedRoles := rooms.AllowedRoles
	if len(allowedRoles) == 0 {
		allowedRoles = rooms.MappedRoles
	}

	channelID, err := s.gateway.CreateChannel(ctx, s.opts.GuildID, rooms.CategoryID, channelName, allowedRoles)
	if err != nil {
		fmt.Printf("[Outbox] Failed to create room for ticket %d: %v\n", ticketID, err)
		return
	}

	room := &domain.TicketRoom{
		TicketID:  ticketID,
		ChannelID: channelID,
		GuildID:   s.opts.GuildID,
		CreatedAt: time.Now(),
	}
	if err := s.rooms.Upsert(ctx, room); err != nil {
		fmt.Printf("[Outbox] Failed to persist room for ticket %d: %v\n", ticketID, err)
	}
}

func (s *OutboxService) archiveTicketRoom(ctx context.Context, room *domain.TicketRoom, ticketID uint32) {
	if room == nil || room.Archived() || !s.opts.TicketRooms.ArchiveOnClose {
		return
	}

	if _, err := s.gateway.PostMessage(ctx, room.ChannelID, repo.OutMessage{Content: "Ticket closed."}); err != nil {
		fmt.Printf("[Outbox] Failed to post closing notice for ticket %d: %v\n", ticketID, err)
	}
	if s.opts.TicketRooms.ArchiveCategoryID != 0 {
		if err := s.gateway.MoveChannel(ctx, room.ChannelID, s.opts.TicketRooms.ArchiveCategoryID); err != nil {
			fmt.Printf("[Outbox] Failed to move room for ticket %d to archive: %v\n", ticketID, err)
		}
	}
	if err := s.rooms.MarkArchived(ctx, ticketID); err != nil {
		fmt.Printf("[Outbox] Failed to mark room archived for ticket %d: %v\n", ticketID, err)
	}
}

// HandleThreadMessage translates a reply inside a correlated thread into
// a whisper InboxItem addressed to the ticket's player. Unlinked actors
// and closed or unknown tickets produce an informational reply only.
func (s *OutboxService) HandleThreadMessage(ctx context.Context, msg *repo.ChannelMessage) {
	if msg.FromBot {
		return
	}
	content := msg.Content
	if content == "" {
		return
	}

	ticketID, ok := s.corr.TicketFor(msg.ChannelID)
	if !ok {
		name, err := s.gateway.ThreadName(ctx, msg.ChannelID)
		if err != nil {
			return
		}
		ticketID, ok = ParseTicketIDFromThreadName(name)
		if !ok {
			return
		}
		s.corr.Put(ticketID, msg.ChannelID)
	}

	ticket := s.tickets.TicketByID(ticketID)
	if ticket == nil || ticket.IsClosed() {
		s.reply(ctx, msg.ChannelID, "Ticket is closed or unavailable.")
		return
	}

	link, err := s.links.GetByDiscordUser(ctx, msg.UserID)
	if err != nil {
		fmt.Printf("[Outbox] Failed to resolve link for thread reply: %v\n", err)
		return
	}
	if link == nil || !link.Verified || link.GMName == "" {
		s.reply(ctx, msg.ChannelID, "You are not linked. Use in-game .discord link <secret>.")
		return
	}

	senderName := SanitizeGMName(msg.DisplayName)
	if senderName == "" {
		senderName = link.GMName
	}

	whisperPayload := ticket.PlayerName + "|" + senderName + "|" + content
	if err := s.inbox.Enqueue(ctx, msg.UserID, domain.ActionWhisper, whisperPayload); err != nil {
		fmt.Printf("[Outbox] Failed to enqueue whisper from thread reply: %v\n", err)
	}
}

func (s *OutboxService) reply(ctx context.Context, channelID uint64, text string) {
	if _, err := s.gateway.PostMessage(ctx, channelID, repo.OutMessage{Content: text}); err != nil {
		fmt.Printf("[Outbox] Failed to post reply: %v\n", err)
	}
}
