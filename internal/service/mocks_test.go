package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
	"github.com/azerothguard/gm-discord-bridge/internal/biz/repo"
)

// memInbox is an in-memory InboxRepo.
type memInbox struct {
	mu     sync.Mutex
	nextID int64
	items  []*domain.InboxItem
}

func newMemInbox() *memInbox { return &memInbox{nextID: 1} }

func (m *memInbox) Enqueue(ctx context.Context, discordUserID uint64, action, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, &domain.InboxItem{
		ID:            m.nextID,
		DiscordUserID: discordUserID,
		Action:        action,
		Payload:       payload,
		CreatedAt:     time.Now(),
		State:         domain.StatePending,
	})
	m.nextID++
	return nil
}

func (m *memInbox) ListPending(ctx context.Context, limit int) ([]*domain.InboxItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.InboxItem
	for _, item := range m.items {
		if item.State == domain.StatePending {
			copied := *item
			out = append(out, &copied)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memInbox) Claim(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ID == id && item.State == domain.StatePending {
			item.State = domain.StateProcessing
			return true, nil
		}
	}
	return false, nil
}

func (m *memInbox) MarkDone(ctx context.Context, id int64, status, result string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ID == id {
			item.State = domain.StateDone
			item.Status = status
			item.Result = result
			item.ProcessedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("item %d not found", id)
}

func (m *memInbox) get(id int64) *domain.InboxItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ID == id {
			copied := *item
			return &copied
		}
	}
	return nil
}

// memOutbox is an in-memory OutboxRepo.
type memOutbox struct {
	mu     sync.Mutex
	nextID int64
	items  []*domain.OutboxItem
}

func newMemOutbox() *memOutbox { return &memOutbox{nextID: 1} }

func (m *memOutbox) Enqueue(ctx context.Context, eventType, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, &domain.OutboxItem{
		ID:        m.nextID,
		EventType: eventType,
		Payload:   payload,
		CreatedAt: time.Now(),
	})
	m.nextID++
	return nil
}

func (m *memOutbox) ListPending(ctx context.Context, limit int) ([]*domain.OutboxItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OutboxItem
	for _, item := range m.items {
		if !item.Dispatched {
			copied := *item
			out = append(out, &copied)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memOutbox) MarkDispatched(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ID == id {
			item.Dispatched = true
			item.DispatchedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("item %d not found", id)
}

func (m *memOutbox) byType(eventType string) []*domain.OutboxItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OutboxItem
	for _, item := range m.items {
		if item.EventType == eventType {
			copied := *item
			out = append(out, &copied)
		}
	}
	return out
}

// memLinks is an in-memory LinkRepo keyed by account id.
type memLinks struct {
	mu    sync.Mutex
	links map[uint32]*domain.Link
}

func newMemLinks() *memLinks { return &memLinks{links: make(map[uint32]*domain.Link)} }

func (m *memLinks) put(link *domain.Link) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *link
	m.links[link.AccountID] = &copied
}

func (m *memLinks) GetByAccount(ctx context.Context, accountID uint32) (*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.links[accountID]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, nil
}

func (m *memLinks) GetByDiscordUser(ctx context.Context, discordUserID uint64) (*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.DiscordUserID == discordUserID {
			copied := *l
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memLinks) UpsertPending(ctx context.Context, accountID uint32, gmName, secretHash string, expiresAt time.Time) error {
	m.put(&domain.Link{AccountID: accountID, GMName: gmName, SecretHash: secretHash, SecretExpiresAt: expiresAt})
	return nil
}

func (m *memLinks) ListPending(ctx context.Context, now time.Time) ([]*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Link
	for id := uint32(0); id < 1000; id++ {
		if l, ok := m.links[id]; ok && l.HasPendingSecret(now) {
			copied := *l
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memLinks) MarkVerified(ctx context.Context, accountID uint32, discordUserID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.links {
		if id != accountID && l.DiscordUserID == discordUserID {
			delete(m.links, id)
		}
	}
	l := m.links[accountID]
	l.DiscordUserID = discordUserID
	l.Verified = true
	l.SecretHash = ""
	return nil
}

func (m *memLinks) Delete(ctx context.Context, accountID uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.links, accountID)
	return nil
}

// memSessions is an in-memory WhisperSessionRepo.
type memSessions struct {
	mu       sync.Mutex
	sessions map[uint64]*domain.WhisperSession
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[uint64]*domain.WhisperSession)}
}

func (m *memSessions) Upsert(ctx context.Context, session *domain.WhisperSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *session
	m.sessions[session.PlayerGUID] = &copied
	return nil
}

func (m *memSessions) GetByGMName(ctx context.Context, gmName string) (*domain.WhisperSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *domain.WhisperSession
	for _, s := range m.sessions {
		if strings.EqualFold(s.GMName, gmName) {
			if best == nil || s.UpdatedAt.After(best.UpdatedAt) {
				best = s
			}
		}
	}
	if best == nil {
		return nil, nil
	}
	copied := *best
	return &copied, nil
}

// memRooms is an in-memory TicketRoomRepo.
type memRooms struct {
	mu    sync.Mutex
	rooms map[uint32]*domain.TicketRoom
}

func newMemRooms() *memRooms { return &memRooms{rooms: make(map[uint32]*domain.TicketRoom)} }

func (m *memRooms) Get(ctx context.Context, ticketID uint32) (*domain.TicketRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[ticketID]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, nil
}

func (m *memRooms) Upsert(ctx context.Context, room *domain.TicketRoom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *room
	m.rooms[room.TicketID] = &copied
	return nil
}

func (m *memRooms) MarkArchived(ctx context.Context, ticketID uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[ticketID]; ok {
		r.ArchivedAt = time.Now()
	}
	return nil
}

// memAudit records appended entries.
type memAudit struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
}

func (m *memAudit) Append(ctx context.Context, entry *domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *entry
	m.entries = append(m.entries, &copied)
	return nil
}

func (m *memAudit) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *memAudit) last() *domain.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return nil
	}
	copied := *m.entries[len(m.entries)-1]
	return &copied
}

// fakeWorld implements the game-facing interfaces with canned data.
type fakeWorld struct {
	online   map[string]*repo.OnlinePlayer
	tickets  map[uint32]*domain.Ticket
	byPlayer map[uint64]*domain.Ticket

	mu       sync.Mutex
	whispers []string // "guid|gm|message"
	sendErr  error
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		online:   make(map[string]*repo.OnlinePlayer),
		tickets:  make(map[uint32]*domain.Ticket),
		byPlayer: make(map[uint64]*domain.Ticket),
	}
}

func (w *fakeWorld) FindOnlineByName(name string) (*repo.OnlinePlayer, bool) {
	p, ok := w.online[name]
	return p, ok
}

func (w *fakeWorld) SendWhisper(playerGUID uint64, gmName, message string) error {
	if w.sendErr != nil {
		return w.sendErr
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.whispers = append(w.whispers, fmt.Sprintf("%d|%s|%s", playerGUID, gmName, message))
	return nil
}

func (w *fakeWorld) TicketByID(id uint32) *domain.Ticket { return w.tickets[id] }

func (w *fakeWorld) OpenTicketByPlayer(playerGUID uint64) *domain.Ticket { return w.byPlayer[playerGUID] }

// fixedSecurity returns the same level for every account.
type fixedSecurity struct{ level domain.SecurityLevel }

func (f fixedSecurity) Security(accountID uint32) domain.SecurityLevel { return f.level }

// fakeExecutor runs commands synchronously with canned output.
type fakeExecutor struct {
	mu       sync.Mutex
	commands []string
	output   string
	success  bool
}

func (e *fakeExecutor) Execute(command string, print func(text string), done func(success bool)) {
	e.mu.Lock()
	e.commands = append(e.commands, command)
	output, success := e.output, e.success
	e.mu.Unlock()
	if output != "" {
		print(output)
	}
	done(success)
}

// fakeGateway records posted messages and thread/channel operations.
type fakeGateway struct {
	mu sync.Mutex

	nextID          uint64
	posts           map[uint64][]repo.OutMessage // channelID -> messages
	threads         map[uint64]string            // threadID -> name
	archived        map[uint64]bool
	channels        map[uint64]string // channelID -> name
	channelsUnder   map[uint64]uint64 // channelID -> parent
	moved           map[uint64]uint64
	createdThreads  int
	createdChannels int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		nextID:        1000,
		posts:         make(map[uint64][]repo.OutMessage),
		threads:       make(map[uint64]string),
		archived:      make(map[uint64]bool),
		channels:      make(map[uint64]string),
		channelsUnder: make(map[uint64]uint64),
		moved:         make(map[uint64]uint64),
	}
}

func (g *fakeGateway) Start() error { return nil }
func (g *fakeGateway) Stop()        {}

func (g *fakeGateway) RegisterCommands(guildID uint64) error { return nil }

func (g *fakeGateway) OnSlashCommand(handler func(cmd *repo.SlashCommand) string) {}
func (g *fakeGateway) OnChannelMessage(handler func(msg *repo.ChannelMessage))    {}

func (g *fakeGateway) PostMessage(ctx context.Context, channelID uint64, msg repo.OutMessage) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.posts[channelID] = append(g.posts[channelID], msg)
	g.nextID++
	return g.nextID, nil
}

func (g *fakeGateway) CreateThread(ctx context.Context, channelID, messageID uint64, name string) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	g.threads[g.nextID] = name
	g.createdThreads++
	return g.nextID, nil
}

func (g *fakeGateway) ThreadName(ctx context.Context, threadID uint64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if name, ok := g.threads[threadID]; ok {
		return name, nil
	}
	return "", fmt.Errorf("thread %d not found", threadID)
}

func (g *fakeGateway) ArchiveThread(ctx context.Context, threadID uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.archived[threadID] = true
	return nil
}

func (g *fakeGateway) CreateChannel(ctx context.Context, guildID, parentID uint64, name string, allowedRoles []uint64) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	g.channels[g.nextID] = name
	g.channelsUnder[g.nextID] = parentID
	g.createdChannels++
	return g.nextID, nil
}

func (g *fakeGateway) MoveChannel(ctx context.Context, channelID, parentID uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.moved[channelID] = parentID
	return nil
}

func (g *fakeGateway) postCount(channelID uint64) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.posts[channelID])
}

func (g *fakeGateway) lastPost(channelID uint64) (repo.OutMessage, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	msgs := g.posts[channelID]
	if len(msgs) == 0 {
		return repo.OutMessage{}, false
	}
	return msgs[len(msgs)-1], true
}
