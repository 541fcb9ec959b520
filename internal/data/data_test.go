package data

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
)

func testRepos(t *testing.T) *Repositories {
	t.Helper()
	repos, err := NewRepositories(filepath.Join(t.TempDir(), "bridge.db"))
	if err != nil {
		t.Fatalf("NewRepositories: %v", err)
	}
	t.Cleanup(func() { repos.Close() })
	return repos
}

func TestLinkLifecycle(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()
	expires := time.Now().Add(15 * time.Minute)

	if err := repos.Link.UpsertPending(ctx, 7, "Gamemaster", "hash-a", expires); err != nil {
		t.Fatalf("UpsertPending: %v", err)
	}

	link, err := repos.Link.GetByAccount(ctx, 7)
	if err != nil || link == nil {
		t.Fatalf("GetByAccount: %v, %v", link, err)
	}
	if link.Verified || link.SecretHash != "hash-a" || link.GMName != "Gamemaster" {
		t.Errorf("unexpected pending link: %+v", link)
	}

	pending, err := repos.Link.ListPending(ctx, time.Now())
	if err != nil || len(pending) != 1 {
		t.Fatalf("ListPending: %d items, %v", len(pending), err)
	}

	if err := repos.Link.MarkVerified(ctx, 7, 42); err != nil {
		t.Fatalf("MarkVerified: %v", err)
	}

	link, _ = repos.Link.GetByAccount(ctx, 7)
	if !link.Verified || link.DiscordUserID != 42 {
		t.Errorf("link not verified: %+v", link)
	}
	if link.SecretHash != "" {
		t.Error("secret hash must be cleared on verification")
	}

	byUser, err := repos.Link.GetByDiscordUser(ctx, 42)
	if err != nil || byUser == nil || byUser.AccountID != 7 {
		t.Fatalf("GetByDiscordUser: %+v, %v", byUser, err)
	}

	// Re-issuing a secret resets the verification.
	if err := repos.Link.UpsertPending(ctx, 7, "Gamemaster", "hash-b", expires); err != nil {
		t.Fatalf("UpsertPending again: %v", err)
	}
	link, _ = repos.Link.GetByAccount(ctx, 7)
	if link.Verified {
		t.Error("re-issue must reset verification")
	}

	if err := repos.Link.Delete(ctx, 7); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	link, _ = repos.Link.GetByAccount(ctx, 7)
	if link != nil {
		t.Error("link must be gone after delete")
	}
}

func TestMarkVerifiedMovesDiscordUser(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()
	expires := time.Now().Add(15 * time.Minute)

	repos.Link.UpsertPending(ctx, 1, "GmOne", "hash-1", expires)
	if err := repos.Link.MarkVerified(ctx, 1, 42); err != nil {
		t.Fatalf("MarkVerified: %v", err)
	}

	// The same Discord user verifies against a second account. The unique
	// index on discord_user_id must not abort the update; the previous
	// link moves instead.
	repos.Link.UpsertPending(ctx, 2, "GmTwo", "hash-2", expires)
	if err := repos.Link.MarkVerified(ctx, 2, 42); err != nil {
		t.Fatalf("MarkVerified second account: %v", err)
	}

	link, err := repos.Link.GetByDiscordUser(ctx, 42)
	if err != nil || link == nil {
		t.Fatalf("GetByDiscordUser: %+v, %v", link, err)
	}
	if link.AccountID != 2 || !link.Verified {
		t.Errorf("user must now be linked to account 2: %+v", link)
	}
	if old, _ := repos.Link.GetByAccount(ctx, 1); old != nil {
		t.Errorf("previous link must be removed: %+v", old)
	}
}

func TestListPendingSkipsExpired(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()

	repos.Link.UpsertPending(ctx, 1, "GmOne", "hash-1", time.Now().Add(-time.Minute))
	repos.Link.UpsertPending(ctx, 2, "GmTwo", "hash-2", time.Now().Add(time.Minute))

	pending, err := repos.Link.ListPending(ctx, time.Now())
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 || pending[0].AccountID != 2 {
		t.Errorf("pending = %+v", pending)
	}
}

func TestInboxStateMachine(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()

	if err := repos.Inbox.Enqueue(ctx, 42, domain.ActionCommand, ".ticket list"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	repos.Inbox.Enqueue(ctx, 42, domain.ActionAuth, "some-secret")

	items, err := repos.Inbox.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(items))
	}
	if items[0].ID >= items[1].ID {
		t.Error("pending items must come back in ascending id order")
	}
	first := items[0]
	if first.Action != domain.ActionCommand || first.Payload != ".ticket list" {
		t.Errorf("unexpected item: %+v", first)
	}

	claimed, err := repos.Inbox.Claim(ctx, first.ID)
	if err != nil || !claimed {
		t.Fatalf("Claim = %v, %v", claimed, err)
	}

	// Second claim must lose.
	claimed, err = repos.Inbox.Claim(ctx, first.ID)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claimed {
		t.Error("claiming a processing item must fail")
	}

	// Claimed item no longer lists as pending.
	items, _ = repos.Inbox.ListPending(ctx, 10)
	if len(items) != 1 {
		t.Errorf("expected 1 pending after claim, got %d", len(items))
	}

	if err := repos.Inbox.MarkDone(ctx, first.ID, domain.StatusOK, "2 tickets"); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	items, _ = repos.Inbox.ListPending(ctx, 10)
	if len(items) != 1 {
		t.Errorf("done item must stay out of pending, got %d", len(items))
	}
}

func TestOutboxDispatch(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()

	repos.Outbox.Enqueue(ctx, domain.EventTicketCreate, `{"event":"ticket_create"}`)
	repos.Outbox.Enqueue(ctx, domain.EventGMWhisper, `{"event":"gm_whisper"}`)

	items, err := repos.Outbox.ListPending(ctx, 10)
	if err != nil || len(items) != 2 {
		t.Fatalf("ListPending: %d, %v", len(items), err)
	}
	if items[0].EventType != domain.EventTicketCreate {
		t.Errorf("order: first = %s", items[0].EventType)
	}

	if err := repos.Outbox.MarkDispatched(ctx, items[0].ID); err != nil {
		t.Fatalf("MarkDispatched: %v", err)
	}
	items, _ = repos.Outbox.ListPending(ctx, 10)
	if len(items) != 1 || items[0].EventType != domain.EventGMWhisper {
		t.Errorf("after dispatch: %+v", items)
	}
}

func TestWhisperSessionCaseInsensitive(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()

	err := repos.WhisperSession.Upsert(ctx, &domain.WhisperSession{
		PlayerGUID:    101,
		DiscordUserID: 42,
		GMName:        "Gamemaster",
		UpdatedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	session, err := repos.WhisperSession.GetByGMName(ctx, "gamemaster")
	if err != nil || session == nil {
		t.Fatalf("GetByGMName: %v, %v", session, err)
	}
	if session.PlayerGUID != 101 || session.DiscordUserID != 42 {
		t.Errorf("session = %+v", session)
	}

	if session, _ := repos.WhisperSession.GetByGMName(ctx, "Nobody"); session != nil {
		t.Error("unknown GM must have no session")
	}

	// Upsert for the same player overwrites.
	repos.WhisperSession.Upsert(ctx, &domain.WhisperSession{
		PlayerGUID:    101,
		DiscordUserID: 43,
		GMName:        "Othergm",
		UpdatedAt:     time.Now(),
	})
	if session, _ := repos.WhisperSession.GetByGMName(ctx, "Gamemaster"); session != nil {
		t.Error("old GM name must no longer resolve")
	}
}

func TestTicketRoomArchival(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()

	if room, _ := repos.TicketRoom.Get(ctx, 5); room != nil {
		t.Fatal("unknown ticket must have no room")
	}

	err := repos.TicketRoom.Upsert(ctx, &domain.TicketRoom{
		TicketID:  5,
		ChannelID: 9000,
		GuildID:   1,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	room, err := repos.TicketRoom.Get(ctx, 5)
	if err != nil || room == nil {
		t.Fatalf("Get: %v, %v", room, err)
	}
	if room.Archived() {
		t.Error("fresh room must not be archived")
	}

	if err := repos.TicketRoom.MarkArchived(ctx, 5); err != nil {
		t.Fatalf("MarkArchived: %v", err)
	}
	room, _ = repos.TicketRoom.Get(ctx, 5)
	if room == nil || !room.Archived() {
		t.Errorf("room must be retained and archived: %+v", room)
	}
}

func TestAuditAppend(t *testing.T) {
	repos := testRepos(t)
	ctx := context.Background()

	err := repos.Audit.Append(ctx, &domain.AuditEntry{
		DiscordUserID: 42,
		AccountID:     7,
		Action:        domain.ActionCommand,
		Category:      "ticket",
		Status:        domain.StatusOK,
		Detail:        "Command queued",
		Payload:       ".ticket list",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
}
