package data

import (
	"database/sql"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/repo"
)

// Repositories contains all persistence repositories sharing one database.
type Repositories struct {
	Link           repo.LinkRepo
	Inbox          repo.InboxRepo
	Outbox         repo.OutboxRepo
	WhisperSession repo.WhisperSessionRepo
	TicketRoom     repo.TicketRoomRepo
	Audit          repo.AuditRepo

	db *sql.DB
}

// NewRepositories opens the bridge database and creates all repositories.
func NewRepositories(dbPath string) (*Repositories, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Link:           NewLinkRepo(db),
		Inbox:          NewInboxRepo(db),
		Outbox:         NewOutboxRepo(db),
		WhisperSession: NewWhisperSessionRepo(db),
		TicketRoom:     NewTicketRoomRepo(db),
		Audit:          NewAuditRepo(db),
		db:             db,
	}, nil
}

// Close closes the underlying database.
func (r *Repositories) Close() error {
	return r.db.Close()
}
