package domain

import "time"

// AuditEntry records the disposition of one inbound action. Append-only.
type AuditEntry struct {
	ID            int64
	DiscordUserID uint64
	AccountID     uint32
	Action        string
	Category      string
	Status        string
	Detail        string
	Payload       string // size-capped copy of the original payload
	CreatedAt     time.Time
}
