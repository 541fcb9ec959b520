package domain

import "time"

// Link associates a game account with a Discord user.
// At most one verified link exists per Discord user; a pending secret is
// single-use and cleared on successful verification.
type Link struct {
	AccountID       uint32
	DiscordUserID   uint64 // 0 until linked
	Verified        bool
	SecretHash      string    // empty once verified or never issued
	SecretExpiresAt time.Time // zero when no secret is pending
	GMName          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasPendingSecret reports whether a non-expired secret is waiting for
// verification.
func (l *Link) HasPendingSecret(now time.Time) bool {
	return l.SecretHash != "" && l.SecretExpiresAt.After(now)
}
