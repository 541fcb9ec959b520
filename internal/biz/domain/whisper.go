package domain

import "time"

// WhisperSession tracks an active relay conversation with a player.
// At most one session exists per player; reuse overwrites it.
type WhisperSession struct {
	PlayerGUID    uint64
	DiscordUserID uint64
	GMName        string
	UpdatedAt     time.Time
}
