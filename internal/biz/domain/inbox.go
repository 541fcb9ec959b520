package domain

import "time"

// Inbound action kinds enqueued from Discord.
const (
	ActionCommand      = "command"
	ActionAuth         = "auth"
	ActionWhisper      = "whisper"
	ActionTicketAssign = "ticket_assign"
)

// ProcessState tracks the lifecycle of an InboxItem.
// Transitions are pending -> processing -> done only.
type ProcessState int

const (
	StatePending    ProcessState = 0
	StateDone       ProcessState = 1
	StateProcessing ProcessState = 2
)

// Terminal outcome statuses for inbound actions.
const (
	StatusOK            = "ok"
	StatusError         = "error"
	StatusForbidden     = "forbidden"
	StatusRateLimited   = "rate_limited"
	StatusNotLinked     = "not_linked"
	StatusNotVerified   = "not_verified"
	StatusInvalid       = "invalid"
	StatusPlayerOffline = "player_offline"
	StatusDisabled      = "disabled"
)

// InboxItem is one inbound action request from Discord. Items are never
// deleted; together with the audit table they form the inbound trail.
type InboxItem struct {
	ID            int64
	DiscordUserID uint64
	Action        string
	Payload       string
	CreatedAt     time.Time
	State         ProcessState
	ProcessedAt   time.Time
	Status        string
	Result        string
}
