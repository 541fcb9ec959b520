package domain

import "time"

// Outbound domain event types.
const (
	EventTicketCreate  = "ticket_create"
	EventTicketUpdate  = "ticket_update"
	EventTicketClose   = "ticket_close"
	EventTicketStatus  = "ticket_status"
	EventTicketResolve = "ticket_resolve"
	EventCommandResult = "command_result"
	EventPlayerWhisper = "player_whisper"
	EventGMWhisper     = "gm_whisper"
)

// OutboxItem is one outbound domain event waiting for dispatch to Discord.
// Dispatched is monotonic: it flips to true exactly once.
type OutboxItem struct {
	ID           int64
	EventType    string
	Payload      string
	CreatedAt    time.Time
	Dispatched   bool
	DispatchedAt time.Time
}

// IsTicketEvent reports whether the event carries a ticket block.
func (o *OutboxItem) IsTicketEvent() bool {
	return len(o.EventType) > 7 && o.EventType[:7] == "ticket_"
}

// IsWhisperEvent reports whether the event carries a whisper block.
func (o *OutboxItem) IsWhisperEvent() bool {
	return o.EventType == EventPlayerWhisper || o.EventType == EventGMWhisper
}
