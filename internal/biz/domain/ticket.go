package domain

// Ticket status strings carried on the wire.
const (
	TicketOpen      = "open"
	TicketClosed    = "closed"
	TicketCompleted = "completed"
)

// Location is the in-world position a ticket was opened at.
type Location struct {
	MapID uint32
	X     float32
	Y     float32
	Z     float32
}

// Ticket is a snapshot of a GM ticket as exposed by the game server's
// ticket subsystem. The bridge never mutates tickets directly; it only
// reads snapshots and routes assignment through the command executor.
type Ticket struct {
	ID               uint32
	PlayerName       string
	PlayerGUID       uint64
	Message          string
	Comment          string
	Response         string
	AssignedToName   string
	AssignedToGUID   uint64
	Status           string // open, closed, completed
	EscalationStatus uint32
	Viewed           bool
	NeedResponse     bool
	NeedMoreHelp     bool
	CreateTime       int64
	LastModified     int64
	ClosedByGUID     uint64
	ResolvedByGUID   uint64
	Location         Location
}

// IsClosed reports whether the ticket no longer accepts replies.
func (t *Ticket) IsClosed() bool {
	return t.Status == TicketClosed
}
