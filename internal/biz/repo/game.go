package repo

import "github.com/azerothguard/gm-discord-bridge/internal/biz/domain"

// OnlinePlayer identifies a player currently in the world.
type OnlinePlayer struct {
	GUID uint64
	Name string
}

// CommandExecutor runs a privileged GM command inside the game server.
// Execution is asynchronous: print is invoked for each chunk of command
// output, done exactly once when the command finishes.
type CommandExecutor interface {
	Execute(command string, print func(text string), done func(success bool))
}

// PlayerResolver resolves online players by name.
type PlayerResolver interface {
	FindOnlineByName(name string) (*OnlinePlayer, bool)
}

// WhisperSender delivers a whisper to an online player attributed to the
// given GM name.
type WhisperSender interface {
	SendWhisper(playerGUID uint64, gmName, message string) error
}

// TicketAccessor exposes the game server's ticket subsystem.
type TicketAccessor interface {
	// TicketByID returns a snapshot, or nil when the ticket is unknown.
	TicketByID(id uint32) *domain.Ticket

	// OpenTicketByPlayer returns the player's open ticket, or nil.
	OpenTicketByPlayer(playerGUID uint64) *domain.Ticket
}

// AccountDirectory resolves the security level of a game account.
type AccountDirectory interface {
	Security(accountID uint32) domain.SecurityLevel
}
