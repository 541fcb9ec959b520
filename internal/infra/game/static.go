package game

import (
	"strconv"
	"strings"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
	"github.com/azerothguard/gm-discord-bridge/internal/biz/repo"
)

// StaticAccountDirectory resolves security levels from a fixed table.
// The standalone binary cannot query the auth database, so operators
// list GM accounts in config; unknown accounts get the default level.
type StaticAccountDirectory struct {
	levels map[uint32]domain.SecurityLevel
	def    domain.SecurityLevel
}

// NewStaticAccountDirectory creates a directory over a fixed table.
func NewStaticAccountDirectory(levels map[uint32]domain.SecurityLevel, def domain.SecurityLevel) *StaticAccountDirectory {
	if levels == nil {
		levels = make(map[uint32]domain.SecurityLevel)
	}
	return &StaticAccountDirectory{levels: levels, def: def}
}

// Security returns the configured level for an account.
func (d *StaticAccountDirectory) Security(accountID uint32) domain.SecurityLevel {
	if level, ok := d.levels[accountID]; ok {
		return level
	}
	return d.def
}

// ParseAccountLevels parses "accountId:level;accountId:level" tables.
func ParseAccountLevels(value string) map[uint32]domain.SecurityLevel {
	out := make(map[uint32]domain.SecurityLevel)
	for _, entry := range strings.Split(value, ";") {
		sep := strings.IndexByte(entry, ':')
		if sep < 0 {
			continue
		}
		idStr := strings.TrimSpace(entry[:sep])
		levelStr := strings.TrimSpace(entry[sep+1:])
		if idStr == "" || levelStr == "" {
			continue
		}
		id64, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil || id64 == 0 {
			continue
		}
		id := uint32(id64)
		switch strings.ToLower(levelStr) {
		case "player", "0":
			out[id] = domain.SecurityPlayer
		case "moderator", "1":
			out[id] = domain.SecurityModerator
		case "gamemaster", "gm", "2":
			out[id] = domain.SecurityGameMaster
		case "administrator", "admin", "3":
			out[id] = domain.SecurityAdministrator
		}
	}
	return out
}

// OfflineWorld is the degraded world adapter used by the standalone
// binary: the SOAP console can run commands, but there is no API for
// presence, whispers or ticket snapshots. Whisper relay and thread
// replies report offline/unavailable until the bridge is embedded in
// the game server process, which supplies real implementations.
type OfflineWorld struct{}

// FindOnlineByName always reports the player offline.
func (OfflineWorld) FindOnlineByName(name string) (*repo.OnlinePlayer, bool) {
	return nil, false
}

// SendWhisper always fails; there is no delivery path.
func (OfflineWorld) SendWhisper(playerGUID uint64, gmName, message string) error {
	return errWorldUnavailable
}

// TicketByID always returns no snapshot.
func (OfflineWorld) TicketByID(id uint32) *domain.Ticket { return nil }

// OpenTicketByPlayer always returns no snapshot.
func (OfflineWorld) OpenTicketByPlayer(playerGUID uint64) *domain.Ticket { return nil }

type worldUnavailableError struct{}

func (worldUnavailableError) Error() string {
	return "world access unavailable in standalone mode"
}

var errWorldUnavailable = worldUnavailableError{}
