package domain

// SecurityLevel is the game account security tier used for authorization.
type SecurityLevel uint8

const (
	SecurityPlayer        SecurityLevel = 0
	SecurityModerator     SecurityLevel = 1
	SecurityGameMaster    SecurityLevel = 2
	SecurityAdministrator SecurityLevel = 3
)

// String returns the level name used in log and audit lines.
func (s SecurityLevel) String() string {
	switch s {
	case SecurityPlayer:
		return "player"
	case SecurityModerator:
		return "moderator"
	case SecurityGameMaster:
		return "gamemaster"
	case SecurityAdministrator:
		return "administrator"
	default:
		return "unknown"
	}
}
