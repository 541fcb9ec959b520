package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
	"github.com/azerothguard/gm-discord-bridge/internal/biz/usecase"
)

// Config represents application configuration.
type Config struct {
	// Master switch for the whole bridge
	Enabled bool

	// Discord gateway configuration
	Discord DiscordConfig

	// Bridge database path
	DBPath string

	// Inbound queue processing
	Inbox InboxConfig

	// Outbound queue dispatch
	Outbox OutboxConfig

	// Authorization policy
	Security SecurityConfig

	// Per-user throttle
	RateLimit RateLimitConfig

	// Ticket room automation
	TicketRooms TicketRoomConfig

	// Game server remote console (standalone mode)
	Game GameConfig

	// Debug mode
	Debug bool
}

// GameConfig contains the remote console settings used when the bridge
// runs as a standalone binary next to the game server.
type GameConfig struct {
	SoapURL      string
	SoapUser     string
	SoapPassword string

	// "accountId:level;accountId:level" security table for linked accounts.
	AccountLevels   string
	DefaultSecurity domain.SecurityLevel
}

// DiscordConfig contains gateway credentials and channel routing.
type DiscordConfig struct {
	Token           string
	AppID           uint64
	GuildID         uint64
	OutboxChannelID uint64
}

// InboxConfig contains inbound processing configuration.
type InboxConfig struct {
	PollInterval    time.Duration
	MaxBatchSize    int
	MaxResultLength int
	AuditPayloadMax int
	WhisperEnabled  bool
}

// OutboxConfig contains outbound dispatch configuration.
type OutboxConfig struct {
	Enabled      bool
	PollInterval time.Duration
	MaxBatchSize int
}

// SecurityConfig contains the command authorization policy.
type SecurityConfig struct {
	AllowAllCommands    bool
	CommandAllowList    []string
	MinSecurity         domain.SecurityLevel
	CategoryMinSecurity map[string]domain.SecurityLevel
	SecretTTL           time.Duration

	// Discord role id -> set of allowed categories. Empty means open.
	RoleMappings map[uint64]map[string]bool
}

// RateLimitConfig contains the per-user throttle configuration.
type RateLimitConfig struct {
	Enabled       bool
	WindowSeconds int
	MaxActions    int
	MinIntervalMs int
}

// TicketRoomConfig contains per-ticket channel automation settings.
type TicketRoomConfig struct {
	Enabled           bool
	CategoryID        uint64
	ArchiveCategoryID uint64
	NameFormat        string
	PostUpdates       bool
	ArchiveOnClose    bool
	AllowedRoles      []uint64
}

// defaultCategoryMinSecurity mirrors the category table shipped with the
// game server module.
func defaultCategoryMinSecurity() map[string]domain.SecurityLevel {
	return map[string]domain.SecurityLevel{
		"ticket":    domain.SecurityGameMaster,
		"tele":      domain.SecurityGameMaster,
		"gm":        domain.SecurityGameMaster,
		"ban":       domain.SecurityAdministrator,
		"account":   domain.SecurityAdministrator,
		"character": domain.SecurityGameMaster,
		"lookup":    domain.SecurityModerator,
		"server":    domain.SecurityAdministrator,
		"debug":     domain.SecurityAdministrator,
		"whisper":   domain.SecurityGameMaster,
		"misc":      domain.SecurityGameMaster,
	}
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	dbPath := os.Getenv("BRIDGE_DB_PATH")
	if dbPath == "" {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".gm-discord-bridge", "bridge.db")
	}

	categoryMin := defaultCategoryMinSecurity()
	for cat, level := range parseCategoryLevels(os.Getenv("CATEGORY_MIN_SECURITY")) {
		categoryMin[cat] = level
	}

	return &Config{
		Enabled: envBool("BRIDGE_ENABLE", true),
		Discord: DiscordConfig{
			Token:           os.Getenv("DISCORD_BOT_TOKEN"),
			AppID:           envUint64("DISCORD_APP_ID", 0),
			GuildID:         envUint64("DISCORD_GUILD_ID", 0),
			OutboxChannelID: envUint64("OUTBOX_CHANNEL_ID", 0),
		},
		DBPath: dbPath,
		Inbox: InboxConfig{
			PollInterval:    time.Duration(envInt("POLL_INTERVAL_MS", 1000)) * time.Millisecond,
			MaxBatchSize:    envInt("MAX_BATCH_SIZE", 25),
			MaxResultLength: envInt("MAX_RESULT_LENGTH", 4000),
			AuditPayloadMax: envInt("AUDIT_PAYLOAD_MAX", 1024),
			WhisperEnabled:  envBool("WHISPER_ENABLE", true),
		},
		Outbox: OutboxConfig{
			Enabled:      envBool("OUTBOX_ENABLE", true),
			PollInterval: time.Duration(envInt("OUTBOX_POLL_INTERVAL_MS", 5000)) * time.Millisecond,
			MaxBatchSize: envInt("OUTBOX_MAX_BATCH_SIZE", 10),
		},
		Security: SecurityConfig{
			AllowAllCommands:    envBool("COMMAND_ALLOW_ALL", false),
			CommandAllowList:    parseAllowList(envStr("COMMAND_ALLOW_LIST", ".ticket;.gm")),
			MinSecurity:         parseSecurityLevel(envStr("MIN_SECURITY_LEVEL", "gamemaster"), domain.SecurityGameMaster),
			CategoryMinSecurity: categoryMin,
			SecretTTL:           time.Duration(envInt("SECRET_TTL_SECONDS", 900)) * time.Second,
			RoleMappings:        parseRoleMappings(os.Getenv("ROLE_MAPPINGS")),
		},
		RateLimit: RateLimitConfig{
			Enabled:       envBool("RATE_LIMIT_ENABLE", true),
			WindowSeconds: envInt("RATE_LIMIT_WINDOW_SECONDS", 10),
			MaxActions:    envInt("RATE_LIMIT_MAX_ACTIONS", 5),
			MinIntervalMs: envInt("RATE_LIMIT_MIN_INTERVAL_MS", 500),
		},
		TicketRooms: TicketRoomConfig{
			Enabled:           envBool("TICKET_ROOMS_ENABLE", false),
			CategoryID:        envUint64("TICKET_ROOM_CATEGORY_ID", 0),
			ArchiveCategoryID: envUint64("TICKET_ROOM_ARCHIVE_CATEGORY_ID", 0),
			NameFormat:        envStr("TICKET_ROOM_NAME_FORMAT", "ticket-{id}-{player}"),
			PostUpdates:       envBool("TICKET_ROOM_POST_UPDATES", true),
			ArchiveOnClose:    envBool("TICKET_ROOM_ARCHIVE_ON_CLOSE", true),
			AllowedRoles:      parseRoleList(os.Getenv("TICKET_ROOM_ALLOWED_ROLES")),
		},
		Game: GameConfig{
			SoapURL:         envStr("GAME_SOAP_URL", "http://127.0.0.1:7878/"),
			SoapUser:        os.Getenv("GAME_SOAP_USER"),
			SoapPassword:    os.Getenv("GAME_SOAP_PASSWORD"),
			AccountLevels:   os.Getenv("ACCOUNT_SECURITY_LEVELS"),
			DefaultSecurity: parseSecurityLevel(envStr("DEFAULT_SECURITY_LEVEL", "player"), domain.SecurityPlayer),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}
}

// ToPermissionConfig converts the security policy for the inbox processor.
func (c *Config) ToPermissionConfig() *usecase.PermissionConfig {
	return &usecase.PermissionConfig{
		AllowAll:            c.Security.AllowAllCommands,
		AllowList:           c.Security.CommandAllowList,
		MinSecurity:         c.Security.MinSecurity,
		CategoryMinSecurity: c.Security.CategoryMinSecurity,
	}
}

// ToRateLimitConfig converts the throttle settings.
func (c *Config) ToRateLimitConfig() usecase.RateLimitConfig {
	return usecase.RateLimitConfig{
		Enabled:     c.RateLimit.Enabled,
		Window:      time.Duration(c.RateLimit.WindowSeconds) * time.Second,
		MaxActions:  c.RateLimit.MaxActions,
		MinInterval: time.Duration(c.RateLimit.MinIntervalMs) * time.Millisecond,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Discord.Token == "" || c.Discord.AppID == 0 {
		return &ConfigError{Field: "DISCORD_BOT_TOKEN/DISCORD_APP_ID", Message: "required"}
	}
	return nil
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

func envStr(name, def string) string {
	if val := os.Getenv(name); val != "" {
		return val
	}
	return def
}

func envInt(name string, def int) int {
	if val := os.Getenv(name); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func envUint64(name string, def uint64) uint64 {
	if val := os.Getenv(name); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 64); err == nil {
			return parsed
		}
	}
	return def
}

func envBool(name string, def bool) bool {
	if val := os.Getenv(name); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return def
}

// parseAllowList splits ".ticket;.gm" style lists on ';' and ','.
func parseAllowList(value string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ';' || r == ',' }) {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseRoleList splits a comma-separated list of role ids.
func parseRoleList(value string) []uint64 {
	var out []uint64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseUint(part, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// parseRoleMappings parses "roleId:cat1,cat2;roleId:cat3" mappings.
func parseRoleMappings(value string) map[uint64]map[string]bool {
	out := make(map[uint64]map[string]bool)
	for _, entry := range strings.Split(value, ";") {
		sep := strings.IndexByte(entry, ':')
		if sep < 0 {
			continue
		}
		roleStr := strings.TrimSpace(entry[:sep])
		catsStr := strings.TrimSpace(entry[sep+1:])
		if roleStr == "" || catsStr == "" {
			continue
		}
		roleID, err := strconv.ParseUint(roleStr, 10, 64)
		if err != nil {
			continue
		}
		cats := out[roleID]
		if cats == nil {
			cats = make(map[string]bool)
			out[roleID] = cats
		}
		for _, cat := range strings.Split(catsStr, ",") {
			cat = strings.ToLower(strings.TrimSpace(cat))
			if cat != "" {
				cats[cat] = true
			}
		}
	}
	return out
}

// parseCategoryLevels parses "ban:administrator,lookup:1" overrides.
func parseCategoryLevels(value string) map[string]domain.SecurityLevel {
	out := make(map[string]domain.SecurityLevel)
	for _, entry := range strings.Split(value, ",") {
		sep := strings.IndexByte(entry, ':')
		if sep < 0 {
			continue
		}
		cat := strings.ToLower(strings.TrimSpace(entry[:sep]))
		levelStr := strings.TrimSpace(entry[sep+1:])
		if cat == "" || levelStr == "" {
			continue
		}
		out[cat] = parseSecurityLevel(levelStr, domain.SecurityGameMaster)
	}
	return out
}

// parseSecurityLevel accepts a level name or its numeric value.
func parseSecurityLevel(value string, def domain.SecurityLevel) domain.SecurityLevel {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "player", "0":
		return domain.SecurityPlayer
	case "moderator", "1":
		return domain.SecurityModerator
	case "gamemaster", "gm", "2":
		return domain.SecurityGameMaster
	case "administrator", "admin", "3":
		return domain.SecurityAdministrator
	default:
		return def
	}
}
