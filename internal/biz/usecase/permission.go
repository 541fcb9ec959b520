package usecase

import (
	"fmt"
	"strings"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
)

// PermissionConfig holds the resolved authorization policy for inbound
// commands. All methods are pure; the struct is built once from config.
type PermissionConfig struct {
	AllowAll            bool
	AllowList           []string // lowercased command prefixes
	MinSecurity         domain.SecurityLevel
	CategoryMinSecurity map[string]domain.SecurityLevel
}

// CommandRoot strips a leading prefix character and returns the first
// whitespace-delimited token, lowercased.
func CommandRoot(command string) string {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '.' || trimmed[0] == '!' {
		trimmed = strings.TrimSpace(trimmed[1:])
	}
	if trimmed == "" {
		return ""
	}
	if idx := strings.IndexByte(trimmed, ' '); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.ToLower(trimmed)
}

// CommandCategory maps a command root token to its permission category.
func CommandCategory(root string) string {
	switch strings.ToLower(root) {
	case "ticket", "tickets":
		return "ticket"
	case "tele", "teleport", "go":
		return "tele"
	case "gm", "gminfo", "gmname":
		return "gm"
	case "ban", "unban":
		return "ban"
	case "account", "acc":
		return "account"
	case "character", "char":
		return "character"
	case "lookup", "who", "name":
		return "lookup"
	case "server", "shutdown", "restart":
		return "server"
	case "debug":
		return "debug"
	default:
		return "misc"
	}
}

// IsCommandAllowed reports whether the command passes the allow-list. The
// match is a case-insensitive prefix match, so ".ticket" admits
// ".ticket list".
func (c *PermissionConfig) IsCommandAllowed(command string) bool {
	if c.AllowAll {
		return true
	}
	trimmed := strings.ToLower(strings.TrimSpace(command))
	if trimmed == "" {
		return false
	}
	for _, prefix := range c.AllowList {
		if prefix != "" && strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// RequiredSecurity returns the security level needed for a category: the
// maximum of the global minimum and the category override.
func (c *PermissionConfig) RequiredSecurity(category string) domain.SecurityLevel {
	required := c.MinSecurity
	if min, ok := c.CategoryMinSecurity[category]; ok && min > required {
		required = min
	}
	return required
}

// CheckCommand runs the full gate for a command: allow-list, category
// resolution and security comparison. On failure it returns a short
// user-visible reason.
func (c *PermissionConfig) CheckCommand(command string, security domain.SecurityLevel) (category, reason string, ok bool) {
	if !c.IsCommandAllowed(command) {
		return "", "Command not allowed by the command allow-list", false
	}

	category = CommandCategory(CommandRoot(command))
	if security < c.RequiredSecurity(category) {
		return category, fmt.Sprintf("Account security too low for category '%s'", category), false
	}
	return category, "", true
}

// HasRoleForCategory reports whether any of the actor's roles is mapped
// to the category. An empty role map means open access.
func HasRoleForCategory(roleMap map[uint64]map[string]bool, roles []uint64, category string) bool {
	if len(roleMap) == 0 {
		return true
	}
	cat := strings.ToLower(category)
	for _, roleID := range roles {
		if cats, ok := roleMap[roleID]; ok && cats[cat] {
			return true
		}
	}
	return false
}
