package usecase

import (
	"testing"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
)

func TestCommandRoot(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		expected string
	}{
		{name: "dot prefix", command: ".ticket list", expected: "ticket"},
		{name: "bang prefix", command: "!gm on", expected: "gm"},
		{name: "no prefix", command: "lookup player thrall", expected: "lookup"},
		{name: "uppercase", command: ".TICKET ASSIGN", expected: "ticket"},
		{name: "extra whitespace", command: "  .ban   account x  ", expected: "ban"},
		{name: "empty", command: "", expected: ""},
		{name: "prefix only", command: ".", expected: ""},
		{name: "single token", command: ".server", expected: "server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CommandRoot(tt.command); got != tt.expected {
				t.Errorf("CommandRoot(%q) = %q, want %q", tt.command, got, tt.expected)
			}
		})
	}
}

func TestCommandCategory(t *testing.T) {
	tests := []struct {
		root     string
		expected string
	}{
		{root: "ticket", expected: "ticket"},
		{root: "tickets", expected: "ticket"},
		{root: "tele", expected: "tele"},
		{root: "go", expected: "tele"},
		{root: "gm", expected: "gm"},
		{root: "ban", expected: "ban"},
		{root: "unban", expected: "ban"},
		{root: "account", expected: "account"},
		{root: "char", expected: "character"},
		{root: "who", expected: "lookup"},
		{root: "shutdown", expected: "server"},
		{root: "debug", expected: "debug"},
		{root: "modify", expected: "misc"},
	}

	for _, tt := range tests {
		if got := CommandCategory(tt.root); got != tt.expected {
			t.Errorf("CommandCategory(%q) = %q, want %q", tt.root, got, tt.expected)
		}
	}
}

func TestIsCommandAllowed(t *testing.T) {
	cfg := &PermissionConfig{
		AllowList: []string{".ticket", ".gm"},
	}

	tests := []struct {
		name    string
		command string
		allowed bool
	}{
		{name: "exact prefix", command: ".ticket list", allowed: true},
		{name: "case insensitive", command: ".TICKET assign 5 Bob", allowed: true},
		{name: "other allowed prefix", command: ".gm on", allowed: true},
		{name: "not in list", command: ".tele orgrimmar", allowed: false},
		{name: "partial prefix is enough", command: ".ticketx", allowed: true},
		{name: "empty", command: "", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.IsCommandAllowed(tt.command); got != tt.allowed {
				t.Errorf("IsCommandAllowed(%q) = %v, want %v", tt.command, got, tt.allowed)
			}
		})
	}

	open := &PermissionConfig{AllowAll: true}
	if !open.IsCommandAllowed(".anything goes") {
		t.Error("AllowAll must admit every command")
	}
}

func TestRequiredSecurity(t *testing.T) {
	cfg := &PermissionConfig{
		MinSecurity: domain.SecurityGameMaster,
		CategoryMinSecurity: map[string]domain.SecurityLevel{
			"ban":    domain.SecurityAdministrator,
			"lookup": domain.SecurityModerator,
		},
	}

	if got := cfg.RequiredSecurity("ban"); got != domain.SecurityAdministrator {
		t.Errorf("ban = %v", got)
	}
	// Category below the global floor still requires the floor.
	if got := cfg.RequiredSecurity("lookup"); got != domain.SecurityGameMaster {
		t.Errorf("lookup = %v", got)
	}
	if got := cfg.RequiredSecurity("unknown"); got != domain.SecurityGameMaster {
		t.Errorf("unknown = %v", got)
	}
}

func TestCheckCommand(t *testing.T) {
	cfg := &PermissionConfig{
		AllowList:   []string{".ticket", ".ban"},
		MinSecurity: domain.SecurityGameMaster,
		CategoryMinSecurity: map[string]domain.SecurityLevel{
			"ticket": domain.SecurityGameMaster,
			"ban":    domain.SecurityAdministrator,
		},
	}

	category, reason, ok := cfg.CheckCommand(".ticket list", domain.SecurityGameMaster)
	if !ok || category != "ticket" || reason != "" {
		t.Errorf("ticket as gm: category=%q reason=%q ok=%v", category, reason, ok)
	}

	category, reason, ok = cfg.CheckCommand(".ban account x", domain.SecurityGameMaster)
	if ok {
		t.Error("ban as gm must be refused")
	}
	if category != "ban" {
		t.Errorf("category = %q", category)
	}
	if reason != "Account security too low for category 'ban'" {
		t.Errorf("reason = %q", reason)
	}

	_, reason, ok = cfg.CheckCommand(".tele orgrimmar", domain.SecurityAdministrator)
	if ok {
		t.Error("non-allow-listed command must be refused even for admins")
	}
	if reason != "Command not allowed by the command allow-list" {
		t.Errorf("reason = %q", reason)
	}
}

func TestHasRoleForCategory(t *testing.T) {
	roleMap := map[uint64]map[string]bool{
		100: {"ticket": true, "whisper": true},
		200: {"ban": true},
	}

	if !HasRoleForCategory(roleMap, []uint64{100}, "ticket") {
		t.Error("role 100 must grant ticket")
	}
	if !HasRoleForCategory(roleMap, []uint64{100}, "TICKET") {
		t.Error("category match must be case-insensitive")
	}
	if HasRoleForCategory(roleMap, []uint64{100}, "ban") {
		t.Error("role 100 must not grant ban")
	}
	if HasRoleForCategory(roleMap, []uint64{999}, "ticket") {
		t.Error("unmapped role must not grant anything")
	}
	if !HasRoleForCategory(nil, []uint64{999}, "ticket") {
		t.Error("empty role map means open access")
	}
}
