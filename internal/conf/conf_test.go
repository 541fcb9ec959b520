package conf

import (
	"testing"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
)

func TestParseAllowList(t *testing.T) {
	got := parseAllowList(".Ticket; .gm,.TELE")
	want := []string{".ticket", ".gm", ".tele"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := parseAllowList(""); len(got) != 0 {
		t.Errorf("empty input must yield nothing, got %v", got)
	}
}

func TestParseRoleMappings(t *testing.T) {
	m := parseRoleMappings("100:ticket,whisper;200:Ban;bogus;300:")
	if len(m) != 2 {
		t.Fatalf("mappings = %v", m)
	}
	if !m[100]["ticket"] || !m[100]["whisper"] {
		t.Errorf("role 100 = %v", m[100])
	}
	if !m[200]["ban"] {
		t.Errorf("role 200 = %v (categories must be lowercased)", m[200])
	}
}

func TestParseCategoryLevels(t *testing.T) {
	m := parseCategoryLevels("ban:administrator,lookup:1,Misc:gm")
	if m["ban"] != domain.SecurityAdministrator {
		t.Errorf("ban = %v", m["ban"])
	}
	if m["lookup"] != domain.SecurityModerator {
		t.Errorf("lookup = %v", m["lookup"])
	}
	if m["misc"] != domain.SecurityGameMaster {
		t.Errorf("misc = %v", m["misc"])
	}
}

func TestParseSecurityLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected domain.SecurityLevel
	}{
		{input: "player", expected: domain.SecurityPlayer},
		{input: "0", expected: domain.SecurityPlayer},
		{input: "Moderator", expected: domain.SecurityModerator},
		{input: "gm", expected: domain.SecurityGameMaster},
		{input: "admin", expected: domain.SecurityAdministrator},
		{input: "3", expected: domain.SecurityAdministrator},
		{input: "nonsense", expected: domain.SecurityGameMaster},
	}
	for _, tt := range tests {
		if got := parseSecurityLevel(tt.input, domain.SecurityGameMaster); got != tt.expected {
			t.Errorf("parseSecurityLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestDefaults(t *testing.T) {
	// No env set in tests; defaults must mirror the shipped module config.
	cfg := LoadFromEnv()

	if !cfg.Enabled {
		t.Error("bridge defaults to enabled")
	}
	if cfg.Inbox.PollInterval.Milliseconds() != 1000 || cfg.Inbox.MaxBatchSize != 25 {
		t.Errorf("inbox defaults: %+v", cfg.Inbox)
	}
	if cfg.Inbox.MaxResultLength != 4000 {
		t.Errorf("MaxResultLength = %d", cfg.Inbox.MaxResultLength)
	}
	if cfg.Security.SecretTTL.Seconds() != 900 {
		t.Errorf("SecretTTL = %v", cfg.Security.SecretTTL)
	}
	if cfg.Security.MinSecurity != domain.SecurityGameMaster {
		t.Errorf("MinSecurity = %v", cfg.Security.MinSecurity)
	}
	if len(cfg.Security.CommandAllowList) != 2 || cfg.Security.CommandAllowList[0] != ".ticket" {
		t.Errorf("allow list = %v", cfg.Security.CommandAllowList)
	}
	if cfg.Security.CategoryMinSecurity["ban"] != domain.SecurityAdministrator {
		t.Errorf("ban category = %v", cfg.Security.CategoryMinSecurity["ban"])
	}
	if cfg.RateLimit.WindowSeconds != 10 || cfg.RateLimit.MaxActions != 5 || cfg.RateLimit.MinIntervalMs != 500 {
		t.Errorf("rate limit defaults: %+v", cfg.RateLimit)
	}
	if cfg.Outbox.PollInterval.Milliseconds() != 5000 || cfg.Outbox.MaxBatchSize != 10 {
		t.Errorf("outbox defaults: %+v", cfg.Outbox)
	}
	if cfg.TicketRooms.Enabled {
		t.Error("ticket rooms default to disabled")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Enabled: true}
	if err := cfg.Validate(); err == nil {
		t.Error("enabled bridge without credentials must not validate")
	}

	cfg.Discord.Token = "token"
	cfg.Discord.AppID = 1
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	disabled := &Config{Enabled: false}
	if err := disabled.Validate(); err != nil {
		t.Error("disabled bridge needs no credentials")
	}
}
