package config

import (
	"os"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("TG_BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_ID", "42")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Admin.ID != 42 {
		t.Fatalf("Admin.ID = %d", cfg.Admin.ID)
	}
	if cfg.Store.Driver != "postgres" {
		t.Fatalf("Store.Driver = %q", cfg.Store.Driver)
	}
	if cfg.Broadcast.Workers != 8 || cfg.Broadcast.SendTimeout != 10*time.Second {
		t.Fatalf("unexpected broadcast defaults: %+v", cfg.Broadcast)
	}
	if cfg.Membership.CacheTTL != 0 || cfg.Membership.Timeout != 5*time.Second {
		t.Fatalf("unexpected membership defaults: %+v", cfg.Membership)
	}
	if cfg.Content.TopLimit != 10 || cfg.Content.FlushInterval != 5*time.Second {
		t.Fatalf("unexpected content defaults: %+v", cfg.Content)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("TG_BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_ID", "42")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("BROADCAST_WORKERS", "3")
	t.Setenv("MEMBERSHIP_CACHE_TTL", "30s")
	t.Setenv("CONTENT_CHANNEL_ID", "-1001234567890")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Broadcast.Workers != 3 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Membership.CacheTTL != 30*time.Second {
		t.Fatalf("CacheTTL = %v", cfg.Membership.CacheTTL)
	}
	if cfg.Content.ChannelID != -1001234567890 {
		t.Fatalf("ChannelID = %d", cfg.Content.ChannelID)
	}
}

func TestParseRequiresToken(t *testing.T) {
	t.Setenv("TG_BOT_TOKEN", "")
	os.Unsetenv("TG_BOT_TOKEN")
	t.Setenv("ADMIN_ID", "42")
	if _, err := Parse(); err == nil {
		t.Fatal("expected error without token")
	}
}
