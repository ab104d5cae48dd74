package config

import (
	"testing"
	"time"
)

func TestLoadNotifyConfigDefaults(t *testing.T) {
	t.Setenv("NOTIFY_RATE_PER_SECOND", "bogus")
	t.Setenv("NOTIFY_CHANNELS", " sms , ,email")
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	cfg := LoadNotifyConfig()
	if cfg.RatePerSecond != 5 {
		t.Fatalf("rate = %v, want 5", cfg.RatePerSecond)
	}
	if len(cfg.Channels) != 2 || cfg.Channels[0] != "sms" || cfg.Channels[1] != "email" {
		t.Fatalf("channels = %q", cfg.Channels)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("timeout = %v", cfg.HTTPTimeout)
	}
}

func TestRateLimitNormalize(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Fatalf("capacity = %d", cfg.Capacity)
	}
	if cfg.TTL != 10*time.Second {
		t.Fatalf("ttl = %v, want 10s", cfg.TTL)
	}
}

func TestCacheMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] || cfg.Methods["POST"] {
		t.Fatalf("methods = %v", cfg.Methods)
	}
}
