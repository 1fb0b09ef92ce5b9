package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_PATH", "STATE_TTL", "OPENAI_API_KEY", "OPENAI_ASSISTANT_ID", "DRAFT_JSON_MODE", "RATE_LIMIT_REQUESTS"} {
		t.Setenv(k, "")
	}
	t.Setenv("PORT", "8080")
	t.Setenv("DB_PATH", "./data/lawmate.db")
	t.Setenv("STATE_TTL", "720h")
	t.Setenv("RATE_LIMIT_REQUESTS", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StateTTL != 720*time.Hour {
		t.Fatalf("StateTTL = %v", cfg.StateTTL)
	}
	if cfg.Assistant.APIKey != "" || cfg.Assistant.AssistantID != "" {
		t.Fatalf("assistant credentials should be empty: %+v", cfg.Assistant)
	}
	if cfg.Assistant.DraftJSONMode {
		t.Fatal("DraftJSONMode should default to false")
	}
}

func TestLoadRejectsEmptyPort(t *testing.T) {
	t.Setenv("PORT", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for empty PORT")
	}
}

func TestEnvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_INT", "ten")
	t.Setenv("X_DUR", "soon")

	if !getEnvBool("X_BOOL", true) {
		t.Error("getEnvBool should fall back")
	}
	if getEnvInt("X_INT", 7) != 7 {
		t.Error("getEnvInt should fall back")
	}
	if getEnvDuration("X_DUR", time.Second) != time.Second {
		t.Error("getEnvDuration should fall back")
	}
}

func TestAllowedOrigins(t *testing.T) {
	c := &Config{FrontendURL: "https://lawmate.example/"}
	got := c.AllowedOrigins()
	if len(got) != 1 || got[0] != "https://lawmate.example" {
		t.Fatalf("AllowedOrigins = %v", got)
	}
	if o := (&Config{}).AllowedOrigins(); len(o) != 1 || o[0] != "*" {
		t.Fatalf("default origins = %v", o)
	}
}
