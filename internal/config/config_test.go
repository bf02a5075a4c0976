package config

import (
	"log/slog"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "FRONTEND_URL", "DB_PATH", "CATALOG_PATH", "GRPC_HEALTH_ADDR", "LOG_LEVEL",
		"GEMINI_API_KEY", "API_KEY", "LLM_PROVIDER", "LLM_MODEL", "LLM_BASE_URL", "LLM_TIMEOUT",
		"CONVERSATION_LOG_ENABLED", "CONVERSATION_LOG_DIR", "CONVERSATION_LOG_QUEUE_SIZE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaultsWithoutKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("DB_PATH", "./data/c2h-ai.db")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_MODEL", "gemini-2.5-flash")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("missing key must not fail Load: %v", err)
	}
	if cfg.AIEnabled() {
		t.Fatal("expected AI to be disabled without a key")
	}
	if cfg.LLM.Timeout != 60*time.Second {
		t.Fatalf("timeout = %v", cfg.LLM.Timeout)
	}
}

func TestLoadReadsKeyFallbackAndLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DB_PATH", "/tmp/x.db")
	t.Setenv("LLM_PROVIDER", "LangChain")
	t.Setenv("LLM_MODEL", "gemini-2.5-pro")
	t.Setenv("API_KEY", " secret ")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.APIKey != "secret" || cfg.LLM.Provider != "langchain" {
		t.Fatalf("unexpected llm config %+v", cfg.LLM)
	}
	if cfg.LLM.Timeout != 5*time.Second || cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("timeout=%v level=%v", cfg.LLM.Timeout, cfg.LogLevel)
	}
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := &Config{Port: "1", DBPath: "x", LLM: LLMConfig{Provider: "claude", Model: "m"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestIsDevelopment(t *testing.T) {
	if !(&Config{}).IsDevelopment() {
		t.Fatal("empty frontend URL is development")
	}
	if (&Config{FrontendURL: "https://c2h.example"}).IsDevelopment() {
		t.Fatal("public frontend URL is not development")
	}
}
