package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "test")
	for _, key := range []string{"SERVER_PORT", "STORE_BACKEND", "AI_PROVIDER", "DEFAULT_MODEL", "SESSION_IDLE_TIMEOUT", "SQLITE_PATH", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("port = %q", cfg.ServerPort)
	}
	if cfg.StoreBackend != BackendSQLite || cfg.SQLitePath != "sage.db" {
		t.Errorf("store = %q at %q", cfg.StoreBackend, cfg.SQLitePath)
	}
	if cfg.AIProvider != "gemini" || cfg.DefaultModel != "gemini-2.5-flash" {
		t.Errorf("provider = %q, model = %q", cfg.AIProvider, cfg.DefaultModel)
	}
	if cfg.SessionIdleTimeout != 30*time.Minute {
		t.Errorf("idle timeout = %v", cfg.SessionIdleTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("cors origins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("STORE_BACKEND", "Firestore")
	t.Setenv("AI_PROVIDER", "OPENAI")
	t.Setenv("SESSION_IDLE_TIMEOUT", "5m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://sage.example.com")
	t.Setenv("TRUSTED_PROXIES", "127.0.0.1,10.0.0.0/8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreBackend != BackendFirestore || cfg.AIProvider != "openai" {
		t.Errorf("backend = %q, provider = %q", cfg.StoreBackend, cfg.AIProvider)
	}
	if cfg.SessionIdleTimeout != 5*time.Minute {
		t.Errorf("idle timeout = %v", cfg.SessionIdleTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "https://sage.example.com" {
		t.Errorf("cors origins = %v", cfg.CORSAllowedOrigins)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[1] != "10.0.0.0/8" {
		t.Errorf("trusted proxies = %v", cfg.TrustedProxies)
	}
}

func TestLoadProductionValidates(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("AI_PROVIDER", "gemini")
	t.Setenv("STORE_BACKEND", "sqlite")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, key := range []string{"JWT_SECRET_KEY", "GEMINI_API_KEY"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not name %s", err, key)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			JWTSecretKey:       "secret",
			StoreBackend:       BackendFirestore,
			FirestoreProjectID: "sage",
			AIProvider:         "openai",
			OpenAIAPIKey:       "sk-test",
			SessionIdleTimeout: time.Minute,
		}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg := valid()
	cfg.FirestoreProjectID = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "FIRESTORE_PROJECT_ID") {
		t.Errorf("missing project id: err = %v", err)
	}

	cfg = valid()
	cfg.StoreBackend = "mongo"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown backend accepted")
	}

	cfg = valid()
	cfg.AIProvider = "anthropic"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown provider accepted")
	}

	cfg = valid()
	cfg.CORSAllowedOrigins = []string{"https://sage.example.com", "*"}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "CORS_ALLOWED_ORIGINS") {
		t.Errorf("wildcard origin: err = %v", err)
	}
}
