// File: internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendFirestore = "firestore"
	BackendSQLite    = "sqlite"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	ServerPort  string `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecretKey string `env:"JWT_SECRET_KEY"`

	// Conversation storage
	StoreBackend             string `env:"STORE_BACKEND" envDefault:"sqlite"`
	FirestoreProjectID       string `env:"FIRESTORE_PROJECT_ID"`
	FirestoreCredentialsFile string `env:"FIRESTORE_CREDENTIALS_FILE"`
	SQLitePath               string `env:"SQLITE_PATH" envDefault:"sage.db"`

	// Generation
	AIProvider    string `env:"AI_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	DefaultModel  string `env:"DEFAULT_MODEL" envDefault:"gemini-2.5-flash"`

	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`

	// HTTP edge
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
	TrustedProxies     []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

// Load reads configuration from environment variables, and from .env outside
// production. Production configs are validated.
func Load() (*Config, error) {
	if !strings.EqualFold(os.Getenv("ENV"), "production") {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(cfg.StoreBackend)
	cfg.AIProvider = strings.ToLower(cfg.AIProvider)

	if cfg.IsProduction() {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	missing := []string{}
	if c.JWTSecretKey == "" {
		missing = append(missing, "JWT_SECRET_KEY")
	}

	switch c.AIProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.AIProvider)
	}

	switch c.StoreBackend {
	case BackendFirestore:
		if c.FirestoreProjectID == "" {
			missing = append(missing, "FIRESTORE_PROJECT_ID")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			missing = append(missing, "SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}

	for _, origin := range c.CORSAllowedOrigins {
		if strings.TrimSpace(origin) == "*" {
			return fmt.Errorf("CORS_ALLOWED_ORIGINS cannot contain * because credentials are allowed")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	return nil
}
