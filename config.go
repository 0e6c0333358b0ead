package fluxdesk

import (
	"os"
	"strconv"
	"time"
)

// Config holds process-wide configuration for the FluxDesk server and the
// triage pipeline.
type Config struct {
	// HTTPAddr is the listen address for the REST API.
	HTTPAddr string

	// MongoURI is the MongoDB connection string. Empty selects the
	// in-memory store (development mode).
	MongoURI string

	// MongoDatabase is the database name used by the mongo store.
	MongoDatabase string

	// JWTSecret signs session tokens.
	JWTSecret string

	// TokenTTL is the session token lifetime.
	TokenTTL time.Duration

	// MaxRetries is the number of re-deliveries after a failed run attempt.
	// The default of 2 means up to 3 attempts in total.
	MaxRetries int

	// StepTimeout bounds each external call made inside a workflow step.
	StepTimeout time.Duration

	// RunRetention is how long terminal workflow runs (and their step
	// ledgers) are kept for inspection before the janitor purges them.
	RunRetention time.Duration

	// JanitorInterval is how often the retention purge runs.
	JanitorInterval time.Duration

	// SMTP settings for the outbound mailer. An empty host disables
	// real delivery (a logging mailer is used instead).
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	// OpenAIKey authenticates the analysis client. Empty disables
	// analysis (triage degrades to defaults).
	OpenAIKey   string
	OpenAIModel string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:        ":3000",
		MongoDatabase:   "fluxdesk",
		TokenTTL:        24 * time.Hour,
		MaxRetries:      2,
		StepTimeout:     30 * time.Second,
		RunRetention:    24 * time.Hour,
		JanitorInterval: time.Hour,
		SMTPPort:        587,
		MailFrom:        "FluxDesk <no-reply@fluxdesk.io>",
		OpenAIModel:     "gpt-4o-mini",
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for anything unset. Call godotenv.Load first if a .env file
// should be honored.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("FLUXDESK_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("MONGO_DB_URI"); v != "" {
		cfg.MongoURI = v
	}
	if v := os.Getenv("MONGO_DB_NAME"); v != "" {
		cfg.MongoDatabase = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("FLUXDESK_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}
	if v := os.Getenv("FLUXDESK_STEP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.StepTimeout = d
		}
	}
	if v := os.Getenv("FLUXDESK_RUN_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RunRetention = d
		}
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SMTPPort = n
		}
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		cfg.SMTPUser = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTPPass = v
	}
	if v := os.Getenv("MAIL_FROM"); v != "" {
		cfg.MailFrom = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAIModel = v
	}

	return cfg
}
