// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrMissing is returned by Validate when a required setting is empty.
var ErrMissing = errors.New("missing required configuration")

// Config holds every setting the bot reads at startup.
type Config struct {
	TelegramToken string `env:"TELEGRAM_TOKEN"`
	// TelegramAPIEndpoint is a Bot API URL template; empty means the public API.
	TelegramAPIEndpoint string `env:"TELEGRAM_API_ENDPOINT"`

	OracleProvider string `env:"ORACLE_PROVIDER" envDefault:"gemini"`
	OracleModel    string `env:"ORACLE_MODEL"`
	OracleBaseURL  string `env:"ORACLE_BASE_URL"`
	GeminiAPIKey   string `env:"GEMINI_API_KEY"`
	OpenAIAPIKey   string `env:"OPENAI_API_KEY"`

	LedgerBackend   string `env:"LEDGER_BACKEND" envDefault:"sheets"`
	CredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE" envDefault:"service_account.json"`
	CredentialsJSON string `env:"GOOGLE_CREDENTIALS_JSON"`
	SpreadsheetID   string `env:"SPREADSHEET_ID" envDefault:"1l0RayNrG0ogeIq3_1iOMxyMx-1ArjXu6mip6GRXG1Q4"`
	WorksheetName   string `env:"WORKSHEET_NAME"`

	NotionToken      string `env:"NOTION_TOKEN"`
	NotionDatabaseID string `env:"NOTION_DATABASE_ID"`

	ArchiveBucket  string `env:"ARCHIVE_BUCKET"`
	ArchiveProject string `env:"ARCHIVE_PROJECT"`
	ArchiveDataset string `env:"ARCHIVE_DATASET" envDefault:"expenses"`
	ArchiveTable   string `env:"ARCHIVE_TABLE" envDefault:"extractions"`

	Timezone  string `env:"TIMEZONE" envDefault:"Local"`
	Port      string `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// OTLP/HTTP collector URL; tracing is off when empty.
	OTelEndpoint    string `env:"OTEL_ENDPOINT"`
	OTelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"expensebot"`
}

// Load reads the given .env files (".env" when none are named) into the
// process environment, then parses the environment. Missing files are
// ignored; variables already set are not overridden.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("config.Load: load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse env: %w", err)
	}
	return &cfg, nil
}

// FromMap parses configuration from an explicit environment.
func FromMap(environment map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("config.FromMap: parse env: %w", err)
	}
	return &cfg, nil
}

// Validate checks that everything needed to serve requests is present.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("%w: TELEGRAM_TOKEN", ErrMissing)
	}
	if err := c.ValidateOracle(); err != nil {
		return err
	}
	if err := c.ValidateLedger(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// ValidateOracle checks the oracle provider and its API key.
func (c *Config) ValidateOracle() error {
	switch c.OracleProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissing)
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY", ErrMissing)
		}
	default:
		return fmt.Errorf("config: unknown ORACLE_PROVIDER %q", c.OracleProvider)
	}
	return nil
}

// ValidateLedger checks the ledger backend settings.
func (c *Config) ValidateLedger() error {
	switch c.LedgerBackend {
	case "sheets":
		if c.SpreadsheetID == "" {
			return fmt.Errorf("%w: SPREADSHEET_ID", ErrMissing)
		}
	case "notion":
		if c.NotionToken == "" {
			return fmt.Errorf("%w: NOTION_TOKEN", ErrMissing)
		}
		if c.NotionDatabaseID == "" {
			return fmt.Errorf("%w: NOTION_DATABASE_ID", ErrMissing)
		}
	default:
		return fmt.Errorf("config: unknown LEDGER_BACKEND %q", c.LedgerBackend)
	}
	return nil
}

// Location resolves TIMEZONE. "Local" and "" mean the process zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ArchiveToBigQuery reports whether the BigQuery archive is configured.
func (c *Config) ArchiveToBigQuery() bool {
	return c.ArchiveProject != ""
}

// ArchiveToGCS reports whether the GCS archive is configured.
func (c *Config) ArchiveToGCS() bool {
	return c.ArchiveBucket != ""
}
