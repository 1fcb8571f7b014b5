// Package app wires the bot's dependencies from configuration. Every external
// client is created once here and shared by all requests.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dvloznov/expense-bot/internal/archive"
	"github.com/dvloznov/expense-bot/internal/config"
	"github.com/dvloznov/expense-bot/internal/ledger"
	"github.com/dvloznov/expense-bot/internal/llm"
	"github.com/dvloznov/expense-bot/internal/pipeline"
	"github.com/dvloznov/expense-bot/internal/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Container holds the fully wired service and the clients behind it.
type Container struct {
	Config  *config.Config
	Bot     *tgbotapi.BotAPI
	Service *pipeline.Service

	closers []io.Closer
}

// New validates cfg and builds every dependency.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}

	extractor, err := NewExtractor(ctx, cfg)
	if err != nil {
		return nil, err
	}

	led, err := NewLedger(ctx, cfg)
	if err != nil {
		return nil, err
	}

	bot, err := telegram.NewBot(cfg.TelegramToken, cfg.TelegramAPIEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}
	c.Bot = bot

	arch, closers, err := NewArchive(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, closers...)

	c.Service = pipeline.NewService(extractor, led, telegram.NewNotifier(bot), arch)

	log.Info().
		Str("oracle", extractor.OracleName()).
		Str("ledger", led.Name()).
		Str("bot", bot.Self.UserName).
		Bool("archive_gcs", cfg.ArchiveToGCS()).
		Bool("archive_bigquery", cfg.ArchiveToBigQuery()).
		Msg("Container initialized")

	return c, nil
}

// Close releases the clients that hold connections.
func (c *Container) Close() error {
	var errs []error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewExtractor builds the oracle and a normalizer whose "today" follows
// cfg.Timezone.
func NewExtractor(ctx context.Context, cfg *config.Config) (*pipeline.Extractor, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	oracle, err := llm.New(ctx, llm.Options{
		Provider:     cfg.OracleProvider,
		Model:        cfg.OracleModel,
		BaseURL:      cfg.OracleBaseURL,
		GeminiAPIKey: cfg.GeminiAPIKey,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("NewExtractor: %w", err)
	}

	now := func() time.Time { return time.Now().In(loc) }
	return pipeline.NewExtractor(oracle, pipeline.NewNormalizer(now)), nil
}

// NewLedger builds the ledger selected by cfg.LedgerBackend.
func NewLedger(ctx context.Context, cfg *config.Config) (pipeline.Ledger, error) {
	switch cfg.LedgerBackend {
	case ledger.BackendSheets:
		l, err := ledger.NewSheetsLedger(ctx, ledger.SheetsConfig{
			SpreadsheetID:   cfg.SpreadsheetID,
			Worksheet:       cfg.WorksheetName,
			CredentialsFile: cfg.CredentialsFile,
			CredentialsJSON: cfg.CredentialsJSON,
		})
		if err != nil {
			return nil, err
		}
		return l, nil
	case ledger.BackendNotion:
		l, err := ledger.NewNotionLedger(ledger.NewNotionClient(cfg.NotionToken), cfg.NotionDatabaseID)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("NewLedger: unknown backend %q", cfg.LedgerBackend)
	}
}

// NewArchive builds the configured extraction archives. It returns a nil
// archive when none is configured.
func NewArchive(ctx context.Context, cfg *config.Config) (pipeline.Archive, []io.Closer, error) {
	var (
		savers  archive.Multi
		closers []io.Closer
	)

	if cfg.ArchiveToGCS() {
		gcs, err := archive.NewGCSArchive(ctx, cfg.ArchiveBucket)
		if err != nil {
			return nil, nil, err
		}
		savers = append(savers, gcs)
		closers = append(closers, gcs)
	}

	if cfg.ArchiveToBigQuery() {
		bq, err := NewBigQueryArchive(ctx, cfg)
		if err != nil {
			for _, c := range closers {
				_ = c.Close()
			}
			return nil, nil, err
		}
		savers = append(savers, bq)
		closers = append(closers, bq)
	}

	if len(savers) == 0 {
		return nil, nil, nil
	}
	return savers, closers, nil
}

// NewBigQueryArchive builds the BigQuery archive from cfg.
func NewBigQueryArchive(ctx context.Context, cfg *config.Config) (*archive.BigQueryArchive, error) {
	if !cfg.ArchiveToBigQuery() {
		return nil, fmt.Errorf("%w: ARCHIVE_PROJECT", config.ErrMissing)
	}
	return archive.NewBigQueryArchive(ctx, cfg.ArchiveProject, cfg.ArchiveDataset, cfg.ArchiveTable)
}
