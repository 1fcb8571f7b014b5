package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/expense-bot/internal/domain"
	"github.com/dvloznov/expense-bot/internal/logger"
	"github.com/google/uuid"
)

// Extractor runs the prompt → oracle → normalizer part of the pipeline.
type Extractor struct {
	oracle     Oracle
	normalizer *Normalizer
}

// NewExtractor creates an Extractor around the given oracle.
func NewExtractor(oracle Oracle, normalizer *Normalizer) *Extractor {
	if normalizer == nil {
		normalizer = NewNormalizer(nil)
	}
	return &Extractor{
		oracle:     oracle,
		normalizer: normalizer,
	}
}

// Extract asks the oracle about text and always returns a usable record.
// Oracle failures are not retried; they surface as a fallback extraction.
func (e *Extractor) Extract(ctx context.Context, text string) Extraction {
	raw, err := e.oracle.Generate(ctx, BuildExtractionPrompt(text))
	if err == nil && strings.TrimSpace(raw) == "" {
		err = ErrEmptyResponse
	}
	return e.normalizer.Normalize(text, raw, err)
}

// OracleName returns the name of the underlying oracle.
func (e *Extractor) OracleName() string {
	return e.oracle.Name()
}

// archiveTimeout bounds the archive write that follows the ledger append.
const archiveTimeout = 10 * time.Second

// Service orchestrates one expense message end to end:
// extract, append to the ledger, archive and optionally notify the chat.
type Service struct {
	extractor *Extractor
	ledger    Ledger
	notifier  Notifier
	archive   Archive
	now       func() time.Time
}

// NewService creates a Service. archive may be nil.
func NewService(extractor *Extractor, ledger Ledger, notifier Notifier, archive Archive) *Service {
	return &Service{
		extractor: extractor,
		ledger:    ledger,
		notifier:  notifier,
		archive:   archive,
		now:       time.Now,
	}
}

// Record extracts an expense from text and appends it to the ledger on behalf
// of requester. Ledger errors are returned as-is; extraction errors never are.
func (s *Service) Record(ctx context.Context, text, requester string) (Extraction, error) {
	log := logger.FromContext(ctx)

	ex := s.extractor.Extract(ctx, text)
	if ex.Failed() {
		log.Warn().
			Str("outcome", string(ex.Outcome)).
			Str("diagnostic", ex.Diagnostic).
			Str("oracle", s.extractor.OracleName()).
			Msg("Extraction fell back to default record")
	} else {
		log.Info().
			Str("category", ex.Record.Category).
			Str("amount", ex.Record.Amount).
			Str("currency", ex.Record.Currency).
			Msg("Expense extracted")
	}

	appendErr := s.ledger.Append(ctx, ex.Record, requester)

	s.saveToArchive(ctx, ex, text, requester)

	if appendErr != nil {
		return ex, fmt.Errorf("Record: append to %s ledger: %w", s.ledger.Name(), appendErr)
	}

	log.Info().
		Str("ledger", s.ledger.Name()).
		Str("requester", requester).
		Msg("Expense appended to ledger")

	return ex, nil
}

// RecordAndNotify runs Record and then sends the confirmation as a reply to
// the target message.
func (s *Service) RecordAndNotify(ctx context.Context, to domain.ReplyTarget, text, requester string) (Extraction, error) {
	ex, err := s.Record(ctx, text, requester)
	if err != nil {
		return ex, err
	}

	if err := s.notifier.Notify(ctx, to, ex.Record); err != nil {
		return ex, fmt.Errorf("RecordAndNotify: send confirmation: %w", err)
	}

	return ex, nil
}

// saveToArchive stores the extraction trace. It runs detached from the
// caller's cancellation under archiveTimeout. Failures are only logged.
func (s *Service) saveToArchive(ctx context.Context, ex Extraction, text, requester string) {
	if s.archive == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	entry := domain.ExtractionEntry{
		ID:         uuid.New().String(),
		CreatedAt:  s.now().UTC(),
		Requester:  requester,
		Input:      text,
		Oracle:     s.extractor.OracleName(),
		Outcome:    string(ex.Outcome),
		Diagnostic: ex.Diagnostic,
		Raw:        ex.Raw,
		Record:     ex.Record,
	}

	if err := s.archive.Save(ctx, entry); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("entry_id", entry.ID).Msg("Failed to archive extraction")
	}
}
