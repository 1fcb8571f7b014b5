package pipeline

import (
	"context"

	"github.com/dvloznov/expense-bot/internal/domain"
)

// Oracle is an opaque text-in/text-out language model.
// This interface enables mocking and testing of the extraction step.
type Oracle interface {
	// Generate sends the prompt to the model and returns its raw text answer.
	Generate(ctx context.Context, prompt string) (string, error)

	// Name identifies the backing model, e.g. "gemini:gemini-2.5-flash".
	Name() string
}

// Ledger appends normalized expenses to the external tabular store.
type Ledger interface {
	// Append writes one row for the record. Errors are not retried.
	Append(ctx context.Context, record domain.ExpenseRecord, requester string) error

	// Name identifies the ledger backend for logging.
	Name() string
}

// Notifier delivers the confirmation for a recorded expense back to the chat.
type Notifier interface {
	Notify(ctx context.Context, to domain.ReplyTarget, record domain.ExpenseRecord) error
}

// Archive keeps a best-effort trace of every extraction.
type Archive interface {
	Save(ctx context.Context, entry domain.ExtractionEntry) error
}
