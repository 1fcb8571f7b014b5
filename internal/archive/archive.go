// Package archive keeps a trace of every extraction outside the ledger:
// raw model output, outcome and the record that was written.
package archive

import (
	"context"
	"errors"

	"github.com/dvloznov/expense-bot/internal/domain"
)

// Saver stores one extraction entry.
type Saver interface {
	Save(ctx context.Context, entry domain.ExtractionEntry) error
}

// Multi fans an entry out to several savers. Every saver is attempted; the
// errors are joined.
type Multi []Saver

// Save implements pipeline.Archive.
func (m Multi) Save(ctx context.Context, entry domain.ExtractionEntry) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
