package pipeline

import "github.com/dvloznov/expense-bot/internal/domain"

// Outcome tags how an extraction ended.
type Outcome string

const (
	// OutcomeOK means the oracle answered with a JSON object that was normalized.
	OutcomeOK Outcome = "ok"
	// OutcomeParseFailed means the oracle answered but the text was not a JSON object.
	OutcomeParseFailed Outcome = "parse_failed"
	// OutcomeTransportFailed means the oracle call itself failed or returned nothing.
	OutcomeTransportFailed Outcome = "transport_failed"
)

// Extraction is the result of normalizing one oracle answer. Record is always
// fully populated; on failure it is the fallback record and Diagnostic holds
// the cause.
type Extraction struct {
	Record     domain.ExpenseRecord
	Outcome    Outcome
	Diagnostic string
	Raw        string
}

// Failed reports whether the record came from the fallback path.
func (e Extraction) Failed() bool {
	return e.Outcome != OutcomeOK
}
