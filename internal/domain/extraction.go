package domain

import "time"

// ExtractionEntry is the archived trace of one extraction: what the user sent,
// what the oracle answered, and the record that was derived from it.
type ExtractionEntry struct {
	ID         string        `json:"id"`
	CreatedAt  time.Time     `json:"created_at"`
	Requester  string        `json:"requester"`
	Input      string        `json:"input"`
	Oracle     string        `json:"oracle"`
	Outcome    string        `json:"outcome"`
	Diagnostic string        `json:"diagnostic,omitempty"`
	Raw        string        `json:"raw,omitempty"`
	Record     ExpenseRecord `json:"record"`
}
