// Package ledger appends normalized expenses to an external tabular store.
package ledger

import "github.com/dvloznov/expense-bot/internal/domain"

// Supported ledger backends.
const (
	BackendSheets = "sheets"
	BackendNotion = "notion"
)

// Columns is the fixed column order of every ledger row.
var Columns = []string{
	"Date",
	"Description",
	"Amount",
	"Currency",
	"Category",
	"Payment Method",
	"Requester",
	"Notes",
}

// Row lays out a record in Columns order.
func Row(record domain.ExpenseRecord, requester string) []interface{} {
	return []interface{}{
		record.Date,
		record.Description,
		record.Amount,
		record.Currency,
		record.Category,
		record.PaymentMethod,
		requester,
		record.Notes,
	}
}
