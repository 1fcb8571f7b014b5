package archive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/expense-bot/internal/domain"
	"google.golang.org/api/googleapi"
)

// ExtractionRow is one row of the extractions table.
type ExtractionRow struct {
	EntryID       string              `bigquery:"entry_id"`   // REQUIRED
	CreatedTS     time.Time           `bigquery:"created_ts"` // REQUIRED
	Requester     string              `bigquery:"requester"`
	Input         string              `bigquery:"input"`
	Oracle        string              `bigquery:"oracle"`
	Outcome       string              `bigquery:"outcome"`
	Diagnostic    bigquery.NullString `bigquery:"diagnostic"`   // NULLABLE
	RawResponse   bigquery.NullString `bigquery:"raw_response"` // NULLABLE
	Amount        string              `bigquery:"amount"`
	Currency      string              `bigquery:"currency"`
	Description   string              `bigquery:"description"`
	Category      string              `bigquery:"category"`
	PaymentMethod string              `bigquery:"payment_method"`
	ExpenseDate   bigquery.NullDate   `bigquery:"expense_date"` // NULLABLE
	Notes         string              `bigquery:"notes"`
}

// NewExtractionRow maps an entry onto the table schema.
func NewExtractionRow(entry domain.ExtractionEntry) ExtractionRow {
	row := ExtractionRow{
		EntryID:       entry.ID,
		CreatedTS:     entry.CreatedAt.UTC(),
		Requester:     entry.Requester,
		Input:         entry.Input,
		Oracle:        entry.Oracle,
		Outcome:       entry.Outcome,
		Diagnostic:    nullString(entry.Diagnostic),
		RawResponse:   nullString(entry.Raw),
		Amount:        entry.Record.Amount,
		Currency:      entry.Record.Currency,
		Description:   entry.Record.Description,
		Category:      entry.Record.Category,
		PaymentMethod: entry.Record.PaymentMethod,
		Notes:         entry.Record.Notes,
	}
	if d, err := civil.ParseDate(entry.Record.Date); err == nil {
		row.ExpenseDate = bigquery.NullDate{Date: d, Valid: true}
	}
	return row
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

// BigQueryArchive inserts extraction rows into a BigQuery table. It holds a
// shared client to avoid creating a new connection for each operation.
type BigQueryArchive struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	tableID   string
}

// NewBigQueryArchive creates the BigQuery client once for the process.
func NewBigQueryArchive(ctx context.Context, projectID, datasetID, tableID string) (*BigQueryArchive, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryArchive: creating client: %w", err)
	}
	return &BigQueryArchive{
		client:    client,
		projectID: client.Project(),
		datasetID: datasetID,
		tableID:   tableID,
	}, nil
}

// Close closes the BigQuery client connection.
func (a *BigQueryArchive) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// Save implements Saver. Uses DML INSERT to avoid streaming buffer issues.
func (a *BigQueryArchive) Save(ctx context.Context, entry domain.ExtractionEntry) error {
	row := NewExtractionRow(entry)

	q := a.client.Query(`
		INSERT INTO ` + "`" + a.tableRef() + "`" + ` (
			entry_id, created_ts, requester, input, oracle, outcome,
			diagnostic, raw_response, amount, currency, description,
			category, payment_method, expense_date, notes
		)
		VALUES (
			@entry_id, @created_ts, @requester, @input, @oracle, @outcome,
			@diagnostic, @raw_response, @amount, @currency, @description,
			@category, @payment_method, @expense_date, @notes
		)
	`)
	q.Parameters = queryParameters(row)

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("BigQueryArchive.Save: running insert query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("BigQueryArchive.Save: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("BigQueryArchive.Save: job error: %w", err)
	}

	return nil
}

func queryParameters(row ExtractionRow) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "entry_id", Value: row.EntryID},
		{Name: "created_ts", Value: row.CreatedTS},
		{Name: "requester", Value: row.Requester},
		{Name: "input", Value: row.Input},
		{Name: "oracle", Value: row.Oracle},
		{Name: "outcome", Value: row.Outcome},
		{Name: "diagnostic", Value: row.Diagnostic},
		{Name: "raw_response", Value: row.RawResponse},
		{Name: "amount", Value: row.Amount},
		{Name: "currency", Value: row.Currency},
		{Name: "description", Value: row.Description},
		{Name: "category", Value: row.Category},
		{Name: "payment_method", Value: row.PaymentMethod},
		{Name: "expense_date", Value: row.ExpenseDate},
		{Name: "notes", Value: row.Notes},
	}
}

// EnsureTable creates the dataset and the day-partitioned extractions table
// when they do not exist yet. It reports whether the table was created.
func (a *BigQueryArchive) EnsureTable(ctx context.Context) (bool, error) {
	ds := a.client.Dataset(a.datasetID)
	if _, err := ds.Metadata(ctx); err != nil {
		if !isNotFound(err) {
			return false, fmt.Errorf("EnsureTable: dataset metadata: %w", err)
		}
		if err := ds.Create(ctx, &bigquery.DatasetMetadata{}); err != nil {
			return false, fmt.Errorf("EnsureTable: create dataset %s: %w", a.datasetID, err)
		}
	}

	table := ds.Table(a.tableID)
	if _, err := table.Metadata(ctx); err == nil {
		return false, nil
	} else if !isNotFound(err) {
		return false, fmt.Errorf("EnsureTable: table metadata: %w", err)
	}

	schema, err := ExtractionSchema()
	if err != nil {
		return false, err
	}

	meta := &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: "created_ts",
		},
	}
	if err := table.Create(ctx, meta); err != nil {
		return false, fmt.Errorf("EnsureTable: create table %s: %w", a.tableRef(), err)
	}
	return true, nil
}

// ExtractionSchema infers the table schema from ExtractionRow.
func ExtractionSchema() (bigquery.Schema, error) {
	schema, err := bigquery.InferSchema(ExtractionRow{})
	if err != nil {
		return nil, fmt.Errorf("ExtractionSchema: infer schema: %w", err)
	}
	return schema, nil
}

func (a *BigQueryArchive) tableRef() string {
	return a.projectID + "." + a.datasetID + "." + a.tableID
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
