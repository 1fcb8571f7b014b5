package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/expense-bot/internal/domain"
	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
)

// NotionService is the subset of the Notion API the ledger needs.
// This interface enables mocking and testing of Notion operations.
type NotionService interface {
	// CreatePage creates a new page in a Notion database with the given properties.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
}

// NotionClient is the concrete implementation of NotionService using the Notion SDK.
type NotionClient struct {
	client *notionapi.Client
}

// NewNotionClient creates a new NotionClient with the provided API token.
func NewNotionClient(token string) *NotionClient {
	return &NotionClient{
		client: notionapi.NewClient(notionapi.Token(token)),
	}
}

// CreatePage creates a new page in a Notion database with the given properties.
func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	}

	page, err := n.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}

	return page, nil
}

// NotionLedger records each expense as a page in a Notion database whose
// properties mirror the spreadsheet columns.
type NotionLedger struct {
	notion     NotionService
	databaseID string
}

// NewNotionLedger creates a ledger writing into databaseID.
func NewNotionLedger(notion NotionService, databaseID string) (*NotionLedger, error) {
	if databaseID == "" {
		return nil, errors.New("NewNotionLedger: database ID is required")
	}
	return &NotionLedger{
		notion:     notion,
		databaseID: databaseID,
	}, nil
}

// Append implements pipeline.Ledger.
func (l *NotionLedger) Append(ctx context.Context, record domain.ExpenseRecord, requester string) error {
	if _, err := l.notion.CreatePage(ctx, l.databaseID, RecordToNotionProperties(record, requester)); err != nil {
		return fmt.Errorf("NotionLedger.Append: %w", err)
	}
	return nil
}

// Name implements pipeline.Ledger.
func (l *NotionLedger) Name() string {
	return BackendNotion
}

// RecordToNotionProperties converts a record to Notion page properties named
// after Columns. Description is the title property.
func RecordToNotionProperties(record domain.ExpenseRecord, requester string) notionapi.Properties {
	props := notionapi.Properties{
		"Description": notionapi.TitleProperty{
			Title: richText(record.Description),
		},
		"Currency": notionapi.SelectProperty{
			Select: notionapi.Option{Name: record.Currency},
		},
		"Category": notionapi.SelectProperty{
			Select: notionapi.Option{Name: record.Category},
		},
		"Requester": notionapi.RichTextProperty{
			RichText: richText(requester),
		},
	}

	if amount, err := decimal.NewFromString(record.Amount); err == nil {
		props["Amount"] = notionapi.NumberProperty{
			Number: amount.InexactFloat64(),
		}
	}

	if t, err := time.Parse(domain.DateLayout, record.Date); err == nil {
		d := notionapi.Date(t)
		props["Date"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &d},
		}
	}

	// Select options cannot be empty
	if record.PaymentMethod != "" {
		props["Payment Method"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: record.PaymentMethod},
		}
	}

	if record.Notes != "" {
		props["Notes"] = notionapi.RichTextProperty{
			RichText: richText(record.Notes),
		}
	}

	return props
}

// notionTextLimit is the most characters Notion accepts in one rich text object.
const notionTextLimit = 2000

// richText splits content into as many text objects as the Notion limit requires.
func richText(content string) []notionapi.RichText {
	runes := []rune(content)
	parts := make([]notionapi.RichText, 0, len(runes)/notionTextLimit+1)
	for {
		n := min(len(runes), notionTextLimit)
		parts = append(parts, notionapi.RichText{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{
				Content: string(runes[:n]),
			},
		})
		runes = runes[n:]
		if len(runes) == 0 {
			return parts
		}
	}
}
