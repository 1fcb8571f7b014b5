package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/expense-bot/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrEmptyResponse is reported when the oracle answers with blank text.
var ErrEmptyResponse = errors.New("empty response from model")

const codeFence = "```"

// Normalizer turns raw oracle text into an ExpenseRecord. It never fails:
// anything it cannot use ends up in the fallback record.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a Normalizer. now supplies the processing date; nil
// means time.Now.
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Normalize builds the record for input from the oracle answer raw. callErr is
// the error returned by the oracle call, if any.
func (n *Normalizer) Normalize(input, raw string, callErr error) Extraction {
	today := civil.DateOf(n.now()).String()

	if callErr != nil {
		return fallback(input, raw, today, OutcomeTransportFailed, callErr.Error())
	}

	fields, err := decodeObject(StripCodeFence(raw))
	if err != nil {
		return fallback(input, raw, today, OutcomeParseFailed, err.Error())
	}

	return Extraction{
		Record: domain.ExpenseRecord{
			Amount:        normalizeAmount(fields["amount"]),
			Currency:      normalizeCurrency(fields["currency"]),
			Description:   orDefault(fields["description"], input),
			Category:      normalizeCategory(fields["category"]),
			PaymentMethod: normalizePaymentMethod(fields["payment_method"]),
			Date:          normalizeDate(fields["date"], today),
			Notes:         orDefault(fields["notes"], ""),
		},
		Outcome: OutcomeOK,
		Raw:     raw,
	}
}

// StripCodeFence removes a Markdown code fence around the model answer.
//
// Grammar: after trimming, an opening "```" is dropped together with an
// optional info tag of [A-Za-z0-9_+.-]; a trailing "```" is dropped whether
// or not an opening fence was present. Text without fences is only trimmed.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)

	if rest, ok := strings.CutPrefix(s, codeFence); ok {
		i := 0
		for i < len(rest) && isInfoTagByte(rest[i]) {
			i++
		}
		s = strings.TrimSpace(rest[i:])
	}

	if rest, ok := strings.CutSuffix(s, codeFence); ok {
		s = strings.TrimSpace(rest)
	}

	return s
}

func isInfoTagByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '+' || c == '.' || c == '-':
		return true
	}
	return false
}

// decodeObject parses s as a single JSON object, keeping numbers as json.Number.
func decodeObject(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	if fields == nil {
		return nil, errors.New("decode JSON: response is not a JSON object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("decode JSON: unexpected data after JSON object")
	}
	return fields, nil
}

func fallback(input, raw, today string, outcome Outcome, diagnostic string) Extraction {
	return Extraction{
		Record: domain.ExpenseRecord{
			Amount:        domain.DefaultAmount,
			Currency:      domain.DefaultCurrency,
			Description:   input,
			Category:      domain.DefaultCategory,
			PaymentMethod: "",
			Date:          today,
			Notes:         ParseErrorPrefix + diagnostic,
		},
		Outcome:    outcome,
		Diagnostic: diagnostic,
		Raw:        raw,
	}
}

// stringValue renders a decoded JSON value as text and reports whether it is
// truthy. null, "", false, 0 and empty arrays/objects count as missing.
func stringValue(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(x)
		return s, s != ""
	case bool:
		return strconv.FormatBool(x), x
	case json.Number:
		f, err := x.Float64()
		return x.String(), err != nil || f != 0
	case []any:
		if len(x) == 0 {
			return "", false
		}
	case map[string]any:
		if len(x) == 0 {
			return "", false
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(b), true
}

func orDefault(v any, def string) string {
	if s, ok := stringValue(v); ok {
		return s
	}
	return def
}

func normalizeAmount(v any) string {
	s, ok := stringValue(v)
	if !ok {
		return domain.DefaultAmount
	}
	if _, err := decimal.NewFromString(s); err != nil {
		return domain.DefaultAmount
	}
	return s
}

func normalizeCurrency(v any) string {
	s, ok := stringValue(v)
	if !ok {
		return domain.DefaultCurrency
	}
	code := strings.ToUpper(s)
	if len(code) != 3 {
		return domain.DefaultCurrency
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return domain.DefaultCurrency
		}
	}
	return code
}

// normalizeCategory enforces vocabulary membership. The match is exact:
// case and surrounding whitespace must agree.
func normalizeCategory(v any) string {
	s, ok := v.(string)
	if !ok || !domain.IsCategory(s) {
		return domain.DefaultCategory
	}
	return s
}

func normalizePaymentMethod(v any) string {
	s, ok := stringValue(v)
	if !ok {
		return ""
	}
	if !domain.IsPaymentMethod(s) {
		return domain.OtherPaymentMethod
	}
	return s
}

func normalizeDate(v any, today string) string {
	s, ok := stringValue(v)
	if !ok {
		return today
	}
	d, err := civil.ParseDate(s)
	if err != nil || !d.IsValid() {
		return today
	}
	return d.String()
}
