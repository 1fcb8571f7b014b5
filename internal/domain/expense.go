package domain

// ExpenseRecord is one normalized expense extracted from a chat message.
// It is built once per inbound message and written once to the ledger.
type ExpenseRecord struct {
	Amount        string `json:"amount"`         // decimal string, "0" when unknown
	Currency      string `json:"currency"`       // ISO 4217 code, "USD" when unknown
	Description   string `json:"description"`    // defaults to the raw message
	Category      string `json:"category"`       // always a member of Categories
	PaymentMethod string `json:"payment_method"` // member of PaymentMethods or ""
	Date          string `json:"date"`           // YYYY-MM-DD
	Notes         string `json:"notes"`
}

// Default field values applied during normalization.
const (
	DefaultAmount   = "0"
	DefaultCurrency = "USD"
	DefaultCategory = "Other"

	// OtherPaymentMethod replaces payment methods outside PaymentMethods.
	OtherPaymentMethod = "Other"

	// DateLayout is the ISO 8601 calendar date layout used for ExpenseRecord.Date.
	DateLayout = "2006-01-02"
)

// Categories is the fixed expense vocabulary, in display order.
var Categories = []string{
	"Food & Dining",
	"Transportation",
	"Groceries",
	"Shopping",
	"Entertainment",
	"Bills & Utilities",
	"Healthcare",
	"Travel",
	"Education",
	"Personal Care",
	"Home & Garden",
	"Sports & Fitness",
	"Gifts & Donations",
	"Business",
	"Subscriptions",
	"Other",
}

// PaymentMethods is the fixed payment method vocabulary, in display order.
var PaymentMethods = []string{
	"Cash",
	"Credit Card",
	"Debit Card",
	"Bank Transfer",
	"Digital Wallet",
	"Other",
}

var (
	categorySet      = toSet(Categories)
	paymentMethodSet = toSet(PaymentMethods)
)

// IsCategory reports whether name is a case-exact member of Categories.
func IsCategory(name string) bool {
	return categorySet[name]
}

// IsPaymentMethod reports whether name is a case-exact member of PaymentMethods.
func IsPaymentMethod(name string) bool {
	return paymentMethodSet[name]
}

// CategoryList returns a copy of Categories so callers cannot mutate the vocabulary.
func CategoryList() []string {
	return append([]string(nil), Categories...)
}

// PaymentMethodList returns a copy of PaymentMethods.
func PaymentMethodList() []string {
	return append([]string(nil), PaymentMethods...)
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// ReplyTarget addresses a confirmation: the chat to post in and the message
// being answered. A zero MessageID posts without threading.
type ReplyTarget struct {
	ChatID    int64
	MessageID int
}
