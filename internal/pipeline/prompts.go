package pipeline

import (
	"strings"

	"github.com/dvloznov/expense-bot/internal/domain"
)

// BuildExtractionPrompt constructs the prompt asking the oracle to turn a chat
// message into a strict JSON expense object. The category and payment method
// vocabularies are listed inline so the model is constrained to them.
func BuildExtractionPrompt(text string) string {
	categories := strings.Join(domain.Categories, ", ")
	paymentMethods := strings.Join(domain.PaymentMethods, ", ")

	var b strings.Builder
	b.WriteString("Extract structured data from this expense message:\n")
	b.WriteString("\"" + text + "\"\n\n")

	b.WriteString("Analyze and extract:\n")
	b.WriteString("1. Amount (numeric value only)\n")
	b.WriteString("2. Currency (3-letter code: USD, EUR, AED, etc.)\n")
	b.WriteString("3. Description (what was purchased/paid for)\n")
	b.WriteString("4. Category (choose the most appropriate from: " + categories + ")\n")
	b.WriteString("5. Payment method if mentioned (from: " + paymentMethods + ")\n")
	b.WriteString("6. Date if mentioned (format: YYYY-MM-DD), otherwise use today\n")
	b.WriteString("7. Notes or additional details\n\n")

	b.WriteString("Return ONLY a valid JSON object with these fields:\n")
	b.WriteString("{\n")
	b.WriteString("  \"amount\": \"number\",\n")
	b.WriteString("  \"currency\": \"string\",\n")
	b.WriteString("  \"description\": \"string\",\n")
	b.WriteString("  \"category\": \"string\",\n")
	b.WriteString("  \"payment_method\": \"string or null\",\n")
	b.WriteString("  \"date\": \"YYYY-MM-DD\",\n")
	b.WriteString("  \"notes\": \"string or null\"\n")
	b.WriteString("}\n\n")

	b.WriteString("Category must be EXACTLY one of the categories listed above (case-sensitive).\n")
	b.WriteString("Do NOT wrap the response in code fences and do NOT add any other text.\n")

	return b.String()
}
