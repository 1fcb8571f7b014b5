package pipeline

// Default values for expense extraction.
const (
	// DefaultGeminiModel is the default Gemini model used for extraction.
	DefaultGeminiModel = "gemini-2.5-flash"

	// DefaultOpenAIModel is the default OpenAI model used for extraction.
	DefaultOpenAIModel = "gpt-4o-mini"

	// DefaultRequester is the display name used by the direct test call.
	DefaultRequester = "Test User"

	// ParseErrorPrefix starts the notes of every fallback record.
	ParseErrorPrefix = "Parse error: "
)
