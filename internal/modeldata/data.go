package modeldata

// ModelConfig carries the accounting facts for one model: how large a
// request it can take, what it costs, and which tokenizer encoding
// approximates its token counts.
type ModelConfig struct {
	ID               string  `json:"id" yaml:"id"`
	Name             string  `json:"name" yaml:"name"`
	Provider         string  `json:"provider" yaml:"provider"`
	ContextLimit     int     `json:"context_limit" yaml:"context_limit"`
	MaxOutputTokens  int     `json:"max_output_tokens" yaml:"max_output_tokens"`
	InputPricePer1K  float64 `json:"input_price_per_1k" yaml:"input_price_per_1k"`
	OutputPricePer1K float64 `json:"output_price_per_1k" yaml:"output_price_per_1k"`

	// Tokenizer encoding name. Models without a public tokenizer carry
	// a family name here; the estimator degrades to a generic encoding
	// when the name is not a real encoding.
	Encoding string `json:"encoding" yaml:"encoding"`
}

// Default is used for any model the table does not know. Deliberately
// conservative: a small context window and mid-range pricing so
// estimates err on the side of refusing, not overspending.
var Default = ModelConfig{
	ID:               "default",
	Name:             "Unknown Model",
	ContextLimit:     8192,
	MaxOutputTokens:  2048,
	InputPricePer1K:  0.005,
	OutputPricePer1K: 0.015,
	Encoding:         "cl100k_base",
}

// Known is the built-in price/context table. The catalog file can
// override or extend it at runtime.
var Known = map[string]ModelConfig{
	// OpenAI
	"gpt-4o": {
		ID:               "gpt-4o",
		Name:             "GPT-4o",
		Provider:         "openai",
		ContextLimit:     128000,
		MaxOutputTokens:  4096,
		InputPricePer1K:  0.005,
		OutputPricePer1K: 0.015,
		Encoding:         "o200k_base",
	},
	"gpt-4o-mini": {
		ID:               "gpt-4o-mini",
		Name:             "GPT-4o mini",
		Provider:         "openai",
		ContextLimit:     128000,
		MaxOutputTokens:  16384,
		InputPricePer1K:  0.00015,
		OutputPricePer1K: 0.0006,
		Encoding:         "o200k_base",
	},
	"gpt-4-turbo": {
		ID:               "gpt-4-turbo",
		Name:             "GPT-4 Turbo",
		Provider:         "openai",
		ContextLimit:     128000,
		MaxOutputTokens:  4096,
		InputPricePer1K:  0.01,
		OutputPricePer1K: 0.03,
		Encoding:         "cl100k_base",
	},
	"gpt-3.5-turbo": {
		ID:               "gpt-3.5-turbo",
		Name:             "GPT-3.5 Turbo",
		Provider:         "openai",
		ContextLimit:     16385,
		MaxOutputTokens:  4096,
		InputPricePer1K:  0.0005,
		OutputPricePer1K: 0.0015,
		Encoding:         "cl100k_base",
	},

	// Anthropic. No public tokenizer; counts approximate via the
	// generic encoding.
	"claude-3-5-sonnet-20240620": {
		ID:               "claude-3-5-sonnet-20240620",
		Name:             "Claude 3.5 Sonnet",
		Provider:         "anthropic",
		ContextLimit:     200000,
		MaxOutputTokens:  8192,
		InputPricePer1K:  0.003,
		OutputPricePer1K: 0.015,
		Encoding:         "claude",
	},
	"claude-3-opus-20240229": {
		ID:               "claude-3-opus-20240229",
		Name:             "Claude 3 Opus",
		Provider:         "anthropic",
		ContextLimit:     200000,
		MaxOutputTokens:  4096,
		InputPricePer1K:  0.015,
		OutputPricePer1K: 0.075,
		Encoding:         "claude",
	},
	"claude-3-haiku-20240307": {
		ID:               "claude-3-haiku-20240307",
		Name:             "Claude 3 Haiku",
		Provider:         "anthropic",
		ContextLimit:     200000,
		MaxOutputTokens:  4096,
		InputPricePer1K:  0.00025,
		OutputPricePer1K: 0.00125,
		Encoding:         "claude",
	},

	// Gemini
	"gemini-1.5-pro": {
		ID:               "gemini-1.5-pro",
		Name:             "Gemini 1.5 Pro",
		Provider:         "google",
		ContextLimit:     2000000,
		MaxOutputTokens:  8192,
		InputPricePer1K:  0.0035,
		OutputPricePer1K: 0.0105,
		Encoding:         "gemini",
	},
	"gemini-1.5-flash": {
		ID:               "gemini-1.5-flash",
		Name:             "Gemini 1.5 Flash",
		Provider:         "google",
		ContextLimit:     1000000,
		MaxOutputTokens:  8192,
		InputPricePer1K:  0.00035,
		OutputPricePer1K: 0.00105,
		Encoding:         "gemini",
	},

	// Local
	"llama3": {
		ID:               "llama3",
		Name:             "Llama 3 8B",
		Provider:         "ollama",
		ContextLimit:     8192,
		MaxOutputTokens:  2048,
		InputPricePer1K:  0,
		OutputPricePer1K: 0,
		Encoding:         "cl100k_base",
	},
}
