package tokens

import (
	"errors"
	"math"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"github.com/poolchaos/personalfit-api/internal/modeldata"
	"go.uber.org/zap"
)

// ErrClosed is returned by every counting operation after Close.
var ErrClosed = errors.New("tokens: estimator is closed")

// genericEncoding approximates models without a public tokenizer.
const genericEncoding = "cl100k_base"

// Chat framing constants. Each message costs a fixed wrapper on top of
// its role and content tokens, and the assistant reply is primed once
// per request.
const (
	perMessageOverhead = 4
	replyPrimingTokens = 3
)

// heuristicCharsPerToken drives the last-resort length estimate and
// the tokenizer-free truncation bound.
const heuristicCharsPerToken = 4

// Message is the minimal chat-message shape the counter needs.
type Message struct {
	Role    string
	Content string
}

// Estimate is a pre-flight projection of one request's size and cost.
// Computed fresh per request and never mutated.
type Estimate struct {
	Model                 string
	InputTokens           int
	EstimatedOutputTokens int
	TotalTokens           int
	EstimatedCost         float64
	ModelContextLimit     int
	WithinContextLimit    bool
}

// Estimator converts text to model-aware token counts and dollar
// projections without network calls. It owns its tokenizer handles and
// must be released with Close; operations on a closed instance return
// ErrClosed rather than miscounting.
type Estimator struct {
	mu     sync.RWMutex
	closed bool

	cache        *encoderCache
	catalog      *modeldata.Catalog
	defaultModel string
	outputRatio  float64
	logger       *zap.Logger
}

// NewEstimator wires an estimator to the model catalog. defaultModel
// and outputRatio seed per-call defaults and are overridable per
// request.
func NewEstimator(logger *zap.Logger, catalog *modeldata.Catalog, defaultModel string, outputRatio float64) *Estimator {
	if outputRatio <= 0 {
		outputRatio = 0.5
	}
	return &Estimator{
		cache:        newEncoderCache(),
		catalog:      catalog,
		defaultModel: defaultModel,
		outputRatio:  outputRatio,
		logger:       logger,
	}
}

// CountTokens counts tokens in text for the given model. Encoder
// resolution degrades silently: the model's own encoding, then the
// generic encoding, then a character-length heuristic. The only error
// is ErrClosed.
func (e *Estimator) CountTokens(text, model string) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return 0, ErrClosed
	}
	return e.countLocked(text, e.resolveModel(model)), nil
}

// CountMessageTokens counts a chat-style message sequence including
// framing: a fixed per-message wrapper plus role and content tokens,
// plus one reply-priming charge for the whole call. This is always
// more than counting the concatenated text.
func (e *Estimator) CountMessageTokens(messages []Message, model string) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return 0, ErrClosed
	}

	m := e.resolveModel(model)
	total := 0
	for _, msg := range messages {
		total += perMessageOverhead
		total += e.countLocked(msg.Role, m)
		total += e.countLocked(msg.Content, m)
	}
	total += replyPrimingTokens
	return total, nil
}

// EstimateOption adjusts a single EstimateRequest call.
type EstimateOption func(*estimateSettings)

type estimateSettings struct {
	model string
	ratio float64
}

// WithModel estimates against a specific model instead of the default.
func WithModel(model string) EstimateOption {
	return func(s *estimateSettings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithOutputRatio overrides the expected output-to-input size ratio
// for task types whose replies are known to run larger or smaller.
func WithOutputRatio(ratio float64) EstimateOption {
	return func(s *estimateSettings) {
		if ratio > 0 {
			s.ratio = ratio
		}
	}
}

// EstimateRequest projects the token footprint and cost of a
// two-message (system, user) chat request. Output size is a
// proportional heuristic, not a prediction: ceil(input * ratio).
func (e *Estimator) EstimateRequest(systemPrompt, userPrompt string, opts ...EstimateOption) (Estimate, error) {
	settings := estimateSettings{model: e.defaultModel, ratio: e.outputRatio}
	for _, opt := range opts {
		opt(&settings)
	}

	inputTokens, err := e.CountMessageTokens([]Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}, settings.model)
	if err != nil {
		return Estimate{}, err
	}

	outputTokens := int(math.Ceil(float64(inputTokens) * settings.ratio))
	total := inputTokens + outputTokens

	mc := e.catalog.Lookup(settings.model)
	cost := (float64(inputTokens)/1000)*mc.InputPricePer1K +
		(float64(outputTokens)/1000)*mc.OutputPricePer1K

	return Estimate{
		Model:                 settings.model,
		InputTokens:           inputTokens,
		EstimatedOutputTokens: outputTokens,
		TotalTokens:           total,
		EstimatedCost:         cost,
		ModelContextLimit:     mc.ContextLimit,
		WithinContextLimit:    total < mc.ContextLimit,
	}, nil
}

// TruncateToTokenLimit cuts text down to at most maxTokens encoded
// units, decoding back to a string. Text already within the limit is
// returned unchanged, which also makes the operation idempotent.
// Without a tokenizer it bounds by maxTokens*4 characters instead.
func (e *Estimator) TruncateToTokenLimit(text string, maxTokens int, model string) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return "", ErrClosed
	}
	if maxTokens <= 0 {
		return "", nil
	}

	m := e.resolveModel(model)
	if enc, ok := e.acquireLocked(m); ok {
		toks := enc.Encode(text, nil, nil)
		if len(toks) <= maxTokens {
			return text, nil
		}
		return enc.Decode(toks[:maxTokens]), nil
	}

	runes := []rune(text)
	limit := maxTokens * heuristicCharsPerToken
	if len(runes) <= limit {
		return text, nil
	}
	return string(runes[:limit]), nil
}

// ModelConfigFor is a total lookup: unknown models resolve to the
// catalog's default entry.
func (e *Estimator) ModelConfigFor(model string) modeldata.ModelConfig {
	return e.catalog.Lookup(e.resolveModel(model))
}

// Close releases the tokenizer handles. Idempotent. Counting
// operations after Close fail with ErrClosed.
func (e *Estimator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.cache.release()
	return nil
}

// --- internals (callers hold at least a read lock) ---

func (e *Estimator) resolveModel(model string) string {
	if model == "" {
		return e.defaultModel
	}
	return model
}

func (e *Estimator) countLocked(text, model string) int {
	if enc, ok := e.acquireLocked(model); ok {
		return len(enc.Encode(text, nil, nil))
	}
	return heuristicCount(text)
}

// acquireLocked resolves the model's encoding handle: exact encoding
// first, then the generic one. ok=false means count heuristically.
func (e *Estimator) acquireLocked(model string) (*tiktoken.Tiktoken, bool) {
	mc := e.catalog.Lookup(model)

	if h, hit := e.cache.acquire(mc.Encoding); hit {
		return h, true
	}
	if h, hit := e.cache.acquire(genericEncoding); hit {
		return h, true
	}

	if e.logger != nil {
		e.logger.Debug("No tokenizer available, using length heuristic",
			zap.String("model", model),
			zap.String("encoding", mc.Encoding))
	}
	return nil, false
}

// heuristicCount approximates one token per four characters, rounding
// up. Never fails, zero for empty input, never negative.
func heuristicCount(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + heuristicCharsPerToken - 1) / heuristicCharsPerToken
}
