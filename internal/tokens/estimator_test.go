package tokens

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/poolchaos/personalfit-api/internal/modeldata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEstimator(t *testing.T) *Estimator {
	t.Helper()
	e := NewEstimator(nil, modeldata.NewCatalog("", nil), "gpt-4o", 0.5)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestCountTokens_NonEmptyText(t *testing.T) {
	e := newTestEstimator(t)

	texts := []string{
		"Hello, world!",
		"The quick brown fox jumps over the lazy dog.",
		"Design a three day split focusing on compound lifts.",
		"a",
	}

	for _, text := range texts {
		n, err := e.CountTokens(text, "gpt-4o")
		require.NoError(t, err)
		assert.Greater(t, n, 0, "text %q", text)
		assert.LessOrEqual(t, n, utf8.RuneCountInString(text), "text %q", text)
	}
}

func TestCountTokens_EmptyText(t *testing.T) {
	e := newTestEstimator(t)

	n, err := e.CountTokens("", "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCountTokens_UnknownModelNeverFails(t *testing.T) {
	e := newTestEstimator(t)

	n, err := e.CountTokens("some ordinary prose for counting", "mystery-model-9000")
	require.NoError(t, err)
	assert.Greater(t, n, 0)
}

func TestCountTokens_EmptyModelUsesDefault(t *testing.T) {
	e := newTestEstimator(t)

	withDefault, err := e.CountTokens("squats and deadlifts", "")
	require.NoError(t, err)
	explicit, err := e.CountTokens("squats and deadlifts", "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, explicit, withDefault)
}

func TestCountMessageTokens_AddsFramingOverhead(t *testing.T) {
	e := newTestEstimator(t)

	messages := []Message{
		{Role: "system", Content: "You are a certified strength coach."},
		{Role: "user", Content: "Build me a four week beginner plan."},
	}

	var concat strings.Builder
	for _, m := range messages {
		concat.WriteString(m.Content)
	}

	msgTokens, err := e.CountMessageTokens(messages, "gpt-4o")
	require.NoError(t, err)
	flatTokens, err := e.CountTokens(concat.String(), "gpt-4o")
	require.NoError(t, err)

	// Framing must be added, never absorbed.
	assert.Greater(t, msgTokens, flatTokens)

	// At minimum: 4 per message plus 3 reply priming.
	assert.GreaterOrEqual(t, msgTokens, perMessageOverhead*len(messages)+replyPrimingTokens)
}

func TestCountMessageTokens_EmptySequence(t *testing.T) {
	e := newTestEstimator(t)

	n, err := e.CountMessageTokens(nil, "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, replyPrimingTokens, n)
}

func TestEstimateRequest_Arithmetic(t *testing.T) {
	e := newTestEstimator(t)

	est, err := e.EstimateRequest(
		"You are a certified strength coach producing JSON plans.",
		"Three days per week, dumbbells only, 45 minute sessions.",
	)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", est.Model)
	assert.Greater(t, est.InputTokens, 0)
	assert.Greater(t, est.EstimatedOutputTokens, 0)
	assert.Equal(t, est.InputTokens+est.EstimatedOutputTokens, est.TotalTokens)
	assert.Greater(t, est.EstimatedCost, 0.0)
	assert.Equal(t, 128000, est.ModelContextLimit)
	assert.True(t, est.WithinContextLimit)
}

func TestEstimateRequest_OutputRatio(t *testing.T) {
	e := newTestEstimator(t)

	half, err := e.EstimateRequest("coach", "plan please")
	require.NoError(t, err)
	double, err := e.EstimateRequest("coach", "plan please", WithOutputRatio(2.0))
	require.NoError(t, err)

	assert.Equal(t, half.InputTokens, double.InputTokens)
	assert.Greater(t, double.EstimatedOutputTokens, half.EstimatedOutputTokens)
	// ceil(input * ratio) exactly
	assert.Equal(t, (half.InputTokens+1)/2, half.EstimatedOutputTokens)
	assert.Equal(t, double.InputTokens*2, double.EstimatedOutputTokens)
}

func TestEstimateRequest_ModelOverride(t *testing.T) {
	e := newTestEstimator(t)

	est, err := e.EstimateRequest("coach", "plan", WithModel("claude-3-5-sonnet-20240620"))
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-sonnet-20240620", est.Model)
	assert.Equal(t, 200000, est.ModelContextLimit)
}

func TestEstimateRequest_FreeModelCostsNothing(t *testing.T) {
	e := newTestEstimator(t)

	est, err := e.EstimateRequest("coach", "plan", WithModel("llama3"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, est.EstimatedCost)
}

func TestTruncateToTokenLimit(t *testing.T) {
	e := newTestEstimator(t)

	long := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 50)

	truncated, err := e.TruncateToTokenLimit(long, 20, "gpt-4o")
	require.NoError(t, err)
	assert.Less(t, len(truncated), len(long))

	n, err := e.CountTokens(truncated, "gpt-4o")
	require.NoError(t, err)
	assert.LessOrEqual(t, n, 21)

	// Idempotent: a second pass with the same limit is a no-op.
	again, err := e.TruncateToTokenLimit(truncated, 20, "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, truncated, again)
}

func TestTruncateToTokenLimit_ShortTextUnchanged(t *testing.T) {
	e := newTestEstimator(t)

	short := "Leg day."
	out, err := e.TruncateToTokenLimit(short, 1000, "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, short, out)
}

func TestTruncateToTokenLimit_ZeroLimit(t *testing.T) {
	e := newTestEstimator(t)

	out, err := e.TruncateToTokenLimit("anything at all", 0, "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestModelConfigFor_TotalLookup(t *testing.T) {
	e := newTestEstimator(t)

	known := e.ModelConfigFor("gpt-4o")
	assert.Equal(t, "gpt-4o", known.ID)

	unknown := e.ModelConfigFor("not-a-model")
	assert.Equal(t, modeldata.Default.ID, unknown.ID)
	assert.Greater(t, unknown.ContextLimit, 0)
}

func TestClose_OperationsFailLoudly(t *testing.T) {
	e := NewEstimator(nil, modeldata.NewCatalog("", nil), "gpt-4o", 0.5)
	require.NoError(t, e.Close())

	_, err := e.CountTokens("text", "gpt-4o")
	assert.ErrorIs(t, err, ErrClosed)

	_, err = e.CountMessageTokens([]Message{{Role: "user", Content: "hi"}}, "gpt-4o")
	assert.ErrorIs(t, err, ErrClosed)

	_, err = e.EstimateRequest("a", "b")
	assert.ErrorIs(t, err, ErrClosed)

	_, err = e.TruncateToTokenLimit("text", 5, "gpt-4o")
	assert.ErrorIs(t, err, ErrClosed)

	// Close is idempotent.
	assert.NoError(t, e.Close())
}

func TestConcurrentCounting(t *testing.T) {
	e := newTestEstimator(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := fmt.Sprintf("workout session number %d with extra padding text", i)
			n, err := e.CountTokens(text, "gpt-4o")
			assert.NoError(t, err)
			assert.Greater(t, n, 0)
		}(i)
	}
	wg.Wait()
}

func TestHeuristicCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"12345678901234567890", 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, heuristicCount(tt.text), "text %q", tt.text)
	}
}
