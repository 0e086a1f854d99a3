package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poolchaos/personalfit-api/internal/llm"
	"github.com/poolchaos/personalfit-api/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastConfig keeps backoff delays negligible in tests.
func fastConfig(maxRetries int, order ...string) retry.Config {
	return retry.Config{
		MaxRetries:      maxRetries,
		BaseDelay:       time.Millisecond,
		MaxDelay:        4 * time.Millisecond,
		ExponentialBase: 2.0,
		FallbackOrder:   order,
	}
}

func transientErr() error {
	return &llm.ProviderError{Kind: llm.KindRateLimited, Provider: "test", Err: errors.New("rate limited")}
}

func fatalErr() error {
	return &llm.ProviderError{Kind: llm.KindInvalidInput, Provider: "test", Err: errors.New("bad request")}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	op := func(ctx context.Context, model string) (string, error) {
		calls++
		if calls < 3 {
			return "", transientErr()
		}
		return "plan", nil
	}

	out := retry.Do(context.Background(), op, "gpt-4o", fastConfig(5), nil)

	require.True(t, out.Success)
	assert.Equal(t, "plan", out.Data)
	assert.Equal(t, "gpt-4o", out.ModelUsed)
	assert.NoError(t, out.Err)
	require.Len(t, out.Attempts, 3)
	assert.Equal(t, 3, calls)

	// The two failures carry errors and backoff delays; the success
	// record carries neither.
	assert.NotEmpty(t, out.Attempts[0].Err)
	assert.Greater(t, out.Attempts[0].DelayBeforeNext, time.Duration(0))
	assert.NotEmpty(t, out.Attempts[1].Err)
	assert.Empty(t, out.Attempts[2].Err)
	assert.Zero(t, out.Attempts[2].DelayBeforeNext)
	assert.Equal(t, 3, out.Attempts[2].Number)
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	op := func(ctx context.Context, model string) (string, error) {
		calls++
		return "", fatalErr()
	}

	out := retry.Do(context.Background(), op, "gpt-4o", fastConfig(5, "claude-3-5-sonnet-20240620"), nil)

	require.False(t, out.Success)
	assert.Equal(t, 1, calls)
	require.Len(t, out.Attempts, 1)
	assert.Equal(t, "gpt-4o", out.Attempts[0].Model)

	var pe *llm.ProviderError
	require.ErrorAs(t, out.Err, &pe)
	assert.Equal(t, llm.KindInvalidInput, pe.Kind)
}

func TestDo_PlainErrorIsNonRetryable(t *testing.T) {
	calls := 0
	op := func(ctx context.Context, model string) (string, error) {
		calls++
		return "", errors.New("something odd")
	}

	out := retry.Do(context.Background(), op, "gpt-4o", fastConfig(5), nil)

	assert.False(t, out.Success)
	assert.Equal(t, 1, calls)
}

func TestDo_FallsBackToNextModel(t *testing.T) {
	op := func(ctx context.Context, model string) (string, error) {
		if model == "gpt-4o" {
			return "", transientErr()
		}
		return "plan from " + model, nil
	}

	cfg := fastConfig(1, "claude-3-5-sonnet-20240620", "gemini-1.5-pro")
	out := retry.Do(context.Background(), op, "gpt-4o", cfg, nil)

	require.True(t, out.Success)
	assert.Equal(t, "claude-3-5-sonnet-20240620", out.ModelUsed)
	assert.Equal(t, "plan from claude-3-5-sonnet-20240620", out.Data)

	// gpt-4o: initial call + 1 retry, then the fallback's success.
	require.GreaterOrEqual(t, len(out.Attempts), 2)
	assert.Equal(t, "gpt-4o", out.Attempts[0].Model)
	last := out.Attempts[len(out.Attempts)-1]
	assert.Equal(t, "claude-3-5-sonnet-20240620", last.Model)
	// Attempt numbering restarts on the fresh model.
	assert.Equal(t, 1, last.Number)
}

func TestDo_InitialModelSkippedInOrder(t *testing.T) {
	var tried []string
	op := func(ctx context.Context, model string) (string, error) {
		tried = append(tried, model)
		return "", transientErr()
	}

	cfg := fastConfig(0, "claude-3-5-sonnet-20240620", "gpt-4o", "gemini-1.5-pro")
	out := retry.Do(context.Background(), op, "gpt-4o", cfg, nil)

	require.False(t, out.Success)
	// One call per model: the initial model appears once even though
	// it is also in the order.
	assert.Equal(t, []string{"gpt-4o", "claude-3-5-sonnet-20240620", "gemini-1.5-pro"}, tried)
	assert.ErrorContains(t, out.Err, "all models exhausted")

	var pe *llm.ProviderError
	assert.ErrorAs(t, out.Err, &pe)
}

func TestDo_ExhaustionAttemptCount(t *testing.T) {
	calls := 0
	op := func(ctx context.Context, model string) (string, error) {
		calls++
		return "", transientErr()
	}

	cfg := fastConfig(2, "claude-3-5-sonnet-20240620")
	out := retry.Do(context.Background(), op, "gpt-4o", cfg, nil)

	require.False(t, out.Success)
	// (MaxRetries+1) calls per model, two models.
	assert.Equal(t, 6, calls)
	assert.Len(t, out.Attempts, 6)
}

func TestDo_ContextCancelsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	op := func(ctx context.Context, model string) (string, error) {
		calls++
		cancel()
		return "", transientErr()
	}

	cfg := retry.Config{MaxRetries: 5, BaseDelay: time.Minute, MaxDelay: time.Minute, ExponentialBase: 2}
	start := time.Now()
	out := retry.Do(ctx, op, "gpt-4o", cfg, nil)

	require.False(t, out.Success)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second, "backoff sleep must be interruptible")
}

func TestDo_AttemptLogIsOrdered(t *testing.T) {
	op := func(ctx context.Context, model string) (string, error) {
		return "", transientErr()
	}

	out := retry.Do(context.Background(), op, "a", fastConfig(1, "b"), nil)

	require.Len(t, out.Attempts, 4)
	assert.Equal(t, []retry.Attempt{
		{Model: "a", Number: 1, Err: out.Attempts[0].Err, DelayBeforeNext: out.Attempts[0].DelayBeforeNext},
		{Model: "a", Number: 2, Err: out.Attempts[1].Err},
		{Model: "b", Number: 1, Err: out.Attempts[2].Err, DelayBeforeNext: out.Attempts[2].DelayBeforeNext},
		{Model: "b", Number: 2, Err: out.Attempts[3].Err},
	}, out.Attempts)
}

func TestSimple_SucceedsOnSecondCall(t *testing.T) {
	calls := 0
	fn := func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("transient")
		}
		return 42, nil
	}

	got, err := retry.Simple(context.Background(), fn, 3, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 2, calls)
}

func TestSimple_ReturnsLastError(t *testing.T) {
	calls := 0
	fn := func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("always broken")
	}

	_, err := retry.Simple(context.Background(), fn, 2, time.Millisecond)

	require.Error(t, err)
	assert.EqualError(t, err, "always broken")
	assert.Equal(t, 2, calls)
}

func TestSimple_NoClassification(t *testing.T) {
	// Even a fatal provider error is retried: Simple has the reduced
	// contract with no error inspection.
	calls := 0
	fn := func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, fatalErr()
		}
		return 7, nil
	}

	got, err := retry.Simple(context.Background(), fn, 3, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, 3, calls)
}
