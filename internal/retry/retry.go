// Package retry executes model-parameterized operations across
// transient failures and across an ordered list of fallback models.
// Failures are classified into the closed llm.FailureKind taxonomy at
// the provider boundary; this package only branches on the tag and
// never inspects error text.
package retry

import (
	"context"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/poolchaos/personalfit-api/internal/llm"
	"go.uber.org/zap"
)

// Operation calls one model and returns its result. The orchestrator
// supplies the model id; everything else is closed over by the caller.
type Operation[T any] func(ctx context.Context, model string) (T, error)

// Config bounds one orchestrated call. The zero value is usable:
// missing fields are filled with defaults.
type Config struct {
	// MaxRetries is the number of retries per model after the first
	// call, so each model is invoked at most MaxRetries+1 times.
	MaxRetries      int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	ExponentialBase float64
	// FallbackOrder lists the models to try after the initial model is
	// exhausted. The initial model is skipped if it reappears here.
	FallbackOrder []string
}

// DefaultConfig mirrors the application retry defaults.
var DefaultConfig = Config{
	MaxRetries:      3,
	BaseDelay:       time.Second,
	MaxDelay:        30 * time.Second,
	ExponentialBase: 2.0,
}

func (c Config) withDefaults() Config {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultConfig.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultConfig.MaxDelay
	}
	if c.ExponentialBase <= 1 {
		c.ExponentialBase = DefaultConfig.ExponentialBase
	}
	return c
}

// newBackOff builds the per-model delay generator:
// delay(n) = min(base * exponentialBase^(n-1), maxDelay), jittered.
func (c Config) newBackOff() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.BaseDelay
	expo.MaxInterval = c.MaxDelay
	expo.Multiplier = c.ExponentialBase
	expo.RandomizationFactor = 0.25
	expo.MaxElapsedTime = 0 // attempt counting is ours, not the clock's
	expo.Reset()
	return expo
}

// Attempt is one record in the append-only attempt log.
type Attempt struct {
	Model           string        `json:"model"`
	Number          int           `json:"number"` // 1-based within its model
	Err             string        `json:"error,omitempty"`
	DelayBeforeNext time.Duration `json:"delay_before_next,omitempty"`
}

// Outcome is the terminal state of an orchestrated call. It is always
// returned as a value: callers inspect Success and the attempt log
// rather than recovering from a raised failure.
type Outcome[T any] struct {
	Success   bool
	Data      T
	Err       error
	ModelUsed string
	Attempts  []Attempt
	StartedAt time.Time
}

// Do runs op against the initial model, retrying transient failures
// with exponential backoff up to cfg.MaxRetries per model, then
// advancing through cfg.FallbackOrder. Non-retryable failures are
// terminal immediately, with no further attempts of any kind. The
// backoff sleep honors ctx so abandoned requests release promptly.
func Do[T any](ctx context.Context, op Operation[T], initialModel string, cfg Config, log *zap.Logger) Outcome[T] {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	out := Outcome[T]{StartedAt: time.Now()}
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	var lastErr error
	for _, model := range modelSequence(initialModel, cfg.FallbackOrder) {
		expo := cfg.newBackOff()

		for attempt := 1; ; attempt++ {
			data, err := op(ctx, model)
			if err == nil {
				out.Attempts = append(out.Attempts, Attempt{Model: model, Number: attempt})
				out.Success = true
				out.Data = data
				out.ModelUsed = model
				return out
			}

			lastErr = err
			kind := llm.FailureKindOf(err)
			if !kind.Retryable() {
				out.Attempts = append(out.Attempts, Attempt{Model: model, Number: attempt, Err: err.Error()})
				out.Err = err
				log.Warn("model call failed fatally",
					zap.String("model", model),
					zap.Int("attempt", attempt),
					zap.Stringer("kind", kind),
					zap.Error(err),
				)
				return out
			}

			if attempt > cfg.MaxRetries {
				out.Attempts = append(out.Attempts, Attempt{Model: model, Number: attempt, Err: err.Error()})
				log.Warn("model exhausted, falling back",
					zap.String("model", model),
					zap.Int("attempts", attempt),
					zap.Stringer("kind", kind),
				)
				break
			}

			delay := expo.NextBackOff()
			out.Attempts = append(out.Attempts, Attempt{Model: model, Number: attempt, Err: err.Error(), DelayBeforeNext: delay})
			log.Debug("retrying model call",
				zap.String("model", model),
				zap.Int("attempt", attempt),
				zap.Stringer("kind", kind),
				zap.Duration("delay", delay),
			)
			if err := sleep(ctx, delay); err != nil {
				out.Err = err
				return out
			}
		}
	}

	out.Err = fmt.Errorf("all models exhausted after %d attempts: %w", len(out.Attempts), lastErr)
	return out
}

// Simple retries fn up to maxRetries total calls with a fixed
// base-2 exponential delay and no failure classification. Unlike Do
// it has no fallback models and no outcome value: the last error is
// returned to the caller after exhaustion.
func Simple[T any](ctx context.Context, fn func(context.Context) (T, error), maxRetries int, baseDelay time.Duration) (T, error) {
	var zero T
	if maxRetries < 1 {
		maxRetries = 1
	}
	if baseDelay <= 0 {
		baseDelay = DefaultConfig.BaseDelay
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		data, err := fn(ctx)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if attempt < maxRetries {
			delay := baseDelay * time.Duration(1<<(attempt-1))
			if err := sleep(ctx, delay); err != nil {
				return zero, err
			}
		}
	}
	return zero, lastErr
}

// modelSequence is the full try order: the initial model first, then
// the fallback order with the initial model deduplicated.
func modelSequence(initial string, order []string) []string {
	seq := make([]string, 0, len(order)+1)
	seq = append(seq, initial)
	for _, m := range order {
		if m != initial {
			seq = append(seq, m)
		}
	}
	return seq
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
