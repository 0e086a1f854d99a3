package budget

import (
	"testing"

	"github.com/poolchaos/personalfit-api/internal/config"
	"github.com/poolchaos/personalfit-api/internal/tokens"
	"github.com/stretchr/testify/assert"
)

func TestCheck_WithinAllCeilings(t *testing.T) {
	est := tokens.Estimate{
		Model:                 "gpt-4o",
		InputTokens:           5000,
		EstimatedOutputTokens: 3000,
		TotalTokens:           8000,
		EstimatedCost:         0.05,
		ModelContextLimit:     128000,
		WithinContextLimit:    true,
	}

	res := Check(est, DefaultWorkout)

	assert.True(t, res.Allowed)
	assert.Empty(t, res.Reasons)
}

func TestCheck_MassiveRequestDenied(t *testing.T) {
	est := tokens.Estimate{
		Model:                 "gpt-4o",
		InputTokens:           50000,
		EstimatedOutputTokens: 25000,
		TotalTokens:           75000,
		EstimatedCost:         5.0,
		ModelContextLimit:     128000,
		WithinContextLimit:    true,
	}

	res := Check(est, DefaultWorkout)

	assert.False(t, res.Allowed)
	assert.NotEmpty(t, res.Reasons)
}

func TestCheck_EveryViolationReported(t *testing.T) {
	// All five conditions tripped at once; the check must not stop at
	// the first one.
	est := tokens.Estimate{
		Model:                 "default",
		InputTokens:           50000,
		EstimatedOutputTokens: 25000,
		TotalTokens:           75000,
		EstimatedCost:         5.0,
		ModelContextLimit:     8192,
		WithinContextLimit:    false,
	}

	res := Check(est, DefaultWorkout)

	assert.False(t, res.Allowed)
	assert.Len(t, res.Reasons, 5)
}

func TestCheck_SingleViolation(t *testing.T) {
	tests := []struct {
		name string
		est  tokens.Estimate
		hint string
	}{
		{
			name: "input over",
			est: tokens.Estimate{
				InputTokens: 9000, EstimatedOutputTokens: 1000,
				TotalTokens: 10000, EstimatedCost: 0.05,
				ModelContextLimit: 128000, WithinContextLimit: true,
			},
			hint: "input tokens",
		},
		{
			name: "output over",
			est: tokens.Estimate{
				InputTokens: 5000, EstimatedOutputTokens: 4500,
				TotalTokens: 9500, EstimatedCost: 0.05,
				ModelContextLimit: 128000, WithinContextLimit: true,
			},
			hint: "output tokens",
		},
		{
			name: "cost over",
			est: tokens.Estimate{
				InputTokens: 5000, EstimatedOutputTokens: 3000,
				TotalTokens: 8000, EstimatedCost: 0.25,
				ModelContextLimit: 128000, WithinContextLimit: true,
			},
			hint: "cost",
		},
		{
			name: "context limit reached",
			est: tokens.Estimate{
				InputTokens: 5000, EstimatedOutputTokens: 3000,
				TotalTokens: 8000, EstimatedCost: 0.05,
				ModelContextLimit: 8000, WithinContextLimit: false,
			},
			hint: "context limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Check(tt.est, DefaultWorkout)
			assert.False(t, res.Allowed)
			assert.Len(t, res.Reasons, 1)
			assert.Contains(t, res.Reasons[0], tt.hint)
		})
	}
}

func TestCheck_ExactlyAtCeilingAllowed(t *testing.T) {
	// Ceilings are exclusive: equal-to is allowed, only strictly-over
	// is a violation.
	est := tokens.Estimate{
		InputTokens:           8000,
		EstimatedOutputTokens: 4000,
		TotalTokens:           12000,
		EstimatedCost:         0.10,
		ModelContextLimit:     128000,
		WithinContextLimit:    true,
	}

	res := Check(est, DefaultWorkout)
	assert.True(t, res.Allowed)
}

func TestFromConfig(t *testing.T) {
	b := FromConfig(config.BudgetConfig{
		MaxInputTokens: 2000,
		MaxCostUSD:     0.02,
	})

	assert.Equal(t, 2000, b.MaxInputTokens)
	assert.Equal(t, 0.02, b.MaxCostUSD)
	// Zeros fall back to the workout defaults
	assert.Equal(t, DefaultWorkout.MaxOutputTokens, b.MaxOutputTokens)
	assert.Equal(t, DefaultWorkout.MaxTotalTokens, b.MaxTotalTokens)
}

func TestTighten_NeverWidens(t *testing.T) {
	b := DefaultWorkout.Tighten(4000, 0, 50000, 0.5)

	assert.Equal(t, 4000, b.MaxInputTokens)
	assert.Equal(t, DefaultWorkout.MaxOutputTokens, b.MaxOutputTokens)
	// 50000 and 0.5 are wider than the defaults and must be ignored
	assert.Equal(t, DefaultWorkout.MaxTotalTokens, b.MaxTotalTokens)
	assert.Equal(t, DefaultWorkout.MaxCostUSD, b.MaxCostUSD)
}
