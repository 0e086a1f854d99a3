// Package budget gates paid model calls. It is pure decision logic:
// estimates come in, a complete list of violated ceilings comes out,
// and the caller chooses what to do about it.
package budget

import (
	"fmt"

	"github.com/poolchaos/personalfit-api/internal/config"
	"github.com/poolchaos/personalfit-api/internal/tokens"
)

// Budget is a set of caller-declared ceilings for one request.
type Budget struct {
	MaxInputTokens  int
	MaxOutputTokens int
	MaxTotalTokens  int
	MaxCostUSD      float64
}

// DefaultWorkout is the well-known budget for workout-plan generation.
var DefaultWorkout = Budget{
	MaxInputTokens:  8000,
	MaxOutputTokens: 4000,
	MaxTotalTokens:  12000,
	MaxCostUSD:      0.10,
}

// FromConfig converts a configured budget, falling back to the workout
// default for any ceiling left at zero.
func FromConfig(c config.BudgetConfig) Budget {
	b := DefaultWorkout
	if c.MaxInputTokens > 0 {
		b.MaxInputTokens = c.MaxInputTokens
	}
	if c.MaxOutputTokens > 0 {
		b.MaxOutputTokens = c.MaxOutputTokens
	}
	if c.MaxTotalTokens > 0 {
		b.MaxTotalTokens = c.MaxTotalTokens
	}
	if c.MaxCostUSD > 0 {
		b.MaxCostUSD = c.MaxCostUSD
	}
	return b
}

// Tighten lowers ceilings to the override's values where those are
// stricter. Overrides can never widen a budget.
func (b Budget) Tighten(maxInput, maxOutput, maxTotal int, maxCost float64) Budget {
	out := b
	if maxInput > 0 && maxInput < out.MaxInputTokens {
		out.MaxInputTokens = maxInput
	}
	if maxOutput > 0 && maxOutput < out.MaxOutputTokens {
		out.MaxOutputTokens = maxOutput
	}
	if maxTotal > 0 && maxTotal < out.MaxTotalTokens {
		out.MaxTotalTokens = maxTotal
	}
	if maxCost > 0 && maxCost < out.MaxCostUSD {
		out.MaxCostUSD = maxCost
	}
	return out
}

// CheckResult reports the decision. Allowed is true exactly when
// Reasons is empty.
type CheckResult struct {
	Allowed bool
	Reasons []string
}

// Check evaluates every ceiling independently so the caller gets the
// full violation list, not just the first hit.
func Check(est tokens.Estimate, b Budget) CheckResult {
	var reasons []string

	if est.InputTokens > b.MaxInputTokens {
		reasons = append(reasons, fmt.Sprintf(
			"input tokens %d exceed limit %d", est.InputTokens, b.MaxInputTokens))
	}
	if est.EstimatedOutputTokens > b.MaxOutputTokens {
		reasons = append(reasons, fmt.Sprintf(
			"estimated output tokens %d exceed limit %d", est.EstimatedOutputTokens, b.MaxOutputTokens))
	}
	if est.TotalTokens > b.MaxTotalTokens {
		reasons = append(reasons, fmt.Sprintf(
			"total tokens %d exceed limit %d", est.TotalTokens, b.MaxTotalTokens))
	}
	if est.EstimatedCost > b.MaxCostUSD {
		reasons = append(reasons, fmt.Sprintf(
			"estimated cost $%.4f exceeds limit $%.4f", est.EstimatedCost, b.MaxCostUSD))
	}
	if !est.WithinContextLimit {
		reasons = append(reasons, fmt.Sprintf(
			"total tokens %d reach the %s context limit of %d", est.TotalTokens, est.Model, est.ModelContextLimit))
	}

	return CheckResult{
		Allowed: len(reasons) == 0,
		Reasons: reasons,
	}
}
