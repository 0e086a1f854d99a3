package workout

import (
	"fmt"
	"strings"

	"github.com/poolchaos/personalfit-api/internal/llm/processing"
	"github.com/poolchaos/personalfit-api/internal/retry"
	"github.com/poolchaos/personalfit-api/internal/tokens"
)

// BudgetError means the request was refused before any provider call.
// Reasons holds every violated ceiling, not just the first.
type BudgetError struct {
	Estimate tokens.Estimate
	Reasons  []string
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("generation denied by budget: %s", strings.Join(e.Reasons, "; "))
}

// ExhaustedError means every model in the fallback chain failed.
type ExhaustedError struct {
	Attempts []retry.Attempt
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all models exhausted after %d attempts: %v", len(e.Attempts), e.LastErr)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}

// InvalidResponseError means the provider answered but never produced
// a plan that survives validation, even after coercion and one
// corrective re-prompt.
type InvalidResponseError struct {
	Errors     []processing.ValidationError
	Reprompted bool
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("model response failed validation with %d errors", len(e.Errors))
}
