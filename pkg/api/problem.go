package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Problem type URIs published by this API. Kept stable so clients can
// switch on them programmatically.
const (
	TypeValidation       = "https://personalfit.dev/problems/validation"
	TypeBudgetExceeded   = "https://personalfit.dev/problems/budget-exceeded"
	TypeProviderFailure  = "https://personalfit.dev/problems/provider-failure"
	TypeModelExhausted   = "https://personalfit.dev/problems/models-exhausted"
	TypeMalformedPlan    = "https://personalfit.dev/problems/malformed-plan"
	TypeUnknownResource  = "about:blank"
)

// Problem implements RFC 9457
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]interface{} `json:"-"`

	Log error `json:"-"`
}

func (p *Problem) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

func (p *Problem) MarshalJSON() ([]byte, error) {
	type Alias Problem

	data := make(map[string]interface{})

	for k, v := range p.Extensions {
		data[k] = v
	}

	stdJSON, _ := json.Marshal(Alias(*p))
	_ = json.Unmarshal(stdJSON, &data)

	return json.Marshal(data)
}

type ProblemOption func(*Problem)

// NewProblem creates a generic Problem
func NewProblem(status int, title, detail string, opts ...ProblemOption) *Problem {
	p := &Problem{
		Type:       "about:blank", // Default as per RFC
		Title:      title,
		Status:     status,
		Detail:     detail,
		Extensions: make(map[string]interface{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// WithExtension adds a custom key-value pair to the response
func WithExtension(key string, value interface{}) ProblemOption {
	return func(p *Problem) {
		p.Extensions[key] = value
	}
}

// WithLog attaches an internal error for server-side logging
func WithLog(err error) ProblemOption {
	return func(p *Problem) {
		p.Log = err
	}
}

// WithType sets the RFC "type" URI
func WithType(uri string) ProblemOption {
	return func(p *Problem) {
		p.Type = uri
	}
}

// WithInstance sets the request path the problem occurred on
func WithInstance(path string) ProblemOption {
	return func(p *Problem) {
		p.Instance = path
	}
}

// ValidationProblem reports one or more request fields that failed
// binding validation. Field errors ride in the "errors" extension.
func ValidationProblem(fieldErrors map[string]string) *Problem {
	return NewProblem(
		http.StatusBadRequest,
		"Validation Error",
		"One or more fields failed validation",
		WithType(TypeValidation),
		WithExtension("errors", fieldErrors),
	)
}

// PlanValidationProblem reports that a generated plan could not be
// repaired into a valid shape. Schema errors ride in the
// "validation_errors" extension.
func PlanValidationProblem(detail string, errs interface{}) *Problem {
	return NewProblem(
		http.StatusBadGateway,
		"Malformed Plan",
		detail,
		WithType(TypeMalformedPlan),
		WithExtension("validation_errors", errs),
	)
}

// BudgetExceededProblem is returned before any provider call is made.
// Every violated constraint is listed in the "reasons" extension.
func BudgetExceededProblem(reasons []string) *Problem {
	return NewProblem(
		http.StatusUnprocessableEntity,
		"Budget Exceeded",
		"The request exceeds the configured token or cost budget",
		WithType(TypeBudgetExceeded),
		WithExtension("reasons", reasons),
	)
}

// ModelsExhaustedProblem is returned after every candidate model and
// retry has been consumed without a successful generation.
func ModelsExhaustedProblem(attempts int, lastErr string) *Problem {
	return NewProblem(
		http.StatusServiceUnavailable,
		"Generation Unavailable",
		"All candidate models failed; try again shortly",
		WithType(TypeModelExhausted),
		WithExtension("attempts", attempts),
		WithExtension("last_error", lastErr),
	)
}

// BadRequestError creates a standard error for a bad request
func BadRequestError(detail string, opts ...ProblemOption) *Problem {
	return NewProblem(http.StatusBadRequest, "Bad Request", detail, opts...)
}

// NotFoundError creates a standard 404 error
func NotFoundError(detail string) *Problem {
	return NewProblem(http.StatusNotFound, "Not Found", detail)
}

// UnauthorizedError creates a 401 unauthed error
func UnauthorizedError(detail string) *Problem {
	return NewProblem(http.StatusUnauthorized, "Unauthorized", detail)
}

// RateLimitError creates standard 429 rate limit error
func RateLimitError(detail string) *Problem {
	return NewProblem(http.StatusTooManyRequests, "Too Many Requests", detail)
}

// ProviderError creates a 502 gateway error for upstream AI provider
// failures that were the provider's fault, not the caller's.
func ProviderError(detail string, err error) *Problem {
	return NewProblem(http.StatusBadGateway, "Provider Error", detail,
		WithType(TypeProviderFailure), WithLog(err))
}

// InternalError creates a standard error for any internal server error
func InternalError(detail string, err error) *Problem {
	return NewProblem(http.StatusInternalServerError, "Internal Server Error", detail, WithLog(err))
}
