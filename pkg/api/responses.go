package api

import "time"

// EstimateResponse reports a dry-run token/cost projection plus the
// budget decision that would gate a real generation.
type EstimateResponse struct {
	Model                 string   `json:"model"`
	InputTokens           int      `json:"input_tokens"`
	EstimatedOutputTokens int      `json:"estimated_output_tokens"`
	TotalTokens           int      `json:"total_tokens"`
	EstimatedCostUSD      float64  `json:"estimated_cost_usd"`
	ModelContextLimit     int      `json:"model_context_limit"`
	WithinContextLimit    bool     `json:"within_context_limit"`
	Allowed               bool     `json:"allowed"`
	Reasons               []string `json:"reasons,omitempty"`
}

// PlanResponse is the outbound shape of a stored workout plan.
type PlanResponse struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	Goal            string            `json:"goal"`
	Difficulty      string            `json:"difficulty"`
	DurationWeeks   int               `json:"duration_weeks"`
	SessionsPerWeek int               `json:"sessions_per_week"`
	Sessions        []SessionResponse `json:"sessions"`
	Model           string            `json:"model"`
	CreatedAt       time.Time         `json:"created_at"`
}

type SessionResponse struct {
	DayOfWeek       int                `json:"day_of_week"`
	Name            string             `json:"name"`
	DurationMinutes int                `json:"duration_minutes"`
	WarmUp          []ExerciseResponse `json:"warm_up,omitempty"`
	MainWorkout     []ExerciseResponse `json:"main_workout"`
	CoolDown        []ExerciseResponse `json:"cool_down,omitempty"`
}

type ExerciseResponse struct {
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	Sets            int      `json:"sets,omitempty"`
	Reps            string   `json:"reps,omitempty"`
	DurationSeconds int      `json:"duration_seconds,omitempty"`
	RestSeconds     int      `json:"rest_seconds,omitempty"`
	Equipment       []string `json:"equipment,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// GenerateResponse pairs the freshly created plan with the accounting
// of the generation that produced it.
type GenerateResponse struct {
	Plan       PlanResponse   `json:"plan"`
	Generation GenerationMeta `json:"generation"`
}

// GenerationMeta summarizes what a single generation cost and how hard
// the orchestrator had to work for it.
type GenerationMeta struct {
	ID           string  `json:"id"`
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	Attempts     int     `json:"attempts"`
	Coerced      bool    `json:"coerced"`
	Reprompted   bool    `json:"reprompted"`
}

// GenerationResponse is one row of the generation audit log.
type GenerationResponse struct {
	ID               string    `json:"id"`
	PlanID           string    `json:"plan_id,omitempty"`
	Model            string    `json:"model"`
	Status           string    `json:"status"`
	InputTokens      int       `json:"input_tokens"`
	OutputTokens     int       `json:"output_tokens"`
	EstimatedCostUSD float64   `json:"estimated_cost_usd"`
	Attempts         int       `json:"attempts"`
	Coerced          bool      `json:"coerced"`
	Reprompted       bool      `json:"reprompted"`
	LatencyMs        int64     `json:"latency_ms"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ModelResponse describes one catalog entry for the models endpoint.
type ModelResponse struct {
	ID               string  `json:"id"`
	ContextLimit     int     `json:"context_limit"`
	MaxOutputTokens  int     `json:"max_output_tokens"`
	InputPricePer1K  float64 `json:"input_price_per_1k"`
	OutputPricePer1K float64 `json:"output_price_per_1k"`
	Encoding         string  `json:"encoding"`
	Provider         string  `json:"provider,omitempty"`
}

// ListResponse wraps paginated collections.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// HealthResponse is the liveness/readiness document.
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Providers map[string]string `json:"providers,omitempty"`
}
