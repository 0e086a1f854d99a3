package model

import (
	"database/sql"
	"time"
)

// Generation statuses.
const (
	StatusSucceeded       = "succeeded"
	StatusBudgetDenied    = "budget_denied"
	StatusExhausted       = "exhausted"
	StatusInvalidResponse = "invalid_response"
)

// StoredPlan is a persisted workout plan. The full plan document is
// kept as JSON in Document; hot columns are broken out for listing
// and filtering without deserializing every row.
type StoredPlan struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	Name            string    `db:"name" json:"name"`
	Goal            string    `db:"goal" json:"goal"`
	Difficulty      string    `db:"difficulty" json:"difficulty"`
	DurationWeeks   int       `db:"duration_weeks" json:"duration_weeks"`
	SessionsPerWeek int       `db:"sessions_per_week" json:"sessions_per_week"`
	Document        string    `db:"document" json:"-"`
	ModelUsed       string    `db:"model_used" json:"model_used"`
	GenerationID    string    `db:"generation_id" json:"generation_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Generation captures the full account of one plan-generation request:
// what was asked, what it cost, how many attempts it took, and how it
// ended.
type Generation struct {
	ID               string         `db:"id" json:"id"`
	UserID           string         `db:"user_id" json:"user_id"`
	PlanID           sql.NullString `db:"plan_id" json:"plan_id,omitempty"`
	ModelRequested   string         `db:"model_requested" json:"model_requested"`
	ModelUsed        string         `db:"model_used" json:"model_used"`
	Status           string         `db:"status" json:"status"`
	InputTokens      int            `db:"input_tokens" json:"input_tokens"`
	OutputTokens     int            `db:"output_tokens" json:"output_tokens"`
	EstimatedCostUSD float64        `db:"estimated_cost_usd" json:"estimated_cost_usd"`
	ActualCostUSD    float64        `db:"actual_cost_usd" json:"actual_cost_usd"`
	AttemptCount     int            `db:"attempt_count" json:"attempt_count"`
	AttemptsJSON     string         `db:"attempts_json" json:"-"`
	Coerced          bool           `db:"coerced" json:"coerced"`
	Reprompted       bool           `db:"reprompted" json:"reprompted"`
	ErrorText        string         `db:"error_text" json:"error_text,omitempty"`
	LatencyMS        int64          `db:"latency_ms" json:"latency_ms"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
}

// APIKey is the credential used to access the API.
type APIKey struct {
	ID         string       `db:"id" json:"id"`
	UserID     string       `db:"user_id" json:"user_id"`
	Name       string       `db:"name" json:"name"`
	KeyHash    string       `db:"key_hash" json:"-"`            // Never return hash
	KeyPrefix  string       `db:"key_prefix" json:"key_prefix"` // Display only
	LastUsedAt sql.NullTime `db:"last_used_at" json:"last_used_at,omitempty"`
	IsActive   bool         `db:"is_active" json:"is_active"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// UsageStat aggregates generation activity for a single day.
type UsageStat struct {
	Day          string  `db:"day" json:"day"`
	Generations  int     `db:"generations" json:"generations"`
	Succeeded    int     `db:"succeeded" json:"succeeded"`
	TotalTokens  int64   `db:"total_tokens" json:"total_tokens"`
	TotalCostUSD float64 `db:"total_cost_usd" json:"total_cost_usd"`
	AvgLatencyMS float64 `db:"avg_latency_ms" json:"avg_latency_ms"`
}
