package api

// GeneratePlanRequest is the inbound payload for plan generation.
type GeneratePlanRequest struct {
	// Primary training goal, drives the prompt skeleton
	Goal string `json:"goal" binding:"required,oneof=strength muscle_gain fat_loss endurance mobility general_fitness"`

	// Self-reported experience level
	Difficulty string `json:"difficulty" binding:"required,oneof=beginner intermediate advanced"`

	// Days the user can train per week
	DaysPerWeek int `json:"days_per_week" binding:"required,min=1,max=7"`

	// Target length of a single session in minutes
	SessionMinutes int `json:"session_minutes" binding:"required,min=10,max=180"`

	// Plan horizon; optional, the model picks when omitted
	DurationWeeks int `json:"duration_weeks,omitempty" binding:"omitempty,min=1,max=52"`

	// Equipment the user has access to, free-form ("dumbbells", "none")
	Equipment []string `json:"equipment,omitempty" binding:"omitempty,max=20,dive,max=50"`

	// Injuries or constraints the plan must respect
	Restrictions []string `json:"restrictions,omitempty" binding:"omitempty,max=10,dive,max=200"`

	// Preferred model; empty selects the configured default
	Model string `json:"model,omitempty"`

	// Optional per-request budget overrides, clamped server-side
	Budget *BudgetOverride `json:"budget,omitempty"`
}

// BudgetOverride lets a caller tighten (never widen) the named budget
// configured for plan generation.
type BudgetOverride struct {
	MaxInputTokens  int     `json:"max_input_tokens,omitempty" binding:"omitempty,min=1"`
	MaxOutputTokens int     `json:"max_output_tokens,omitempty" binding:"omitempty,min=1"`
	MaxTotalTokens  int     `json:"max_total_tokens,omitempty" binding:"omitempty,min=1"`
	MaxCostUSD      float64 `json:"max_cost_usd,omitempty" binding:"omitempty,gt=0"`
}

// EstimatePlanRequest asks for a dry-run cost/size estimate without
// calling any provider. Same shape as generation minus the overrides.
type EstimatePlanRequest struct {
	Goal           string   `json:"goal" binding:"required,oneof=strength muscle_gain fat_loss endurance mobility general_fitness"`
	Difficulty     string   `json:"difficulty" binding:"required,oneof=beginner intermediate advanced"`
	DaysPerWeek    int      `json:"days_per_week" binding:"required,min=1,max=7"`
	SessionMinutes int      `json:"session_minutes" binding:"required,min=10,max=180"`
	DurationWeeks  int      `json:"duration_weeks,omitempty" binding:"omitempty,min=1,max=52"`
	Equipment      []string `json:"equipment,omitempty" binding:"omitempty,max=20,dive,max=50"`
	Restrictions   []string `json:"restrictions,omitempty" binding:"omitempty,max=10,dive,max=200"`
	Model          string   `json:"model,omitempty"`

	// Expected output size relative to input; 0 uses the server default
	OutputRatio float64 `json:"output_ratio,omitempty" binding:"omitempty,gt=0,lte=4"`
}

// ListQuery is the shared pagination shape for list endpoints.
type ListQuery struct {
	Limit  int `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset,default=0" binding:"omitempty,min=0"`
}
