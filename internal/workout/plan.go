// Package workout owns plan generation end to end: prompt assembly,
// pre-flight budgeting, the orchestrated model call, and persistence
// of both the plan and its generation audit record.
package workout

// Plan is the document a model must return. Keys are camelCase because
// that is what models reliably produce when shown a JSON example; the
// public API renders snake_case from this.
type Plan struct {
	Name            string    `json:"name" validate:"required,min=1,max=100"`
	Description     string    `json:"description,omitempty" validate:"max=500"`
	Goal            string    `json:"goal,omitempty" validate:"omitempty,oneof=strength muscle_gain fat_loss endurance mobility general_fitness"`
	Difficulty      string    `json:"difficulty,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	DurationWeeks   int       `json:"durationWeeks" validate:"gte=1,lte=52"`
	SessionsPerWeek int       `json:"sessionsPerWeek" validate:"gte=1,lte=7"`
	Sessions        []Session `json:"sessions" validate:"required,min=1,dive"`
}

type Session struct {
	DayOfWeek       int        `json:"dayOfWeek" validate:"gte=0,lte=6"`
	Name            string     `json:"name" validate:"required,min=1,max=100"`
	DurationMinutes int        `json:"durationMinutes" validate:"gt=0,lte=240"`
	WarmUp          []Exercise `json:"warmup,omitempty" validate:"omitempty,dive"`
	MainWorkout     []Exercise `json:"mainWorkout" validate:"required,min=1,dive"`
	CoolDown        []Exercise `json:"cooldown,omitempty" validate:"omitempty,dive"`
}

// Exercise keeps Reps as a string: coaches write "8-12" or "AMRAP",
// and flattening that to a number loses the prescription.
type Exercise struct {
	Name            string   `json:"name" validate:"required,min=1,max=120"`
	Category        string   `json:"category" validate:"required,oneof=strength cardio flexibility balance core"`
	Sets            int      `json:"sets,omitempty" validate:"gte=0,lte=20"`
	Reps            string   `json:"reps,omitempty" validate:"max=30"`
	DurationSeconds int      `json:"durationSeconds,omitempty" validate:"gte=0,lte=7200"`
	RestSeconds     int      `json:"restSeconds,omitempty" validate:"gte=0,lte=600"`
	Equipment       []string `json:"equipment,omitempty" validate:"omitempty,max=10,dive,max=50"`
	Notes           string   `json:"notes,omitempty" validate:"max=300"`
}
