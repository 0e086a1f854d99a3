package workout

import "github.com/poolchaos/personalfit-api/internal/llm/processing"

// CoercionRules normalizes the recurring quirks in model output before
// the single re-validation pass. Each entry came from a real failure
// mode; extending the table is the fix for the next one.
var CoercionRules = processing.Ruleset{
	// Counts that arrive as quoted numbers: "sets": "3".
	"sets":            processing.FieldNumber,
	"restSeconds":     processing.FieldNumber,
	"durationSeconds": processing.FieldNumber,
	"durationMinutes": processing.FieldNumber,
	"dayOfWeek":       processing.FieldNumber,
	"durationWeeks":   processing.FieldNumber,
	"sessionsPerWeek": processing.FieldNumber,

	// Reps is prescriptive text ("8-12"), not a count, but models
	// often emit a bare 12.
	"reps": processing.FieldString,

	// A single equipment item often arrives unwrapped.
	"equipment": processing.FieldArray,
}
