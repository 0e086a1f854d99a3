package workout

import (
	"fmt"
	"strings"

	"github.com/poolchaos/personalfit-api/pkg/api"
)

// systemPrompt pins the output contract. The schema example is spelled
// out because models follow a shown shape far more reliably than a
// described one.
const systemPrompt = `You are an experienced personal trainer who designs structured workout plans.

Respond with a single JSON object and nothing else: no prose, no markdown fences, no explanations.

The JSON object must match this shape exactly:
{
  "name": "string, plan title",
  "description": "string, one or two sentences",
  "goal": "one of: strength, muscle_gain, fat_loss, endurance, mobility, general_fitness",
  "difficulty": "one of: beginner, intermediate, advanced",
  "durationWeeks": 8,
  "sessionsPerWeek": 3,
  "sessions": [
    {
      "dayOfWeek": 1,
      "name": "string, session title",
      "durationMinutes": 45,
      "warmup": [ { "name": "...", "category": "...", "durationSeconds": 120 } ],
      "mainWorkout": [
        {
          "name": "string, exercise name",
          "category": "one of: strength, cardio, flexibility, balance, core",
          "sets": 3,
          "reps": "8-12",
          "restSeconds": 90,
          "equipment": ["dumbbells"],
          "notes": "string, optional form cue"
        }
      ],
      "cooldown": [ { "name": "...", "category": "flexibility", "durationSeconds": 60 } ]
    }
  ]
}

Rules:
- dayOfWeek is 0 (Sunday) through 6 (Saturday).
- reps is always a string; use ranges like "8-12" where appropriate.
- sets, restSeconds and durationSeconds are numbers, never quoted.
- equipment is always an array of strings.
- Every session must contain at least one mainWorkout exercise.
- Only prescribe equipment the user listed; use bodyweight exercises otherwise.`

// SystemPrompt returns the fixed instruction block sent with every
// generation request.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt renders the request into the user message. Field order is
// fixed so the same request always produces the same text, which keeps
// token estimates reproducible.
func UserPrompt(req api.GeneratePlanRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Create a workout plan.\n")
	fmt.Fprintf(&b, "Goal: %s\n", req.Goal)
	fmt.Fprintf(&b, "Experience level: %s\n", req.Difficulty)
	fmt.Fprintf(&b, "Training days per week: %d\n", req.DaysPerWeek)
	fmt.Fprintf(&b, "Minutes per session: %d\n", req.SessionMinutes)

	if req.DurationWeeks > 0 {
		fmt.Fprintf(&b, "Plan length: %d weeks\n", req.DurationWeeks)
	} else {
		b.WriteString("Plan length: pick a sensible horizon for the goal\n")
	}

	if len(req.Equipment) > 0 {
		fmt.Fprintf(&b, "Available equipment: %s\n", strings.Join(req.Equipment, ", "))
	} else {
		b.WriteString("Available equipment: none, bodyweight only\n")
	}

	if len(req.Restrictions) > 0 {
		fmt.Fprintf(&b, "Injuries or restrictions to respect: %s\n", strings.Join(req.Restrictions, "; "))
	}

	return b.String()
}

// estimateAsGenerate converts the dry-run request so both endpoints
// assemble byte-identical prompts.
func estimateAsGenerate(req api.EstimatePlanRequest) api.GeneratePlanRequest {
	return api.GeneratePlanRequest{
		Goal:           req.Goal,
		Difficulty:     req.Difficulty,
		DaysPerWeek:    req.DaysPerWeek,
		SessionMinutes: req.SessionMinutes,
		DurationWeeks:  req.DurationWeeks,
		Equipment:      req.Equipment,
		Restrictions:   req.Restrictions,
		Model:          req.Model,
	}
}
