package processing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Small purpose-built schemas keep these tests about the validation
// mechanics; the real plan schema is covered in its own package.
type testExercise struct {
	Name      string   `json:"name" validate:"required,min=1"`
	Category  string   `json:"category" validate:"required,oneof=strength cardio flexibility balance core"`
	Sets      int      `json:"sets" validate:"gte=0"`
	Equipment []string `json:"equipment"`
}

type testSession struct {
	DayOfWeek int            `json:"dayOfWeek" validate:"gte=0,lte=6"`
	Exercises []testExercise `json:"exercises" validate:"dive"`
}

type testPlan struct {
	Name            string        `json:"name" validate:"required,min=1,max=100"`
	Description     string        `json:"description" validate:"max=500"`
	DurationWeeks   int           `json:"durationWeeks" validate:"gte=1,lte=52"`
	SessionsPerWeek int           `json:"sessionsPerWeek" validate:"gte=1,lte=7"`
	Sessions        []testSession `json:"sessions" validate:"dive"`
}

func TestParse_Success(t *testing.T) {
	raw := `{"name": "Beginner Plan", "durationWeeks": 4, "sessionsPerWeek": 3}`

	result := Parse[testPlan](raw)

	require.True(t, result.Success)
	require.NotNil(t, result.Data)
	assert.Equal(t, "Beginner Plan", result.Data.Name)
	assert.Equal(t, 4, result.Data.DurationWeeks)
	assert.Empty(t, result.Errors)
}

func TestParse_FencedEqualsBare(t *testing.T) {
	bare := `{"name": "Beginner Plan", "durationWeeks": 4, "sessionsPerWeek": 3}`
	fenced := "```json\n" + bare + "\n```"

	a := Parse[testPlan](bare)
	b := Parse[testPlan](fenced)

	require.True(t, a.Success)
	require.True(t, b.Success)
	assert.Equal(t, a.Data, b.Data)
}

func TestParse_InvalidJSON(t *testing.T) {
	result := Parse[testPlan]("This is not JSON {broken")

	assert.False(t, result.Success)
	assert.Nil(t, result.Data)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeInvalidJSON, result.Errors[0].Code)
	assert.Empty(t, result.Errors[0].Path)
	assert.NotEmpty(t, result.Errors[0].Message)
}

func TestParse_SchemaViolations(t *testing.T) {
	raw := `{"name": "", "durationWeeks": 100, "sessionsPerWeek": 8}`

	result := Parse[testPlan](raw)

	require.False(t, result.Success)
	require.NotEmpty(t, result.Errors)

	byPath := map[string]ValidationError{}
	for _, e := range result.Errors {
		byPath[e.Path] = e
	}

	require.Contains(t, byPath, "name")
	assert.Equal(t, CodeRequired, byPath["name"].Code)

	require.Contains(t, byPath, "durationWeeks")
	assert.Equal(t, CodeTooBig, byPath["durationWeeks"].Code)
	assert.Equal(t, "<= 52", byPath["durationWeeks"].Expected)

	require.Contains(t, byPath, "sessionsPerWeek")
	assert.Equal(t, CodeTooBig, byPath["sessionsPerWeek"].Code)
}

func TestParse_NestedPaths(t *testing.T) {
	raw := `{
		"name": "Plan",
		"durationWeeks": 4,
		"sessionsPerWeek": 2,
		"sessions": [
			{"dayOfWeek": 1, "exercises": [{"name": "Squat", "category": "strength", "sets": 3}]},
			{"dayOfWeek": 9, "exercises": [{"name": "", "category": "yoga", "sets": -1}]}
		]
	}`

	result := Parse[testPlan](raw)

	require.False(t, result.Success)

	byPath := map[string]ValidationError{}
	for _, e := range result.Errors {
		byPath[e.Path] = e
	}

	require.Contains(t, byPath, "sessions.1.dayOfWeek")
	assert.Equal(t, CodeTooBig, byPath["sessions.1.dayOfWeek"].Code)

	require.Contains(t, byPath, "sessions.1.exercises.0.name")
	assert.Equal(t, CodeRequired, byPath["sessions.1.exercises.0.name"].Code)

	require.Contains(t, byPath, "sessions.1.exercises.0.category")
	assert.Equal(t, CodeInvalidEnum, byPath["sessions.1.exercises.0.category"].Code)
	assert.Equal(t, "one of [strength, cardio, flexibility, balance, core]",
		byPath["sessions.1.exercises.0.category"].Expected)

	require.Contains(t, byPath, "sessions.1.exercises.0.sets")
	assert.Equal(t, CodeTooSmall, byPath["sessions.1.exercises.0.sets"].Code)
}

func TestParse_TypeMismatch(t *testing.T) {
	raw := `{"name": "Plan", "durationWeeks": "four", "sessionsPerWeek": 3}`

	result := Parse[testPlan](raw)

	require.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeInvalidType, result.Errors[0].Code)
	assert.Equal(t, "durationWeeks", result.Errors[0].Path)
}

func TestValidateStruct_Clean(t *testing.T) {
	plan := testPlan{Name: "Plan", DurationWeeks: 4, SessionsPerWeek: 3}
	assert.Nil(t, ValidateStruct(&plan))
}

func TestValidationErrorPrompt(t *testing.T) {
	errs := []ValidationError{
		{Path: "name", Message: "must be at least 1 character", Code: CodeTooSmall, Expected: ">= 1"},
		{Path: "sessions.0.dayOfWeek", Message: "must be 6 or less", Code: CodeTooBig, Expected: "<= 6"},
		{Path: "", Message: "unexpected end of JSON input", Code: CodeInvalidJSON},
	}

	prompt := ValidationErrorPrompt(errs)

	assert.Contains(t, prompt, "validation errors")
	assert.Contains(t, prompt, "name:")
	assert.Contains(t, prompt, "sessions.0.dayOfWeek:")
	assert.Contains(t, prompt, "response:")
	assert.Contains(t, prompt, "(expected <= 6)")
}
