package processing

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Stable error codes. Callers branch on these, never on message text.
const (
	CodeInvalidJSON = "invalid_json"
	CodeTooSmall    = "too_small"
	CodeTooBig      = "too_big"
	CodeInvalidType = "invalid_type"
	CodeInvalidEnum = "invalid_enum_value"
	CodeRequired    = "required"
)

// ValidationError describes one violation in a model response. Path
// uses dot/index notation (sessions.0.mainWorkout.2.sets) so it can be
// echoed back to the model in a corrective prompt.
type ValidationError struct {
	Path     string `json:"path"`
	Message  string `json:"message"`
	Code     string `json:"code"`
	Expected string `json:"expected,omitempty"`
}

// Result is the terminal state of a parse: either Data is set and
// Success is true, or Errors is non-empty. Failures are values here,
// never raised — the caller decides whether to coerce, re-prompt, or
// give up.
type Result[T any] struct {
	Success bool              `json:"success"`
	Data    *T                `json:"data,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// validate is shared across calls; the Validate type is safe for
// concurrent use and caches struct metadata internally.
var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLoc := en.New()
	uni := ut.New(enLoc, enLoc)
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, trans)
}

// Parse extracts a JSON document from raw model text, decodes it into
// T, and checks T's declarative schema tags. Parse never coerces: a
// numeric string in a numeric field is reported, not repaired. Use
// CoerceAndValidate for the repair pass.
func Parse[T any](text string) Result[T] {
	raw, err := ExtractJSON(text)
	if err != nil {
		return Result[T]{Errors: []ValidationError{{
			Message: err.Error(),
			Code:    CodeInvalidJSON,
		}}}
	}
	return decodeAndValidate[T]([]byte(raw))
}

func decodeAndValidate[T any](raw []byte) Result[T] {
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return Result[T]{Errors: unmarshalErrors(err)}
	}
	if errs := ValidateStruct(&value); len(errs) > 0 {
		return Result[T]{Errors: errs}
	}
	return Result[T]{Success: true, Data: &value}
}

// ValidateStruct runs tag validation and flattens the result into the
// stable error shape.
func ValidateStruct(v any) []ValidationError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: v was nil or not a struct.
		return []ValidationError{{Message: err.Error(), Code: CodeInvalidType}}
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Path:     pathOf(fe),
			Message:  messageFor(fe),
			Code:     codeFor(fe),
			Expected: expectedFor(fe),
		})
	}
	return out
}

// unmarshalErrors maps a decode failure on syntactically valid JSON.
// Only type mismatches can occur here; syntax problems were already
// caught during extraction.
func unmarshalErrors(err error) []ValidationError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []ValidationError{{
			Path:     typeErr.Field,
			Message:  fmt.Sprintf("expected %s but got %s", typeErr.Type, typeErr.Value),
			Code:     CodeInvalidType,
			Expected: typeErr.Type.String(),
		}}
	}
	return []ValidationError{{Message: err.Error(), Code: CodeInvalidType}}
}

// pathOf rewrites the validator namespace into dot/index notation:
// Plan.Sessions[0].MainWorkout[2].Sets -> sessions.0.mainWorkout.2.sets
// (field segments already carry json names via RegisterTagNameFunc).
func pathOf(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i != -1 {
		ns = ns[i+1:]
	}
	ns = strings.ReplaceAll(ns, "[", ".")
	ns = strings.ReplaceAll(ns, "]", "")
	return ns
}

func codeFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "gte", "gt":
		return CodeTooSmall
	case "max", "lte", "lt":
		return CodeTooBig
	case "oneof":
		return CodeInvalidEnum
	case "required":
		return CodeRequired
	default:
		return CodeInvalidType
	}
}

func messageFor(fe validator.FieldError) string {
	// The default oneof translation leaks the raw tag param; render it
	// as a readable list instead.
	if fe.Tag() == "oneof" {
		return fmt.Sprintf("must be one of [%s]", strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return fe.Translate(trans)
}

func expectedFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "gte":
		return ">= " + fe.Param()
	case "gt":
		return "> " + fe.Param()
	case "max", "lte":
		return "<= " + fe.Param()
	case "lt":
		return "< " + fe.Param()
	case "oneof":
		return "one of [" + strings.ReplaceAll(fe.Param(), " ", ", ") + "]"
	case "required":
		return "a non-empty value"
	}
	return ""
}
