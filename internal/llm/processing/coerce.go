package processing

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FieldKind is the shape a coercion rule expects for its field.
type FieldKind uint8

const (
	// FieldNumber converts numeric-looking strings ("3", "45.5") to
	// numbers. Strings that do not parse are left alone for the
	// validator to report.
	FieldNumber FieldKind = iota
	// FieldArray wraps a bare scalar in a one-element array. Objects
	// and nulls are never wrapped.
	FieldArray
	// FieldString renders a bare number as its decimal string. Models
	// often emit reps as 12 where the schema wants "12" or "8-12".
	FieldString
)

// Ruleset maps JSON field names to their expected kinds. Rules are
// data: models drift in new ways, new entries are added here, control
// flow stays put. A rule applies to every field with that name at any
// depth of the document.
type Ruleset map[string]FieldKind

// Apply walks an untyped JSON tree and normalizes each field named in
// the ruleset. The input tree is mutated and returned. Coercion never
// invents values: it only reshapes what the model already produced.
func (rs Ruleset) Apply(v any) any {
	switch node := v.(type) {
	case map[string]any:
		for key, child := range node {
			child = rs.Apply(child)
			if kind, ok := rs[key]; ok {
				child = coerce(kind, child)
			}
			node[key] = child
		}
		return node
	case []any:
		for i, child := range node {
			node[i] = rs.Apply(child)
		}
		return node
	default:
		return v
	}
}

func coerce(kind FieldKind, v any) any {
	switch kind {
	case FieldNumber:
		s, ok := v.(string)
		if !ok {
			return v
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return v
		}
		return f
	case FieldArray:
		switch v.(type) {
		case []any, map[string]any, nil:
			return v
		default:
			return []any{v}
		}
	case FieldString:
		f, ok := v.(float64)
		if !ok {
			return v
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return v
}

// CoerceAndValidate re-extracts the JSON document from raw model
// text, applies the ruleset, and runs schema validation exactly once
// more. It is the opt-in second chance after a failed Parse; it is
// never invoked implicitly.
func CoerceAndValidate[T any](text string, rules Ruleset) Result[T] {
	raw, err := ExtractJSON(text)
	if err != nil {
		return Result[T]{Errors: []ValidationError{{
			Message: err.Error(),
			Code:    CodeInvalidJSON,
		}}}
	}

	var tree any
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		return Result[T]{Errors: []ValidationError{{
			Message: err.Error(),
			Code:    CodeInvalidJSON,
		}}}
	}

	normalized, err := json.Marshal(rules.Apply(tree))
	if err != nil {
		return Result[T]{Errors: []ValidationError{{
			Message: err.Error(),
			Code:    CodeInvalidType,
		}}}
	}
	return decodeAndValidate[T](normalized)
}
