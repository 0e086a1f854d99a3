package processing

import (
	"encoding/json"
	"strings"
)

const fence = "```"

// ExtractJSON locates the JSON document inside raw model text. Models
// rarely return bare JSON: they wrap it in markdown fences, prepend
// commentary, or emit reasoning blocks first. Resolution order is a
// fenced code block, then the first balanced top-level object or
// array, then the whole trimmed text. The returned error is the parse
// error of the last resort attempt and means no strategy produced a
// parseable document.
func ExtractJSON(text string) (string, error) {
	content, _ := StripReasoning(text)

	if body, ok := fencedBlock(content); ok && json.Valid([]byte(body)) {
		return body, nil
	}
	if region, ok := balancedRegion(content); ok && json.Valid([]byte(region)) {
		return region, nil
	}

	trimmed := strings.TrimSpace(content)
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return "", err
	}
	return trimmed, nil
}

// fencedBlock returns the body of the first markdown code fence,
// ignoring the info string ("json", "javascript", ...) on the opening
// line.
func fencedBlock(text string) (string, bool) {
	start := strings.Index(text, fence)
	if start == -1 {
		return "", false
	}

	rest := text[start+len(fence):]
	nl := strings.IndexByte(rest, '\n')
	if nl == -1 {
		return "", false
	}

	body := rest[nl+1:]
	end := strings.Index(body, fence)
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(body[:end]), true
}

// balancedRegion returns the first top-level {...} or [...] region,
// tracking string literals so braces inside values do not affect the
// depth count.
func balancedRegion(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return "", false
	}

	open := text[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
