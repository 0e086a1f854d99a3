package cli

import "strings"

// HighlightJSON colorizes a JSON fragment for console output: keys
// blue, string values green, numbers purple, booleans yellow, null
// dim. Structural characters pass through so malformed input degrades
// to plain text rather than erroring.
func HighlightJSON(s string) string {
	if colorOff {
		return s
	}

	var out strings.Builder
	out.Grow(len(s) * 2)

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '"':
			end := scanString(s, i)
			token := s[i:end]
			if isKey(s, end) {
				out.WriteString(Blue + token + Reset)
			} else {
				out.WriteString(Green + token + Reset)
			}
			i = end

		case c == '-' || (c >= '0' && c <= '9'):
			end := scanNumber(s, i)
			out.WriteString(Purple + s[i:end] + Reset)
			i = end

		case hasLiteral(s, i, "true"), hasLiteral(s, i, "false"):
			end := i + 4
			if c == 'f' {
				end++
			}
			out.WriteString(Yellow + s[i:end] + Reset)
			i = end

		case hasLiteral(s, i, "null"):
			out.WriteString(Dim + "null" + Reset)
			i += 4

		default:
			out.WriteByte(c)
			i++
		}
	}

	return out.String()
}

// scanString returns the index just past the closing quote, honoring
// backslash escapes. Unterminated strings run to the end of input.
func scanString(s string, start int) int {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(s)
}

func scanNumber(s string, start int) int {
	i := start + 1
	for i < len(s) && strings.IndexByte("0123456789.eE+-", s[i]) >= 0 {
		i++
	}
	return i
}

// isKey reports whether the token ending at end is followed by a
// colon, i.e. it is an object key.
func isKey(s string, end int) bool {
	for i := end; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			continue
		case ':':
			return true
		default:
			return false
		}
	}
	return false
}

func hasLiteral(s string, i int, lit string) bool {
	return strings.HasPrefix(s[i:], lit)
}
