package processing

import "strings"

const (
	thinkStart = "<think>"
	thinkEnd   = "</think>"
)

// StripReasoning splits model output into visible content and
// chain-of-thought. Local reasoning models (deepseek-r1 and friends
// served through ollama) emit <think>...</think> blocks before the
// answer; the draft JSON inside them must not be mistaken for the
// real payload. Handles multiple blocks; an unterminated block is
// treated as reasoning to the end of the text.
func StripReasoning(text string) (content string, reasoning string) {
	var visible strings.Builder
	var thought strings.Builder

	cursor := 0
	for cursor < len(text) {
		start := strings.Index(text[cursor:], thinkStart)
		if start == -1 {
			visible.WriteString(text[cursor:])
			break
		}

		visible.WriteString(text[cursor : cursor+start])
		cursor += start + len(thinkStart)

		end := strings.Index(text[cursor:], thinkEnd)
		if end == -1 {
			thought.WriteString(text[cursor:])
			break
		}

		thought.WriteString(text[cursor : cursor+end])
		cursor += end + len(thinkEnd)
	}

	return visible.String(), thought.String()
}
