package processing

import (
	"fmt"
	"strings"
)

// ValidationErrorPrompt renders an error list as a corrective
// instruction block to append to a re-prompt. Every error's path is
// listed so the model can address each field individually.
func ValidationErrorPrompt(errs []ValidationError) string {
	var b strings.Builder

	b.WriteString("Your previous response contained validation errors:\n\n")
	for _, e := range errs {
		path := e.Path
		if path == "" {
			path = "response"
		}
		b.WriteString(fmt.Sprintf("- %s: %s", path, e.Message))
		if e.Expected != "" {
			b.WriteString(fmt.Sprintf(" (expected %s)", e.Expected))
		}
		b.WriteByte('\n')
	}
	b.WriteString("\nReturn the corrected JSON object only, with no surrounding text or markdown fences. ")
	b.WriteString("Fix every field listed above and keep all other fields unchanged.")

	return b.String()
}
