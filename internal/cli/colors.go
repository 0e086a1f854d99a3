// Package cli holds the small amount of terminal styling the service
// does: startup provider status lines and the dev console log encoder.
package cli

import (
	"fmt"
	"os"
)

const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
)

// colorOff honors https://no-color.org; checked once at startup.
var colorOff = func() bool {
	_, set := os.LookupEnv("NO_COLOR")
	return set
}()

// Enabled reports whether color output is active for this process.
func Enabled() bool {
	return !colorOff
}

// Style wraps text in the given ANSI code, or returns it untouched
// when color is disabled.
func Style(text, code string) string {
	if colorOff {
		return text
	}
	return fmt.Sprintf("%s%s%s", code, text, Reset)
}

func CheckMark() string   { return Style("✔", Green) }
func WarningSign() string { return Style("⚠", Yellow) }
