// Package terminal turns the raw byte stream of an interactive shell into
// readable text: it drains output until the line goes quiet and renders
// destructive backspace editing the way a real terminal would.
package terminal

import (
	"regexp"
	"strings"
)

var ansiPattern = regexp.MustCompile(`\x1b(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

// Normalize applies backspace (0x08) editing to s. The switches echo
// corrections like "MVOO\b:" which should render as "MVO:". A backspace with
// nothing left to delete is a no-op. The result contains no backspaces, so
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if !strings.ContainsRune(s, '\b') {
		return s
	}

	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\b' {
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// StripANSI removes ANSI escape sequences (colors, cursor movement).
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
