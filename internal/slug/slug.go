// Package slug derives filesystem-safe directory names from task titles.
package slug

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxLen bounds a slug in runes, before any collision suffix is appended.
const MaxLen = 64

// Fallback is used when a title has no usable characters.
const Fallback = "task"

var reserved = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Generate turns title into a slug: letters, digits, '-' and '_' are kept,
// every other run of characters becomes a single '_'.
//
//	Generate("Buy milk")        == "Buy_milk"
//	Generate("  a/b: c?  ")     == "a_b_c"
func Generate(title string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			if r == '_' {
				pendingSep = true
				continue
			}
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}

	s := strings.Trim(b.String(), "-_")
	if runes := []rune(s); len(runes) > MaxLen {
		s = strings.TrimRight(string(runes[:MaxLen]), "-_")
	}
	if s == "" {
		return Fallback
	}
	if reserved[strings.ToUpper(s)] {
		s += "_" + Fallback
	}
	return s
}

// WithSuffix returns the n-th collision variant of base ("base_n").
func WithSuffix(base string, n int) string {
	return fmt.Sprintf("%s_%d", base, n)
}
