package dialog

import "strings"

// Validate decides whether text names a recognized choice.
// It scans vocabulary in order and returns the first entry text contains.
// Matching is case-sensitive.
func Validate(text string, vocabulary []string) (string, bool) {
	for _, v := range vocabulary {
		if v != "" && strings.Contains(text, v) {
			return v, true
		}
	}
	return "", false
}
