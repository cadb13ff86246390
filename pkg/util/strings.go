package util

import "strings"

// SplitSymbols splits a comma separated ticker list, trimming blanks and
// upper-casing each entry.
func SplitSymbols(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
