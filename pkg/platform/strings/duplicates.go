// Package strings holds string slice helpers shared by validators.
package strings

import (
	"strings"
)

// Duplicates returns each value that appears more than once, in order of its
// second appearance. Comparison is exact after trimming whitespace; empty
// values are ignored.
//
// Example:
//
//	Duplicates([]string{"a@x.io", "b@x.io", " a@x.io"})
//	// Returns: []string{"a@x.io"}
func Duplicates(values []string) []string {
	seen := make(map[string]int, len(values))
	var dups []string
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		seen[trimmed]++
		if seen[trimmed] == 2 {
			dups = append(dups, trimmed)
		}
	}
	return dups
}
