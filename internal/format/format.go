// Package format renders large magnitudes in abbreviated human form.
package format

import "fmt"

// Number abbreviates n with K/M/B suffixes. Comparisons use >= so exact
// thousands roll over: 1,000,000 renders as "1.0M", not "1000.0K".
func Number(n float64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", n/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", n/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", n/1_000)
	default:
		return fmt.Sprintf("%.0f", n)
	}
}
