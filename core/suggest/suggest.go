// Package suggest produces near-miss suggestions for unknown flags,
// unresolved tool names, and invalid enum values, using edit distance.
package suggest

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

// MaxResults bounds how many suggestions are ever returned.
const MaxResults = 3

type scored struct {
	text  string
	score int
}

// For returns up to MaxResults candidates whose edit distance from input
// is at most maxDistance, ranked closest first and ties broken
// lexicographically.
func For(input string, candidates []string, maxDistance int) []string {
	if input == "" || len(candidates) == 0 {
		return nil
	}
	var matches []scored
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(input, c)
		if d <= maxDistance {
			matches = append(matches, scored{text: c, score: d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score < matches[j].score
		}
		return matches[i].text < matches[j].text
	})
	if len(matches) > MaxResults {
		matches = matches[:MaxResults]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.text
	}
	return out
}
