package fuzzy

import (
	"slices"
	"strings"
)

// Normalize lowercases s and strips every character outside [a-z0-9].
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Distance is the Levenshtein edit distance between a and b, with insertion,
// deletion and substitution each costing 1. Callers are expected to pass
// normalized strings.
func Distance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	if a == b {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// Score rates candidate against query. It returns ok=false for an empty query.
// A substring hit scores 0 without computing any distances; otherwise the score
// is the best of the whole-name distance and the per-token distances, so that
// matching a single word (a last name, typically) is rewarded even when the
// full name differs.
func Score(candidate, query string) (int, bool) {
	q := Normalize(query)
	if q == "" {
		return 0, false
	}

	c := Normalize(candidate)
	if strings.Contains(c, q) {
		return 0, true
	}

	best := Distance(c, q)
	for _, token := range strings.Fields(candidate) {
		if d := Distance(Normalize(token), q); d < best {
			best = d
		}
	}

	return best, true
}

// MaxDistance is the adaptive score cutoff for a query: 2 for short queries,
// half the normalized length (floored, never below 2) for longer ones.
func MaxDistance(query string) int {
	n := len(Normalize(query))
	if n <= 3 {
		return 2
	}
	return max(2, n/2)
}

type Match[T any] struct {
	Item  T
	Score int
}

// Search scores every item against query, keeps those within MaxDistance,
// orders ascending by score with case-insensitive name ties, and truncates to
// limit. A blank query returns nothing without scoring anything.
func Search[T any](items []T, name func(T) string, query string, limit int) []Match[T] {
	if strings.TrimSpace(query) == "" {
		return []Match[T]{}
	}

	cutoff := MaxDistance(query)

	matches := make([]Match[T], 0)
	for _, item := range items {
		score, ok := Score(name(item), query)
		if !ok || score > cutoff {
			continue
		}
		matches = append(matches, Match[T]{Item: item, Score: score})
	}

	slices.SortStableFunc(matches, func(a, b Match[T]) int {
		if a.Score != b.Score {
			return a.Score - b.Score
		}
		return strings.Compare(strings.ToLower(name(a.Item)), strings.ToLower(name(b.Item)))
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	return matches
}
