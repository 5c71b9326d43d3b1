package engine

import (
	"strings"

	"github.com/lazypower/rapport/internal/graph"
)

// nameSimilarity scores two display names in [0,1] as the better of bigram
// Jaccard overlap and whole-token containment.
func nameSimilarity(a, b string) float64 {
	a, b = graph.NormalizeName(a), graph.NormalizeName(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	j := jaccard(bigrams(a), bigrams(b))
	if c := tokenContainment(a, b); c > j {
		return c
	}
	return j
}

func bigrams(s string) map[string]bool {
	r := []rune(s)
	if len(r) < 2 {
		return nil
	}
	m := make(map[string]bool, len(r)-1)
	for i := 0; i < len(r)-1; i++ {
		m[string(r[i:i+2])] = true
	}
	return m
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for bg := range a {
		if b[bg] {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}

// tokenContainment is the share of tokens two names have in common, relative
// to the longer name, so "bob" against "bob lee" scores 0.5.
func tokenContainment(a, b string) float64 {
	ta, tb := strings.Fields(a), strings.Fields(b)
	set := make(map[string]bool, len(tb))
	for _, t := range tb {
		set[t] = true
	}
	shared := 0
	for _, t := range ta {
		if set[t] {
			shared++
			delete(set, t)
		}
	}
	n := len(ta)
	if len(tb) > n {
		n = len(tb)
	}
	return float64(shared) / float64(n)
}

// fuzzyLookup returns the person whose display name best matches query at or
// above threshold. Ties go to the smaller key.
func fuzzyLookup(g *graph.Graph, query string, threshold float64) (string, float64, bool) {
	best, bestScore := "", 0.0
	for _, k := range g.Keys() {
		s := nameSimilarity(query, g.People[k].Name)
		if s > bestScore {
			best, bestScore = k, s
		}
	}
	if best == "" || bestScore < threshold {
		return "", bestScore, false
	}
	return best, bestScore, true
}
