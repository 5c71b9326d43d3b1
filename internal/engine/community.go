package engine

import (
	"sort"

	"github.com/lazypower/rapport/internal/graph"
)

// lpaMaxIterations bounds label propagation.
const lpaMaxIterations = 20

// communities assigns each non-ego person a community label by label
// propagation over the edges that do not touch the ego. Parallel edges count
// as a stronger tie. Labels start as the person's own key.
func communities(g *graph.Graph) map[string]string {
	keys := g.Keys()
	adj := make(map[string]map[string]int, len(keys))
	labels := make(map[string]string, len(keys))
	for _, k := range keys {
		adj[k] = make(map[string]int)
		labels[k] = k
	}
	for _, e := range g.Edges {
		if e.From == g.EgoKey || e.To == g.EgoKey {
			continue
		}
		adj[e.From][e.To]++
		adj[e.To][e.From]++
	}

	for iter := 0; iter < lpaMaxIterations; iter++ {
		changed := 0
		for _, u := range keys {
			neighbors := adj[u]
			if len(neighbors) == 0 {
				continue
			}

			counts := make(map[string]int)
			maxCount := 0
			for v, w := range neighbors {
				l := labels[v]
				counts[l] += w
				if counts[l] > maxCount {
					maxCount = counts[l]
				}
			}
			var candidates []string
			for l, c := range counts {
				if c == maxCount {
					candidates = append(candidates, l)
				}
			}
			// keep the current label on a tie, else the largest for stability
			best := ""
			for _, l := range candidates {
				if l == labels[u] {
					best = l
					break
				}
			}
			if best == "" {
				sort.Strings(candidates)
				best = candidates[len(candidates)-1]
			}
			if labels[u] != best {
				labels[u] = best
				changed++
			}
		}
		if changed == 0 {
			break
		}
	}
	return labels
}

// bridgingScore is the probability that two distinct connections drawn at
// random sit in different communities. It is 0 with fewer than two
// connections.
func bridgingScore(g *graph.Graph, labels map[string]string) (score float64, groups int) {
	conns := g.Connections()
	n := len(conns)
	sizes := make(map[string]int)
	for _, k := range conns {
		sizes[labels[k]]++
	}
	if n < 2 {
		return 0, len(sizes)
	}
	same := 0.0
	for _, s := range sizes {
		same += float64(s * (s - 1))
	}
	return 1 - same/float64(n*(n-1)), len(sizes)
}
