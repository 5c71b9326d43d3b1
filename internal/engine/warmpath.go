package engine

import (
	"container/heap"
	"context"
	"fmt"
	"strings"

	"github.com/lazypower/rapport/internal/config"
	"github.com/lazypower/rapport/internal/graph"
)

// maxExpansions caps the work of one search on pathological graphs.
const maxExpansions = 200000

var seniorTitles = []string{
	"ceo", "cto", "cfo", "coo", "cmo", "cpo", "vp", "vice president",
	"director", "head of", "chief", "president", "partner", "principal",
}

// Target names a person to reach. Query is a name or profile URL. Company is
// optional and used when the person is not in the graph.
type Target struct {
	Query   string `json:"query"`
	Company string `json:"company,omitempty"`
}

// Label is the key the target is reported under. A query narrowed by a
// company is labelled "Query @ Company" so it never collides with the bare
// query.
func (t Target) Label() string {
	if t.Query != "" && t.Company != "" {
		return t.Query + " @ " + t.Company
	}
	return t.displayName()
}

func (t Target) displayName() string {
	if t.Query != "" {
		return t.Query
	}
	return t.Company
}

// WarmPath is one introduction chain from the ego to a target.
type WarmPath struct {
	Keys      []string  `json:"keys"`
	Names     []string  `json:"names"`
	EdgeCosts []float64 `json:"edge_costs"`
	Cost      float64   `json:"cost"`
	Hops      int       `json:"hops"`
	// Introducer is the ego's first hop. Empty for a direct tie.
	Introducer        string   `json:"introducer,omitempty"`
	Evidence          []string `json:"evidence,omitempty"`
	SuggestedApproach string   `json:"suggested_approach,omitempty"`
}

// PathResult is the outcome of a warm path request.
type PathResult struct {
	Target       Target      `json:"target"`
	ResolvedKey  string      `json:"resolved_key,omitempty"`
	ResolvedName string      `json:"resolved_name,omitempty"`
	Match        graph.Match `json:"match,omitempty"`
	Similarity   float64     `json:"similarity,omitempty"`
	Paths        []WarmPath  `json:"paths"`
	Reason       string      `json:"reason,omitempty"`
}

// pathFinder searches the scored graph. Edge cost is 1/(strength+epsilon):
// the ego's edges use its health score for the neighbour, every other edge
// uses PairStrength. Inverse strength is a modelling choice, not a standard.
type pathFinder struct {
	s      *scorer
	cfg    config.PathConfig
	health map[string]HealthScore
	vouch  map[string]VouchScore
	pairs  map[[2]string]float64

	// a target placed by employer only exists for one search
	virtualKey   string
	virtualName  string
	virtualLinks map[string]float64
}

func newPathFinder(s *scorer, health []HealthScore, vouch []VouchScore) *pathFinder {
	pf := &pathFinder{
		s:      s,
		cfg:    s.cfg.Paths,
		health: make(map[string]HealthScore, len(health)),
		vouch:  make(map[string]VouchScore, len(vouch)),
		pairs:  make(map[[2]string]float64),
	}
	for _, h := range health {
		pf.health[h.Key] = h
	}
	for _, v := range vouch {
		pf.vouch[v.Key] = v
	}
	return pf
}

// Find resolves the target and returns up to TopK paths to it.
func (pf *pathFinder) Find(ctx context.Context, t Target) (PathResult, error) {
	res := PathResult{Target: t, Paths: []WarmPath{}}
	pf.virtualKey, pf.virtualName, pf.virtualLinks = "", "", nil

	key, match, sim, ok := pf.resolve(t)
	if !ok {
		res.Reason = ReasonTargetNotFound
		return res, nil
	}
	res.ResolvedKey, res.Match, res.Similarity = key, match, sim
	res.ResolvedName = pf.name(key)

	paths, err := pf.search(ctx, key)
	if err != nil {
		return PathResult{}, fmt.Errorf("warm path %q: %w", t.Label(), err)
	}
	if len(paths) == 0 {
		res.Reason = ReasonNoWarmPath
		return res, nil
	}
	for i := range paths {
		pf.annotate(&paths[i], t)
	}
	res.Paths = paths
	return res, nil
}

func (pf *pathFinder) resolve(t Target) (string, graph.Match, float64, bool) {
	g := pf.s.g
	if t.Query != "" {
		if k, m, ok := g.Lookup(t.Query); ok {
			return k, m, 1, true
		}
		if k, sim, ok := fuzzyLookup(g, t.Query, pf.cfg.FuzzyThreshold); ok {
			return k, graph.MatchFuzzy, round3(sim), true
		}
	}
	if t.Company == "" {
		return "", "", 0, false
	}

	company := graph.NormalizeCompany(t.Company)
	links := make(map[string]float64)
	strength := Saturate(pf.s.cfg.Scoring.Type(string(graph.EdgeColleague)).Weight, pf.s.cfg.Scoring.Saturation)
	for _, k := range g.Keys() {
		for _, p := range g.People[k].Positions {
			if p.Current && graph.NormalizeCompany(p.Company) == company {
				links[k] = strength
				break
			}
		}
	}
	if len(links) == 0 {
		return "", "", 0, false
	}
	pf.virtualKey = "target:" + graph.NormalizeName(t.displayName())
	pf.virtualName = t.displayName()
	pf.virtualLinks = links
	return pf.virtualKey, graph.MatchCompany, 0, true
}

func (pf *pathFinder) name(key string) string {
	if key == pf.virtualKey && key != "" {
		return pf.virtualName
	}
	if p, ok := pf.s.g.People[key]; ok && p.Name != "" {
		return p.Name
	}
	return key
}

func (pf *pathFinder) neighbors(key string) []string {
	g := pf.s.g
	var out []string
	for _, n := range g.Neighbors(key) {
		if key == g.EgoKey {
			if h, ok := pf.health[n]; !ok || h.Status == HealthUnscored {
				continue
			}
		}
		out = append(out, n)
	}
	if _, ok := pf.virtualLinks[key]; ok {
		out = append(out, pf.virtualKey)
	}
	return out
}

func (pf *pathFinder) strength(a, b string) float64 {
	ego := pf.s.g.EgoKey
	switch {
	case a == ego:
		return pf.health[b].Score
	case b == ego:
		return pf.health[a].Score
	case b == pf.virtualKey:
		return pf.virtualLinks[a]
	case a == pf.virtualKey:
		return pf.virtualLinks[b]
	}
	pk := [2]string{a, b}
	if a > b {
		pk = [2]string{b, a}
	}
	if v, ok := pf.pairs[pk]; ok {
		return v
	}
	v := pf.s.PairStrength(a, b)
	pf.pairs[pk] = v
	return v
}

func (pf *pathFinder) cost(a, b string) float64 {
	return 1 / (pf.strength(a, b) + pf.cfg.Epsilon)
}

type partial struct {
	keys  []string
	costs []float64
	cost  float64
	intro string
	id    string
}

type pathHeap []*partial

func (h pathHeap) Len() int { return len(h) }
func (h pathHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	if len(h[i].keys) != len(h[j].keys) {
		return len(h[i].keys) < len(h[j].keys)
	}
	return h[i].id < h[j].id
}
func (h pathHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *pathHeap) Push(x any)   { *h = append(*h, x.(*partial)) }
func (h *pathHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// search runs best-first over loopless partial paths from the ego. Paths are
// popped in cost order, so the first TopK arrivals at the target are the
// cheapest. With distinct introducers only the best path per first hop is
// kept, which also bounds how often each node is expanded.
func (pf *pathFinder) search(ctx context.Context, target string) ([]WarmPath, error) {
	ego := pf.s.g.EgoKey
	h := &pathHeap{{keys: []string{ego}, id: ego}}
	popped := make(map[string]int)
	usedIntro := make(map[string]bool)
	var out []WarmPath

	for expansions := 0; h.Len() > 0 && expansions < maxExpansions; expansions++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := heap.Pop(h).(*partial)
		last := p.keys[len(p.keys)-1]

		if last == target {
			if pf.cfg.DistinctIntroducers && usedIntro[p.intro] {
				continue
			}
			usedIntro[p.intro] = true
			out = append(out, pf.finish(p))
			if len(out) >= pf.cfg.TopK {
				break
			}
			continue
		}

		state, limit := last, pf.cfg.TopK
		if pf.cfg.DistinctIntroducers {
			state, limit = p.intro+"|"+last, 1
		}
		if popped[state] >= limit {
			continue
		}
		popped[state]++
		if len(p.keys)-1 >= pf.cfg.MaxHops {
			continue
		}

		for _, n := range pf.neighbors(last) {
			if contains(p.keys, n) {
				continue
			}
			c := pf.cost(last, n)
			child := &partial{
				keys:  append(append([]string(nil), p.keys...), n),
				costs: append(append([]float64(nil), p.costs...), c),
				cost:  p.cost + c,
				intro: p.intro,
				id:    p.id + "\x00" + n,
			}
			if last == ego {
				child.intro = n
			}
			heap.Push(h, child)
		}
	}
	return out, nil
}

func (pf *pathFinder) finish(p *partial) WarmPath {
	wp := WarmPath{
		Keys:      p.keys,
		Names:     make([]string, len(p.keys)),
		EdgeCosts: make([]float64, len(p.costs)),
		Hops:      len(p.keys) - 1,
	}
	for i, k := range p.keys {
		wp.Names[i] = pf.name(k)
	}
	for i, c := range p.costs {
		wp.EdgeCosts[i] = round3(c)
		wp.Cost += wp.EdgeCosts[i]
	}
	wp.Cost = round3(wp.Cost)
	if wp.Hops >= 2 {
		wp.Introducer = p.keys[1]
	}
	return wp
}

// annotate adds human-readable evidence about the introducer.
func (pf *pathFinder) annotate(wp *WarmPath, t Target) {
	target := wp.Names[len(wp.Names)-1]
	if wp.Introducer == "" {
		wp.Evidence = []string{"direct relationship"}
		wp.SuggestedApproach = fmt.Sprintf("You already know %s; reach out directly.", target)
		return
	}

	intro := pf.s.g.People[wp.Introducer]
	if h, ok := pf.health[intro.Key]; ok {
		wp.Evidence = append(wp.Evidence, fmt.Sprintf("relationship health %.0f (%s)", h.Score, h.Status))
	}
	v, hasVouch := pf.vouch[intro.Key]
	if hasVouch {
		wp.Evidence = append(wp.Evidence, fmt.Sprintf("vouch %.0f (%s)", v.Score, v.Level))
	}
	company := ""
	for _, p := range intro.Positions {
		if !p.Current {
			continue
		}
		if t.Company != "" && graph.NormalizeCompany(p.Company) == graph.NormalizeCompany(t.Company) {
			company = p.Company
			wp.Evidence = append(wp.Evidence, fmt.Sprintf("works at %s", p.Company))
		}
		if isSenior(p.Title) {
			wp.Evidence = append(wp.Evidence, fmt.Sprintf("senior role: %s", p.Title))
		}
	}
	if next := wp.Keys[2]; next != pf.virtualKey {
		if o, ok := graph.SharedTenure(intro.Positions, pf.s.g.People[next].Positions, pf.s.now); ok && o.Current {
			company = o.Company
			wp.Evidence = append(wp.Evidence, fmt.Sprintf("works with %s at %s", pf.name(next), o.Company))
		}
	}

	first := firstName(intro.Name)
	switch {
	case hasVouch && v.Score >= 60:
		wp.SuggestedApproach = fmt.Sprintf("Hey %s! I'm trying to connect with %s. Would you be open to making an introduction?", first, target)
	case company != "":
		wp.SuggestedApproach = fmt.Sprintf("Hi %s, hope you're well! I noticed you're at %s. Could you help me reach %s?", first, company, target)
	default:
		wp.SuggestedApproach = fmt.Sprintf("Hi %s, I'm exploring ways to reach %s. Any chance you could point me in the right direction?", first, target)
	}
}

var titlePunct = strings.NewReplacer(",", " ", "/", " ", "&", " ", "-", " ")

func isSenior(title string) bool {
	t := " " + titlePunct.Replace(strings.ToLower(title)) + " "
	for _, s := range seniorTitles {
		if strings.Contains(t, " "+s+" ") {
			return true
		}
	}
	return false
}

func firstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return name
}

func contains(keys []string, k string) bool {
	for _, x := range keys {
		if x == k {
			return true
		}
	}
	return false
}
