// Package graph builds the per-analysis relationship graph from parsed export
// records.
package graph

import (
	"sort"
	"strings"
	"time"
)

// EdgeType identifies the interaction an edge represents.
type EdgeType string

const (
	EdgeConnection             EdgeType = "connection"
	EdgeMessage                EdgeType = "message"
	EdgeEndorsementGiven       EdgeType = "endorsement_given"
	EdgeEndorsementReceived    EdgeType = "endorsement_received"
	EdgeRecommendationGiven    EdgeType = "recommendation_given"
	EdgeRecommendationReceived EdgeType = "recommendation_received"
	EdgeInvitation             EdgeType = "invitation"
	EdgeReaction               EdgeType = "reaction"
	EdgeColleague              EdgeType = "colleague"
	EdgeCoRecipient            EdgeType = "co_recipient"
)

// Undirected reports whether edges of this type have no meaningful direction.
func (t EdgeType) Undirected() bool {
	return t == EdgeConnection || t == EdgeColleague || t == EdgeCoRecipient
}

// Person is a node in the graph.
type Person struct {
	Key        string           `json:"key"`
	Name       string           `json:"name"`
	ProfileURL string           `json:"profile_url,omitempty"`
	Positions  []Position       `json:"positions,omitempty"`
	Counts     map[EdgeType]int `json:"counts"`
	// Connected is set for people in the connections file.
	Connected bool `json:"connected"`
	// Lightweight is set for people only referenced by interactions.
	Lightweight bool `json:"lightweight"`
}

// Edge is one interaction between two people.
type Edge struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	Type EdgeType  `json:"type"`
	At   time.Time `json:"at"`
	// Dated is false when the source row had no date; such edges are aged at
	// the stale horizon.
	Dated        bool   `json:"dated"`
	Skill        string `json:"skill,omitempty"`
	TextLen      int    `json:"text_len,omitempty"`
	Conversation string `json:"conversation,omitempty"`
	Reaction     string `json:"reaction,omitempty"`
}

// Other returns the endpoint opposite key.
func (e *Edge) Other(key string) string {
	if e.From == key {
		return e.To
	}
	return e.From
}

// Graph is one person's network. It is built fresh for each analysis.
type Graph struct {
	People map[string]*Person
	Edges  []*Edge
	EgoKey string
	Ego    Ego
	// Unattributed counts ego activity that names no counterpart, such as
	// reactions to posts without an author column.
	Unattributed int

	adj      map[string][]*Edge
	pairs    map[[2]string][]*Edge
	resolver *Resolver
	names    map[string][]string
}

// New returns an empty graph holding only the ego node.
func New(egoKey, egoName string) *Graph {
	g := &Graph{
		People:   make(map[string]*Person),
		EgoKey:   egoKey,
		adj:      make(map[string][]*Edge),
		pairs:    make(map[[2]string][]*Edge),
		resolver: NewResolver(),
		names:    make(map[string][]string),
	}
	if egoName == "" {
		egoName = "You"
	}
	g.AddPerson(egoKey, egoName, "").Lightweight = false
	return g
}

// AddPerson returns the node for key, creating a lightweight node if needed.
// Empty name and URL fields are filled in from later sightings.
func (g *Graph) AddPerson(key, name, profileURL string) *Person {
	p, ok := g.People[key]
	if !ok {
		p = &Person{Key: key, Counts: make(map[EdgeType]int), Lightweight: true}
		g.People[key] = p
	}
	if p.Name == "" && name != "" {
		p.Name = name
		n := NormalizeName(name)
		g.names[n] = append(g.names[n], key)
	}
	if p.ProfileURL == "" && profileURL != "" {
		p.ProfileURL = profileURL
	}
	return p
}

// AddEdge links two existing nodes. Self edges are ignored.
func (g *Graph) AddEdge(e Edge) *Edge {
	if e.From == e.To || e.From == "" || e.To == "" {
		return nil
	}
	edge := &e
	g.Edges = append(g.Edges, edge)
	g.adj[e.From] = append(g.adj[e.From], edge)
	g.adj[e.To] = append(g.adj[e.To], edge)
	pk := pairKey(e.From, e.To)
	g.pairs[pk] = append(g.pairs[pk], edge)
	for _, k := range []string{e.From, e.To} {
		if p, ok := g.People[k]; ok {
			p.Counts[e.Type]++
		}
	}
	return edge
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// Person returns the node for key.
func (g *Graph) Person(key string) (*Person, bool) {
	p, ok := g.People[key]
	return p, ok
}

// EdgesOf returns every edge touching key.
func (g *Graph) EdgesOf(key string) []*Edge { return g.adj[key] }

// Between returns every edge between a and b in either direction.
func (g *Graph) Between(a, b string) []*Edge { return g.pairs[pairKey(a, b)] }

// Neighbors returns the distinct keys adjacent to key, sorted.
func (g *Graph) Neighbors(key string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range g.adj[key] {
		o := e.Other(key)
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	sort.Strings(out)
	return out
}

// Keys returns every person key except the ego, sorted.
func (g *Graph) Keys() []string {
	out := make([]string, 0, len(g.People))
	for k := range g.People {
		if k != g.EgoKey {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Connections returns the keys of people in the connections file, sorted.
func (g *Graph) Connections() []string {
	var out []string
	for _, k := range g.Keys() {
		if g.People[k].Connected {
			out = append(out, k)
		}
	}
	return out
}

// EgoDetected reports whether the graph is anchored on a real ego.
func (g *Graph) EgoDetected() bool { return !g.Ego.Ambiguous }

// Resolve maps a name and profile URL to a key the same way Build did.
func (g *Graph) Resolve(name, profileURL string) string {
	return g.resolver.Resolve(name, profileURL)
}

// Match says how a query was resolved to a key.
type Match string

const (
	MatchExact Match = "exact"
	MatchAlias Match = "alias"
	MatchFuzzy Match = "fuzzy"
	// MatchCompany marks a target placed in the graph via its employer.
	MatchCompany Match = "company"
)

// Lookup resolves a name, profile URL or key without fuzzy matching.
func (g *Graph) Lookup(query string) (string, Match, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", "", false
	}
	if _, ok := g.People[query]; ok && query != g.EgoKey {
		return query, MatchExact, true
	}
	if k := SlugKey(query); k != "" {
		if _, ok := g.People[k]; ok {
			return k, MatchExact, true
		}
	}
	if k := NameKey(query); k != "" {
		if _, ok := g.People[k]; ok && k != g.EgoKey {
			return k, MatchExact, true
		}
	}
	if k, ok := g.resolver.Alias(query); ok {
		if _, exists := g.People[k]; exists && k != g.EgoKey {
			return k, MatchAlias, true
		}
	}
	if keys := g.names[NormalizeName(query)]; len(keys) == 1 && keys[0] != g.EgoKey {
		return keys[0], MatchAlias, true
	}
	return "", "", false
}
