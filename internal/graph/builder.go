package graph

import (
	"log"
	"sort"
	"time"

	"github.com/lazypower/rapport/internal/export"
)

// Options controls Build.
type Options struct {
	// Now closes open tenures and dates colleague edges between people who
	// still share an employer.
	Now time.Time
}

// Build assembles the graph for one analysis. When ego is ambiguous the ego
// node is a placeholder; ego-relative files still attach to it while message
// rows connect their named participants directly.
func Build(recs *export.Records, ego Ego, opts Options) *Graph {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	r := NewResolver()
	register(r, recs, ego)

	egoKey := PlaceholderEgoKey
	if !ego.Ambiguous {
		if k := r.Resolve(ego.Name, ego.ProfileURL); k != "" {
			egoKey = k
		}
	}
	g := New(egoKey, ego.Name)
	g.Ego = ego
	g.resolver = r
	b := &builder{g: g, r: r}

	egoNode := g.People[egoKey]
	egoNode.ProfileURL = ego.ProfileURL
	for _, p := range recs.Positions {
		egoNode.Positions = append(egoNode.Positions, fromExport(p))
	}

	for _, c := range recs.Connections {
		k := b.person(c.FullName, c.ProfileURL)
		if k == "" || k == egoKey {
			continue
		}
		p := g.People[k]
		p.Connected = true
		p.Lightweight = false
		if c.Company != "" {
			p.Positions = append(p.Positions, Position{Company: c.Company, Title: c.Position, Current: true})
		}
		g.AddEdge(Edge{From: egoKey, To: k, Type: EdgeConnection, At: c.ConnectedOn, Dated: !c.ConnectedOn.IsZero()})
	}

	for _, m := range recs.Messages {
		from := b.person(m.From, m.SenderProfileURL)
		var recipients []string
		for i, to := range m.To {
			url := ""
			if len(m.RecipientProfileURLs) == len(m.To) {
				url = m.RecipientProfileURLs[i]
			}
			k := b.person(to, url)
			if k != "" && k != from && k != egoKey {
				recipients = append(recipients, k)
			}
			if from == "" || k == "" {
				continue
			}
			g.AddEdge(Edge{
				From: from, To: k, Type: EdgeMessage,
				At: m.Date, Dated: !m.Date.IsZero(),
				TextLen: len(m.Content), Conversation: m.ConversationID,
			})
		}
		b.coRecipients(recipients, m)
	}

	for _, e := range recs.EndorsementsReceived {
		if k := b.person(e.FullName, e.ProfileURL); k != "" {
			g.AddEdge(Edge{From: k, To: egoKey, Type: EdgeEndorsementReceived, At: e.Date, Dated: !e.Date.IsZero(), Skill: e.Skill})
		}
	}
	for _, e := range recs.EndorsementsGiven {
		if k := b.person(e.FullName, e.ProfileURL); k != "" {
			g.AddEdge(Edge{From: egoKey, To: k, Type: EdgeEndorsementGiven, At: e.Date, Dated: !e.Date.IsZero(), Skill: e.Skill})
		}
	}

	for _, rec := range recs.RecommendationsReceived {
		if k := b.person(rec.FullName, ""); k != "" {
			b.observeEmployer(k, rec)
			g.AddEdge(Edge{From: k, To: egoKey, Type: EdgeRecommendationReceived, At: rec.Date, Dated: !rec.Date.IsZero(), TextLen: len(rec.Text)})
		}
	}
	for _, rec := range recs.RecommendationsGiven {
		if k := b.person(rec.FullName, ""); k != "" {
			b.observeEmployer(k, rec)
			g.AddEdge(Edge{From: egoKey, To: k, Type: EdgeRecommendationGiven, At: rec.Date, Dated: !rec.Date.IsZero(), TextLen: len(rec.Text)})
		}
	}

	for _, inv := range recs.Invitations {
		name, url := inv.Counterpart()
		k := b.person(name, url)
		if k == "" {
			continue
		}
		e := Edge{From: egoKey, To: k, Type: EdgeInvitation, At: inv.SentAt, Dated: !inv.SentAt.IsZero(), TextLen: len(inv.Message)}
		if inv.Direction == export.DirectionIncoming {
			e.From, e.To = k, egoKey
		}
		g.AddEdge(e)
	}

	for _, rx := range recs.Reactions {
		if rx.Actor == "" && rx.ActorProfileURL == "" {
			g.Unattributed++
			continue
		}
		if k := b.person(rx.Actor, rx.ActorProfileURL); k != "" {
			g.AddEdge(Edge{From: egoKey, To: k, Type: EdgeReaction, At: rx.Date, Dated: !rx.Date.IsZero(), Reaction: rx.Type})
		}
	}

	n := inferColleagues(g, now)
	log.Printf("graph: %d people, %d edges (%d colleague), ego %s", len(g.People), len(g.Edges), n, egoKey)
	return g
}

type builder struct {
	g *Graph
	r *Resolver
}

// person resolves and creates the node for a row, returning its key.
func (b *builder) person(name, profileURL string) string {
	k := b.r.Resolve(name, profileURL)
	if k == "" {
		return ""
	}
	if k == b.g.EgoKey {
		return k
	}
	b.g.AddPerson(k, name, profileURL)
	return k
}

// observeEmployer records the company named on a recommendation as a
// point-in-time position.
func (b *builder) observeEmployer(key string, rec export.Recommendation) {
	if rec.Company == "" || rec.Date.IsZero() || key == b.g.EgoKey {
		return
	}
	p := b.g.People[key]
	p.Positions = append(p.Positions, Position{Company: rec.Company, Title: rec.JobTitle, Start: rec.Date, End: rec.Date})
}

func register(r *Resolver, recs *export.Records, ego Ego) {
	if !ego.Ambiguous {
		r.Register(ego.Name, ego.ProfileURL)
	}
	for _, c := range recs.Connections {
		r.Register(c.FullName, c.ProfileURL)
	}
	for _, m := range recs.Messages {
		r.Register(m.From, m.SenderProfileURL)
		if len(m.RecipientProfileURLs) == len(m.To) {
			for i, to := range m.To {
				r.Register(to, m.RecipientProfileURLs[i])
			}
		}
	}
	for _, e := range recs.EndorsementsReceived {
		r.Register(e.FullName, e.ProfileURL)
	}
	for _, e := range recs.EndorsementsGiven {
		r.Register(e.FullName, e.ProfileURL)
	}
	for _, inv := range recs.Invitations {
		r.Register(inv.Counterpart())
	}
	for _, rx := range recs.Reactions {
		r.Register(rx.Actor, rx.ActorProfileURL)
	}
}

// inferColleagues links non-ego people whose tenures at the same employer
// overlap. The ego's own shared history is handled by the scorers instead.
func inferColleagues(g *Graph, now time.Time) int {
	type tenure struct {
		key string
		pos Position
	}
	byCompany := make(map[string][]tenure)
	for _, k := range g.Keys() {
		for _, pos := range g.People[k].Positions {
			if c := pos.companyKey(); c != "" {
				byCompany[c] = append(byCompany[c], tenure{k, pos})
			}
		}
	}
	companies := make([]string, 0, len(byCompany))
	for c := range byCompany {
		companies = append(companies, c)
	}
	sort.Strings(companies)

	linked := make(map[[2]string]bool)
	added := 0
	for _, c := range companies {
		ts := byCompany[c]
		for i := 0; i < len(ts); i++ {
			for j := i + 1; j < len(ts); j++ {
				a, b := ts[i], ts[j]
				pk := pairKey(a.key, b.key)
				if a.key == b.key || linked[pk] || !Overlaps(a.pos, b.pos, now) {
					continue
				}
				o, _ := SharedTenure([]Position{a.pos}, []Position{b.pos}, now)
				linked[pk] = true
				g.AddEdge(Edge{From: pk[0], To: pk[1], Type: EdgeColleague, At: o.End, Dated: true})
				added++
			}
		}
	}
	return added
}

// coRecipients links every pair of non-ego people who received the same
// group message, so members who never post still share an edge.
func (b *builder) coRecipients(keys []string, m export.Message) {
	seen := make(map[string]bool, len(keys))
	uniq := keys[:0]
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			uniq = append(uniq, k)
		}
	}
	for i := 0; i < len(uniq); i++ {
		for j := i + 1; j < len(uniq); j++ {
			b.g.AddEdge(Edge{
				From: uniq[i], To: uniq[j], Type: EdgeCoRecipient,
				At: m.Date, Dated: !m.Date.IsZero(), Conversation: m.ConversationID,
			})
		}
	}
}
