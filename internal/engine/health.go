package engine

import (
	"sort"
	"time"

	"github.com/lazypower/rapport/internal/config"
	"github.com/lazypower/rapport/internal/graph"
)

// HealthStatus is the band a health score falls in.
type HealthStatus string

const (
	HealthStrong   HealthStatus = "strong"
	HealthActive   HealthStatus = "active"
	HealthCooling  HealthStatus = "cooling"
	HealthDormant  HealthStatus = "dormant"
	HealthUnscored HealthStatus = "unscored"
)

// Modifier names.
const (
	ModSharedCompany    = "shared_company"
	ModCurrentColleague = "current_colleague"
	ModTheyInitiated    = "they_initiated"
	ModDeepConversation = "deep_conversations"
	ModMultiChannel     = "multi_channel"
)

// Modifier is a named boost added to the decayed sum before saturation.
type Modifier struct {
	Name  string  `json:"name"`
	Boost float64 `json:"boost"`
}

// Contribution is the decayed evidence of one interaction type.
type Contribution struct {
	Type  graph.EdgeType `json:"type"`
	Count int            `json:"count"`
	Value float64        `json:"value"`
}

// HealthScore is the time-decayed strength of the ego's tie to one person.
type HealthScore struct {
	Key              string         `json:"key"`
	Name             string         `json:"name"`
	Score            float64        `json:"score"`
	Status           HealthStatus   `json:"status"`
	Modifiers        []Modifier     `json:"modifiers,omitempty"`
	Breakdown        []Contribution `json:"breakdown,omitempty"`
	LastInteraction  *time.Time     `json:"last_interaction,omitempty"`
	DaysSinceContact int            `json:"days_since_contact"`
}

// scorer carries the per-analysis inputs shared by every scoring stage.
type scorer struct {
	g   *graph.Graph
	cfg config.Config
	now time.Time
}

// egoEdges returns the edges between the ego and key.
func (s *scorer) egoEdges(key string) []*graph.Edge {
	return s.g.Between(s.g.EgoKey, key)
}

// Status maps a score onto the configured bands.
func Status(score float64, sc config.ScoringConfig) HealthStatus {
	switch {
	case score >= sc.StrongThreshold:
		return HealthStrong
	case score >= sc.ActiveThreshold:
		return HealthActive
	case score >= sc.CoolingThreshold:
		return HealthCooling
	default:
		return HealthDormant
	}
}

// Health scores every non-ego person, sorted by score descending then key.
// People with no edge to the ego are unscored.
func (s *scorer) Health() []HealthScore {
	var out []HealthScore
	for _, k := range s.g.Keys() {
		out = append(out, s.health(k))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func (s *scorer) health(key string) HealthScore {
	p := s.g.People[key]
	hs := HealthScore{Key: key, Name: p.Name, DaysSinceContact: -1}
	edges := s.egoEdges(key)
	if len(edges) == 0 {
		hs.Status = HealthUnscored
		return hs
	}

	sc := s.cfg.Scoring
	byType := make(map[graph.EdgeType]*Contribution)
	var sum float64
	var last time.Time
	for _, e := range edges {
		v := contribution(e, s.now, sc)
		sum += v
		c, ok := byType[e.Type]
		if !ok {
			c = &Contribution{Type: e.Type}
			byType[e.Type] = c
		}
		c.Count++
		c.Value += v
		if e.Dated && e.At.After(last) {
			last = e.At
		}
	}
	for _, c := range byType {
		c.Value = round3(c.Value)
		hs.Breakdown = append(hs.Breakdown, *c)
	}
	sort.Slice(hs.Breakdown, func(i, j int) bool { return hs.Breakdown[i].Type < hs.Breakdown[j].Type })

	hs.Modifiers = s.modifiers(p, edges)
	for _, m := range hs.Modifiers {
		sum += m.Boost
	}

	hs.Score = round1(Saturate(sum, sc.Saturation))
	hs.Status = Status(hs.Score, sc)
	if !last.IsZero() {
		t := last
		hs.LastInteraction = &t
		if d := int(s.now.Sub(last).Hours() / 24); d > 0 {
			hs.DaysSinceContact = d
		} else {
			hs.DaysSinceContact = 0
		}
	}
	return hs
}

func (s *scorer) modifiers(p *graph.Person, edges []*graph.Edge) []Modifier {
	sc := s.cfg.Scoring
	var mods []Modifier

	if o, ok := graph.SharedTenure(s.g.People[s.g.EgoKey].Positions, p.Positions, s.now); ok {
		if o.Current {
			mods = append(mods, Modifier{ModCurrentColleague, sc.CurrentColleagueBoost})
		} else {
			mods = append(mods, Modifier{ModSharedCompany, sc.SharedCompanyBoost})
		}
	}

	// per conversation: their messages versus the ego's
	theirs := make(map[string]int)
	ours := make(map[string]int)
	deep := 0
	channels := make(map[graph.EdgeType]bool)
	for _, e := range edges {
		if e.Type != graph.EdgeConnection {
			channels[e.Type] = true
		}
		if e.Type != graph.EdgeMessage {
			continue
		}
		if e.From == p.Key {
			theirs[e.Conversation]++
		} else {
			ours[e.Conversation]++
		}
		if e.TextLen >= sc.DeepConversationChars {
			deep++
		}
	}
	for conv, n := range theirs {
		if n > ours[conv] {
			mods = append(mods, Modifier{ModTheyInitiated, sc.TheyInitiatedBoost})
			break
		}
	}
	if deep >= 2 {
		mods = append(mods, Modifier{ModDeepConversation, sc.DeepConversationBoost})
	}
	if len(channels) >= 3 {
		mods = append(mods, Modifier{ModMultiChannel, sc.MultiChannelBoost})
	}
	return mods
}

// PairStrength scores the tie between any two people with the same decay and
// saturation as the ego's health scores.
func (s *scorer) PairStrength(a, b string) float64 {
	var sum float64
	for _, e := range s.g.Between(a, b) {
		sum += contribution(e, s.now, s.cfg.Scoring)
	}
	return Saturate(sum, s.cfg.Scoring.Saturation)
}

