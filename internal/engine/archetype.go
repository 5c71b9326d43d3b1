package engine

import (
	"math"

	"github.com/lazypower/rapport/internal/export"
	"github.com/lazypower/rapport/internal/graph"
)

// ArchetypeStats are the graph-wide figures the rule table reads.
type ArchetypeStats struct {
	Scored      int     `json:"scored"`
	Warm        int     `json:"warm"`
	Cold        int     `json:"cold"`
	WarmRatio   float64 `json:"warm_ratio"`
	ColdRatio   float64 `json:"cold_ratio"`
	Bridging    float64 `json:"bridging"`
	Communities int     `json:"communities"`
	// ReciprocityMean is the mean of (given-received)/(given+received)
	// ledger points over people with any exchange, in [-1,1].
	ReciprocityMean float64 `json:"reciprocity_mean"`
	GiverShare      float64 `json:"giver_share"`
	TakerShare      float64 `json:"taker_share"`
	BalancedShare   float64 `json:"balanced_share"`
	// InitiationRatio is in [-1,1]; positive means the ego sends more
	// messages than it receives.
	InitiationRatio float64 `json:"initiation_ratio"`
	Engagement      float64 `json:"engagement"`
}

// Archetype is the label the rule table assigned.
type Archetype struct {
	Label          string         `json:"label"`
	Rule           string         `json:"rule"`
	Recommendation string         `json:"recommendation"`
	Stats          ArchetypeStats `json:"stats"`
}

type archetypeRule struct {
	id             string
	label          string
	recommendation string
	match          func(ArchetypeStats) bool
}

// archetypeRules is evaluated top to bottom; the first match wins.
var archetypeRules = []archetypeRule{
	{"empty", "Empty Network",
		"There is not enough history to read your network yet. Import a fuller export.",
		func(s ArchetypeStats) bool { return s.Scored == 0 }},
	{"dormant", "Dormant Network",
		"Your network is underutilized. Start by re-engaging your top 10 connections this week.",
		func(s ArchetypeStats) bool { return s.WarmRatio < 0.1 }},
	{"bridge_builder", "Broad Bridge-Builder",
		"You link groups that rarely meet. Make introductions between them; that is where your leverage is.",
		func(s ArchetypeStats) bool { return s.Bridging >= 0.6 && s.WarmRatio >= 0.3 }},
	{"deep_tie", "Deep-Tie Specialist",
		"You build strong relationships inside a close circle. Expand into adjacent networks while keeping that depth.",
		func(s ArchetypeStats) bool { return s.Bridging < 0.4 && s.WarmRatio >= 0.5 }},
	{"giver", "Generous Giver",
		"You invest heavily in others. Occasionally ask for help; people want to reciprocate.",
		func(s ArchetypeStats) bool { return s.ReciprocityMean >= 0.3 }},
	{"beneficiary", "Quiet Beneficiary",
		"You receive more than you give. Balance this by proactively helping 3 connections this week.",
		func(s ArchetypeStats) bool { return s.ReciprocityMean <= -0.3 }},
	{"wide_connector", "Wide Connector",
		"You have wide reach but few warm ties. Warm up the connections that bridge your groups.",
		func(s ArchetypeStats) bool { return s.Bridging >= 0.6 }},
	{"balanced", "Balanced Networker",
		"You have a balanced network. Consider specializing or expanding into adjacent industries.",
		func(ArchetypeStats) bool { return true }},
}

// Archetype computes the stats and applies the rule table.
func (s *scorer) Archetype(health []HealthScore, ledger []LedgerEntry, recs *export.Records) Archetype {
	var st ArchetypeStats
	for _, h := range health {
		switch h.Status {
		case HealthUnscored:
			continue
		case HealthStrong, HealthActive:
			st.Warm++
		default:
			st.Cold++
		}
		st.Scored++
	}
	if st.Scored > 0 {
		st.WarmRatio = round3(float64(st.Warm) / float64(st.Scored))
		st.ColdRatio = round3(float64(st.Cold) / float64(st.Scored))
	}

	b, groups := bridgingScore(s.g, communities(s.g))
	st.Bridging, st.Communities = round3(b), groups

	var sum float64
	var exchanged, givers, takers, balanced int
	for _, le := range ledger {
		total := le.PointsGiven + le.PointsReceived
		if total == 0 {
			continue
		}
		exchanged++
		sum += float64(le.Balance) / float64(total)
		switch le.Status {
		case LedgerTheyOweYou:
			givers++
		case LedgerYouOweThem:
			takers++
		default:
			balanced++
		}
	}
	if exchanged > 0 {
		n := float64(exchanged)
		st.ReciprocityMean = round3(sum / n)
		st.GiverShare = round3(float64(givers) / n)
		st.TakerShare = round3(float64(takers) / n)
		st.BalancedShare = round3(float64(balanced) / n)
	}

	st.InitiationRatio = round3(s.initiation())
	st.Engagement = round3(s.engagement(recs))

	for _, r := range archetypeRules {
		if r.match(st) {
			return Archetype{Label: r.label, Rule: r.id, Recommendation: r.recommendation, Stats: st}
		}
	}
	return Archetype{Stats: st}
}

func (s *scorer) initiation() float64 {
	if !s.g.EgoDetected() {
		return 0
	}
	var sent, total int
	for _, e := range s.g.EdgesOf(s.g.EgoKey) {
		if e.Type != graph.EdgeMessage {
			continue
		}
		total++
		if e.From == s.g.EgoKey {
			sent++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(sent)/float64(total)*2 - 1
}

// engagement is activity per connection, saturating at two interactions each.
func (s *scorer) engagement(recs *export.Records) float64 {
	conns := len(s.g.Connections())
	if conns == 0 {
		return 0
	}
	activity := len(recs.Messages) + len(recs.EndorsementsGiven) + len(recs.EndorsementsReceived) +
		len(recs.RecommendationsGiven) + len(recs.RecommendationsReceived) + len(recs.Reactions)
	return math.Min(1, float64(activity)/float64(2*conns))
}

func round3(x float64) float64 { return math.Round(x*1000) / 1000 }
