package engine

import (
	"math"
	"sort"

	"github.com/lazypower/rapport/internal/graph"
)

// Vouch levels.
const (
	VouchStrongAdvocate = "strong_advocate"
	VouchReliable       = "reliable"
	VouchPositive       = "positive"
	VouchLukewarm       = "lukewarm"
	VouchWeak           = "weak"
)

// VouchFactors is the per-factor breakdown of a vouch score.
type VouchFactors struct {
	Endorsement    float64 `json:"endorsement"`
	Recommendation float64 `json:"recommendation"`
	Reciprocity    float64 `json:"reciprocity"`
	SharedHistory  float64 `json:"shared_history"`
}

// VouchScore predicts how strongly a person would advocate for the ego.
type VouchScore struct {
	Key     string       `json:"key"`
	Name    string       `json:"name"`
	Score   float64      `json:"score"`
	Level   string       `json:"level"`
	Factors VouchFactors `json:"factors"`
}

// VouchLevel labels a vouch score.
func VouchLevel(score float64) string {
	switch {
	case score >= 80:
		return VouchStrongAdvocate
	case score >= 60:
		return VouchReliable
	case score >= 40:
		return VouchPositive
	case score >= 20:
		return VouchLukewarm
	default:
		return VouchWeak
	}
}

// Vouch scores every person in the ledger, sorted by score descending then key.
func (s *scorer) Vouch(ledger []LedgerEntry) []VouchScore {
	out := make([]VouchScore, 0, len(ledger))
	for _, le := range ledger {
		out = append(out, s.vouch(le))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func (s *scorer) vouch(le LedgerEntry) VouchScore {
	vc := s.cfg.Vouch
	sc := s.cfg.Scoring
	var f VouchFactors

	var endorsements float64
	var bestRec float64
	for _, e := range s.egoEdges(le.Key) {
		switch e.Type {
		case graph.EdgeEndorsementReceived:
			endorsements += recency(e, s.now, sc)
		case graph.EdgeRecommendationReceived:
			r := math.Max(vc.RecommendationFloor, recency(e, s.now, sc))
			length := math.Min(1, float64(e.TextLen)/float64(vc.RecommendationFullLen))
			bestRec = math.Max(bestRec, vc.RecommendationBase*r+vc.RecommendationLength*length)
		}
	}
	f.Endorsement = vc.EndorsementMax * (1 - math.Exp(-endorsements/vc.EndorsementK))
	f.Recommendation = bestRec
	f.Reciprocity = reciprocityFactor(le, vc.ReciprocityMax)
	f.SharedHistory = s.sharedHistory(le.Key)

	f.Endorsement = round1(f.Endorsement)
	f.Recommendation = round1(f.Recommendation)
	f.Reciprocity = round1(f.Reciprocity)
	f.SharedHistory = round1(f.SharedHistory)

	score := round1(clamp(f.Endorsement+f.Recommendation+f.Reciprocity+f.SharedHistory, 0, 100))
	return VouchScore{Key: le.Key, Name: le.Name, Score: score, Level: VouchLevel(score), Factors: f}
}

// reciprocityFactor rewards mutual exchange, and to a lesser degree people
// the ego has given more to than received from.
func reciprocityFactor(le LedgerEntry, limit float64) float64 {
	g, r := float64(le.PointsGiven), float64(le.PointsReceived)
	if g+r == 0 {
		return 0
	}
	mutuality := math.Min(g, r) / math.Max(g, r)
	owed := ((g-r)/(g+r) + 1) / 2
	return limit * (0.6*mutuality + 0.4*owed)
}

func (s *scorer) sharedHistory(key string) float64 {
	vc := s.cfg.Vouch
	o, ok := graph.SharedTenure(s.g.People[s.g.EgoKey].Positions, s.g.People[key].Positions, s.now)
	switch {
	case !ok:
		return 0
	case o.Current:
		return vc.SharedHistoryMax
	case !o.Known:
		return vc.SharedHistoryMax * vc.SharedPastFraction * vc.SharedUnknownFraction
	default:
		return vc.SharedHistoryMax * vc.SharedPastFraction * math.Min(1, o.Days/vc.SharedHistoryFullDays)
	}
}
