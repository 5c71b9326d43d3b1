package engine

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/lazypower/rapport/internal/graph"
)

// Weighted points per interaction in the ledger balance.
const (
	pointsRecommendation = 10
	pointsEndorsement    = 2
	pointsMessage        = 1

	// balanceBand is how far the balance may drift before someone owes.
	balanceBand = 3
)

// Ledger statuses.
const (
	LedgerBalanced   = "balanced"
	LedgerTheyOweYou = "they_owe_you"
	LedgerYouOweThem = "you_owe_them"
)

// Tally is the given/received count of one interaction type.
type Tally struct {
	Given    int     `json:"given"`
	Received int     `json:"received"`
	Net      int     `json:"net"`
	Ratio    float64 `json:"ratio"`
	// Direction is "balanced", "you_give_more" or "they_give_more".
	Direction string `json:"direction"`
	Summary   string `json:"summary"`
}

// LedgerEntry is the reciprocity record for one person.
type LedgerEntry struct {
	Key             string `json:"key"`
	Name            string `json:"name"`
	Messages        Tally  `json:"messages"`
	Endorsements    Tally  `json:"endorsements"`
	Recommendations Tally  `json:"recommendations"`
	// MessagesScored is false when the ego could not be detected, since
	// message direction is then unknown.
	MessagesScored bool   `json:"messages_scored"`
	PointsGiven    int    `json:"points_given"`
	PointsReceived int    `json:"points_received"`
	Balance        int    `json:"balance"`
	Status         string `json:"status"`
}

// Ledger tallies every person with at least one edge to the ego, sorted by key.
func (s *scorer) Ledger() []LedgerEntry {
	var out []LedgerEntry
	for _, k := range s.g.Keys() {
		if len(s.egoEdges(k)) == 0 {
			continue
		}
		out = append(out, s.ledger(k))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (s *scorer) ledger(key string) LedgerEntry {
	var msgG, msgR, endG, endR, recG, recR int
	ego := s.g.EgoKey
	for _, e := range s.egoEdges(key) {
		given := e.From == ego
		switch e.Type {
		case graph.EdgeMessage:
			if given {
				msgG++
			} else {
				msgR++
			}
		case graph.EdgeEndorsementGiven, graph.EdgeEndorsementReceived:
			if given {
				endG++
			} else {
				endR++
			}
		case graph.EdgeRecommendationGiven, graph.EdgeRecommendationReceived:
			if given {
				recG++
			} else {
				recR++
			}
		}
	}

	le := LedgerEntry{
		Key:             key,
		Name:            s.g.People[key].Name,
		Messages:        tally(msgG, msgR, "message"),
		Endorsements:    tally(endG, endR, "endorse"),
		Recommendations: tally(recG, recR, "recommend"),
		MessagesScored:  s.g.EgoDetected(),
	}
	le.PointsGiven = recG*pointsRecommendation + endG*pointsEndorsement
	le.PointsReceived = recR*pointsRecommendation + endR*pointsEndorsement
	if le.MessagesScored {
		le.PointsGiven += msgG * pointsMessage
		le.PointsReceived += msgR * pointsMessage
	}
	le.Balance = le.PointsGiven - le.PointsReceived
	switch {
	case le.Balance > balanceBand:
		le.Status = LedgerTheyOweYou
	case le.Balance < -balanceBand:
		le.Status = LedgerYouOweThem
	default:
		le.Status = LedgerBalanced
	}
	return le
}

// tally builds the signed summary for one type. verb is the action in the
// second person, e.g. "endorse".
func tally(given, received int, verb string) Tally {
	t := Tally{Given: given, Received: received, Net: given - received}
	hi, lo := given, received
	if lo > hi {
		hi, lo = lo, hi
	}
	if lo > 0 {
		t.Ratio = float64(hi) / float64(lo)
	} else {
		t.Ratio = float64(hi)
	}

	switch {
	case given == 0 && received == 0:
		t.Direction = "balanced"
		t.Summary = fmt.Sprintf("no %ss either way", noun(verb))
	case given == received:
		t.Direction = "balanced"
		t.Summary = fmt.Sprintf("you %s each other equally", verb)
	case given > received:
		t.Direction = "you_give_more"
		if received == 0 {
			t.Summary = fmt.Sprintf("you %s them; they have not %s you", verb, past(verb))
		} else {
			t.Summary = fmt.Sprintf("you %s them %s× more than they %s you", verb, ratio(t.Ratio), verb)
		}
	default:
		t.Direction = "they_give_more"
		if given == 0 {
			t.Summary = fmt.Sprintf("they %s you; you have not %s them", verb, past(verb))
		} else {
			t.Summary = fmt.Sprintf("they %s you %s× more than you %s them", verb, ratio(t.Ratio), verb)
		}
	}
	return t
}

func ratio(r float64) string {
	return strconv.FormatFloat(round1(r), 'f', -1, 64)
}

func noun(verb string) string {
	switch verb {
	case "endorse":
		return "endorsement"
	case "recommend":
		return "recommendation"
	}
	return verb
}

func past(verb string) string {
	switch verb {
	case "endorse":
		return "endorsed"
	case "recommend":
		return "recommended"
	}
	return verb + "d"
}
