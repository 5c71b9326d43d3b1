package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lazypower/rapport/internal/export"
)

// Hook types for dormant conversations.
const (
	HookPromisedCatchup      = "promised_catchup"
	HookUnansweredQuestion   = "unanswered_question"
	HookOpportunityMentioned = "opportunity_mentioned"
	HookGeneric              = "generic"
)

const snippetLen = 100

var (
	catchupPhrases     = []string{"catch up", "let's connect", "we should", "let me know"}
	opportunityPhrases = []string{"opportunity", "position", "role", "job"}
)

// Opportunity is a dormant conversation worth reopening.
type Opportunity struct {
	Key             string `json:"key"`
	Name            string `json:"name"`
	Conversation    string `json:"conversation,omitempty"`
	DaysDormant     int    `json:"days_dormant"`
	HookType        string `json:"hook_type"`
	Hook            string `json:"hook"`
	LastMessage     string `json:"last_message"`
	LastFromEgo     bool   `json:"last_from_ego"`
	SuggestedOpener string `json:"suggested_opener"`
}

// Resurrect finds people whose latest message exchange with the ego is older
// than the dormant threshold. It needs a detected ego to orient messages.
func (s *scorer) Resurrect(recs *export.Records) []Opportunity {
	if !s.g.EgoDetected() {
		return nil
	}
	ego := s.g.EgoKey

	type latest struct {
		msg     export.Message
		fromEgo bool
	}
	last := make(map[string]latest)
	see := func(key string, m export.Message, fromEgo bool) {
		if key == "" || key == ego {
			return
		}
		if cur, ok := last[key]; !ok || m.Date.After(cur.msg.Date) {
			last[key] = latest{m, fromEgo}
		}
	}
	for _, m := range recs.Messages {
		if m.Date.IsZero() {
			continue
		}
		from := s.g.Resolve(m.From, m.SenderProfileURL)
		var to []string
		for i, name := range m.To {
			url := ""
			if len(m.RecipientProfileURLs) == len(m.To) {
				url = m.RecipientProfileURLs[i]
			}
			to = append(to, s.g.Resolve(name, url))
		}
		switch {
		case from == ego:
			for _, k := range to {
				see(k, m, true)
			}
		case contains(to, ego):
			see(from, m, false)
		}
	}

	threshold := s.cfg.Analysis.DormantThresholdDays
	var out []Opportunity
	for key, l := range last {
		days := int(s.now.Sub(l.msg.Date).Hours() / 24)
		if days < threshold {
			continue
		}
		p, ok := s.g.People[key]
		if !ok {
			continue
		}
		o := Opportunity{
			Key:          key,
			Name:         p.Name,
			Conversation: l.msg.ConversationID,
			DaysDormant:  days,
			LastMessage:  snippet(l.msg.Content),
			LastFromEgo:  l.fromEgo,
		}
		classifyHook(&o, l.msg.Content, firstName(p.Name))
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DaysDormant != out[j].DaysDormant {
			return out[i].DaysDormant < out[j].DaysDormant
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func classifyHook(o *Opportunity, content, first string) {
	lc := strings.ToLower(content)
	switch {
	case containsAny(lc, catchupPhrases):
		o.HookType = HookPromisedCatchup
		o.Hook = "You mentioned catching up but never followed through"
		o.SuggestedOpener = fmt.Sprintf("Hey %s! I realized we mentioned catching up a while back but never made it happen. How have things been?", first)
	case strings.Contains(lc, "?") && !o.LastFromEgo:
		o.HookType = HookUnansweredQuestion
		o.Hook = "They asked a question you may not have fully answered"
		o.SuggestedOpener = fmt.Sprintf("Hey %s, I was looking back at our conversation and realized I might not have gotten back to you properly. How are things going?", first)
	case containsAny(lc, opportunityPhrases):
		o.HookType = HookOpportunityMentioned
		o.Hook = "An opportunity or role was discussed"
		o.SuggestedOpener = fmt.Sprintf("Hi %s! I remember we discussed some opportunities a while back. Curious how things have developed since then?", first)
	default:
		o.HookType = HookGeneric
		o.Hook = "Conversation went dormant"
		o.SuggestedOpener = fmt.Sprintf("Hey %s, it's been a while! Hope you're doing well.", first)
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func snippet(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= snippetLen {
		return string(r)
	}
	return string(r[:snippetLen]) + "..."
}
