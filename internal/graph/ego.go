package graph

import "github.com/lazypower/rapport/internal/export"

// PlaceholderEgoKey stands in for the export owner when detection is ambiguous.
const PlaceholderEgoKey = "ego"

// Ego is the result of ego detection.
type Ego struct {
	Name       string `json:"name,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
	// Count is how many times Name appeared as a recipient.
	Count     int  `json:"count"`
	Messages  int  `json:"messages"`
	Ambiguous bool `json:"ambiguous"`
}

// DetectEgo picks the most frequent message recipient as the export owner.
// Every recipient of a group message counts. Ties go to the name seen first.
// With fewer than minMessages messages, or no recipient seen at least twice,
// the result is Ambiguous and carries no name.
func DetectEgo(msgs []export.Message, minMessages int) Ego {
	type tally struct {
		name, url string
		count     int
		first     int
	}
	counts := make(map[string]*tally)
	seen := 0
	for _, m := range msgs {
		urls := m.RecipientProfileURLs
		for i, to := range m.To {
			n := NormalizeName(to)
			if n == "" {
				continue
			}
			t, ok := counts[n]
			if !ok {
				t = &tally{name: to, first: seen}
				counts[n] = t
			}
			if t.url == "" && len(urls) == len(m.To) {
				t.url = urls[i]
			}
			t.count++
			seen++
		}
	}

	ego := Ego{Messages: len(msgs)}
	var best *tally
	for _, t := range counts {
		if best == nil || t.count > best.count || (t.count == best.count && t.first < best.first) {
			best = t
		}
	}
	if best == nil || len(msgs) < minMessages || best.count < 2 {
		ego.Ambiguous = true
		return ego
	}
	ego.Name = best.name
	ego.ProfileURL = best.url
	ego.Count = best.count
	return ego
}
