package graph

import (
	"time"

	"github.com/lazypower/rapport/internal/export"
)

// Position is one tenure at an employer. A zero Start means the start is
// unknown. A point-in-time observation has Start == End and Current false.
type Position struct {
	Company string    `json:"company"`
	Title   string    `json:"title,omitempty"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Current bool      `json:"current"`
}

func (p Position) companyKey() string { return NormalizeCompany(p.Company) }

// span returns the tenure as an interval. An unknown start extends to the
// beginning of time and a current tenure ends at now.
func (p Position) span(now time.Time) (start, end time.Time, startKnown bool) {
	end = p.End
	if p.Current || end.IsZero() {
		end = now
	}
	return p.Start, end, !p.Start.IsZero()
}

// Overlaps reports whether two tenures at the same employer intersect.
func Overlaps(a, b Position, now time.Time) bool {
	if a.companyKey() == "" || a.companyKey() != b.companyKey() {
		return false
	}
	aStart, aEnd, _ := a.span(now)
	bStart, bEnd, _ := b.span(now)
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// Overlap describes the strongest shared tenure between two people.
type Overlap struct {
	Company string  `json:"company"`
	Current bool    `json:"current"`
	Days    float64 `json:"days"`
	// Known is false when either start date is unknown, making Days a guess.
	Known bool `json:"known"`
	// End is when the shared tenure stopped; equal to now when Current.
	End time.Time `json:"end"`
}

// SharedTenure returns the best overlap between two position lists. Current
// overlaps win over past ones; among equals the longer one wins.
func SharedTenure(a, b []Position, now time.Time) (Overlap, bool) {
	var best Overlap
	found := false
	for _, pa := range a {
		for _, pb := range b {
			if !Overlaps(pa, pb, now) {
				continue
			}
			aStart, aEnd, aKnown := pa.span(now)
			bStart, bEnd, bKnown := pb.span(now)
			start, end := maxTime(aStart, bStart), minTime(aEnd, bEnd)
			o := Overlap{
				Company: pa.Company,
				Current: pa.Current && pb.Current,
				Known:   aKnown && bKnown,
				End:     end,
			}
			if o.Known {
				o.Days = end.Sub(start).Hours() / 24
			}
			if !found || better(o, best) {
				best, found = o, true
			}
		}
	}
	return best, found
}

func better(a, b Overlap) bool {
	if a.Current != b.Current {
		return a.Current
	}
	if a.Known != b.Known {
		return a.Known
	}
	return a.Days > b.Days
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func fromExport(p export.Position) Position {
	return Position{
		Company: p.CompanyName,
		Title:   p.Title,
		Start:   p.StartedOn,
		End:     p.FinishedOn,
		Current: p.Current,
	}
}
