package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lazypower/rapport/internal/config"
	"github.com/lazypower/rapport/internal/export"
	"github.com/lazypower/rapport/internal/graph"
)

// Request is one analysis call: raw export files plus warm path targets.
type Request struct {
	Files   export.Files `json:"files"`
	Targets []Target     `json:"targets,omitempty"`
}

// Summary holds headline counts.
type Summary struct {
	People        int `json:"people"`
	Connections   int `json:"connections"`
	Interactions  int `json:"interactions"`
	Strong        int `json:"strong"`
	Active        int `json:"active"`
	Cooling       int `json:"cooling"`
	Dormant       int `json:"dormant"`
	Unscored      int `json:"unscored"`
	TopAdvocates  int `json:"top_advocates"`
	Opportunities int `json:"opportunities"`
	SkippedRows   int `json:"skipped_rows"`
	DateFallbacks int `json:"date_fallbacks"`
}

// Report is the complete result of one analysis.
type Report struct {
	ID            string                `json:"id"`
	GeneratedAt   time.Time             `json:"generated_at"`
	Status        string                `json:"status"`
	Reasons       []string              `json:"reasons"`
	Ego           graph.Ego             `json:"ego"`
	EgoKey        string                `json:"ego_key"`
	Summary       Summary               `json:"summary"`
	Health        []HealthScore         `json:"health"`
	Vouch         []VouchScore          `json:"vouch"`
	Ledger        []LedgerEntry         `json:"ledger"`
	Archetype     Archetype             `json:"archetype"`
	WarmPaths     map[string]PathResult `json:"warm_paths"`
	Opportunities []Opportunity         `json:"opportunities"`
	ParseStats    export.ParseStats     `json:"parse_stats"`
	Records       *export.Records       `json:"records"`
}

// Analyzer runs the pipeline. It holds no state between calls, so one value
// may serve concurrent analyses.
type Analyzer struct {
	Config config.Config
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// New creates an Analyzer with the given configuration.
func New(cfg config.Config) *Analyzer {
	return &Analyzer{Config: cfg}
}

func (a *Analyzer) now() time.Time {
	if a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}

// Analyze parses, builds, scores and derives a report. Data-quality problems
// are reported through Status and Reasons. Errors are returned only for
// invalid input shapes and context cancellation, and never with a report.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Report, error) {
	for i, t := range req.Targets {
		if t.Query == "" && t.Company == "" {
			return nil, fmt.Errorf("target %d: %w", i, ErrEmptyTarget)
		}
	}
	cfg := a.Config
	now := a.now()

	recs, stats, err := export.ParseAll(ctx, req.Files, export.Options{Now: now, Workers: cfg.Analysis.ParseWorkers})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ego := graph.DetectEgo(recs.Messages, cfg.Analysis.MinEgoMessages)
	g := graph.Build(recs, ego, graph.Options{Now: now})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &scorer{g: g, cfg: cfg, now: now}
	health := s.Health()
	ledger := s.Ledger()
	vouch := s.Vouch(ledger)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	archetype := s.Archetype(health, ledger, recs)
	opps := s.Resurrect(recs)

	paths := make(map[string]PathResult, len(req.Targets))
	pf := newPathFinder(s, health, vouch)
	for _, t := range req.Targets {
		res, err := pf.Find(ctx, t)
		if err != nil {
			return nil, err
		}
		paths[t.Label()] = res
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := &Report{
		ID:            uuid.NewString(),
		GeneratedAt:   now,
		Ego:           ego,
		EgoKey:        g.EgoKey,
		Health:        nonNil(health),
		Vouch:         nonNil(vouch),
		Ledger:        nonNil(ledger),
		Archetype:     archetype,
		WarmPaths:     paths,
		Opportunities: nonNil(opps),
		ParseStats:    stats,
		Records:       recs,
	}
	r.Summary = summarize(g, recs, stats, health, vouch, opps)
	r.Status, r.Reasons = assess(recs, stats, ego, paths)
	if r.Status == StatusEmpty {
		// nothing usable; keep the shape but drop low-confidence scores
		r.Health, r.Vouch, r.Ledger, r.Opportunities = []HealthScore{}, []VouchScore{}, []LedgerEntry{}, []Opportunity{}
	}

	log.Printf("engine: analyzed %d people, %d interactions, status %s %v",
		r.Summary.People, r.Summary.Interactions, r.Status, r.Reasons)
	return r, nil
}

func summarize(g *graph.Graph, recs *export.Records, stats export.ParseStats, health []HealthScore, vouch []VouchScore, opps []Opportunity) Summary {
	sum := Summary{
		People:        len(g.People) - 1,
		Connections:   len(g.Connections()),
		Interactions:  recs.Interactions(),
		Opportunities: len(opps),
		SkippedRows:   stats.Skipped(),
		DateFallbacks: stats.DateFallbacks(),
	}
	for _, h := range health {
		switch h.Status {
		case HealthStrong:
			sum.Strong++
		case HealthActive:
			sum.Active++
		case HealthCooling:
			sum.Cooling++
		case HealthDormant:
			sum.Dormant++
		default:
			sum.Unscored++
		}
	}
	for _, v := range vouch {
		if v.Score >= 60 {
			sum.TopAdvocates++
		}
	}
	return sum
}

// assess derives the report status and its reasons in a fixed order.
func assess(recs *export.Records, stats export.ParseStats, ego graph.Ego, paths map[string]PathResult) (string, []string) {
	reasons := []string{}
	add := func(r string) {
		for _, x := range reasons {
			if x == r {
				return
			}
		}
		reasons = append(reasons, r)
	}

	var malformed, missing int
	for _, st := range stats {
		malformed += st.Malformed
		missing += st.MissingIdentity
	}
	if malformed > 0 {
		add(ReasonMalformedRecord)
	}
	if missing > 0 {
		add(ReasonMissingIdentity)
	}
	if ego.Ambiguous {
		add(ReasonAmbiguousEgoDetection)
	}
	empty := recs.Interactions() == 0
	if empty {
		add(ReasonEmptyInputSet)
	}
	for _, label := range sortedKeys(paths) {
		if r := paths[label].Reason; r != "" {
			add(r)
		}
	}

	switch {
	case empty:
		return StatusEmpty, reasons
	case ego.Ambiguous || malformed > 0 || missing > 0:
		return StatusDegraded, reasons
	default:
		return StatusOK, reasons
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
