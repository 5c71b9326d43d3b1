package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/lazypower/rapport/internal/engine"
	"github.com/lazypower/rapport/internal/store"
)

// Output formats.
const (
	FormatTable    = "table"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

func validFormat(f string) error {
	switch f {
	case FormatTable, FormatMarkdown, FormatJSON, FormatYAML:
		return nil
	}
	return fmt.Errorf("unknown format %q (want table, markdown, json or yaml)", f)
}

func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		// round trip through JSON so keys follow the json tags
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	}
	return fmt.Errorf("format %q is not structured", format)
}

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

func render(w io.Writer, format string, t table.Writer) {
	if format == FormatMarkdown {
		fmt.Fprintln(w, t.RenderMarkdown())
	} else {
		fmt.Fprintln(w, t.Render())
	}
	fmt.Fprintln(w)
}

// renderReport prints a report. top bounds the rows of each ranked table.
func renderReport(w io.Writer, r *engine.Report, format string, top int) error {
	if format == FormatJSON || format == FormatYAML {
		return writeStructured(w, format, r)
	}

	ego := r.Ego.Name
	if ego == "" {
		ego = "(not detected)"
	}
	s := newTable("Summary")
	s.AppendRows([]table.Row{
		{"Report", r.ID},
		{"Status", statusLine(r)},
		{"Ego", ego},
		{"People", r.Summary.People},
		{"Connections", r.Summary.Connections},
		{"Interactions", r.Summary.Interactions},
		{"Strong / Active / Cooling / Dormant", fmt.Sprintf("%d / %d / %d / %d",
			r.Summary.Strong, r.Summary.Active, r.Summary.Cooling, r.Summary.Dormant)},
		{"Unscored", r.Summary.Unscored},
		{"Top advocates", r.Summary.TopAdvocates},
		{"Skipped rows", r.Summary.SkippedRows},
		{"Archetype", r.Archetype.Label},
	})
	render(w, format, s)
	if r.Archetype.Recommendation != "" {
		fmt.Fprintln(w, r.Archetype.Recommendation)
		fmt.Fprintln(w)
	}

	if len(r.Health) > 0 {
		t := newTable("Relationship health")
		t.AppendHeader(table.Row{"Name", "Score", "Status", "Last contact", "Modifiers"})
		for _, h := range firstN(r.Health, top) {
			last := "-"
			if h.DaysSinceContact >= 0 {
				last = fmt.Sprintf("%dd ago", h.DaysSinceContact)
			}
			var mods []string
			for _, m := range h.Modifiers {
				mods = append(mods, m.Name)
			}
			t.AppendRow(table.Row{h.Name, fmt.Sprintf("%.1f", h.Score), h.Status, last, strings.Join(mods, ", ")})
		}
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
		render(w, format, t)
	}

	if len(r.Vouch) > 0 {
		t := newTable("Advocates")
		t.AppendHeader(table.Row{"Name", "Vouch", "Level", "Endorse", "Recommend", "Reciprocity", "Shared"})
		for _, v := range firstN(r.Vouch, top) {
			f := v.Factors
			t.AppendRow(table.Row{v.Name, v.Score, v.Level, f.Endorsement, f.Recommendation, f.Reciprocity, f.SharedHistory})
		}
		render(w, format, t)
	}

	var owed []engine.LedgerEntry
	for _, le := range r.Ledger {
		if le.Status != engine.LedgerBalanced {
			owed = append(owed, le)
		}
	}
	sort.SliceStable(owed, func(i, j int) bool { return abs(owed[i].Balance) > abs(owed[j].Balance) })
	if len(owed) > 0 {
		t := newTable("Reciprocity")
		t.AppendHeader(table.Row{"Name", "Balance", "Status", "Endorsements", "Recommendations"})
		for _, le := range firstN(owed, top) {
			t.AppendRow(table.Row{le.Name, le.Balance, le.Status, le.Endorsements.Summary, le.Recommendations.Summary})
		}
		render(w, format, t)
	}

	labels := make([]string, 0, len(r.WarmPaths))
	for l := range r.WarmPaths {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		res := r.WarmPaths[l]
		t := newTable("Warm paths to " + l)
		if res.Reason != "" {
			t.AppendRow(table.Row{res.Reason})
			render(w, format, t)
			continue
		}
		t.AppendHeader(table.Row{"#", "Path", "Cost", "Suggested approach"})
		for i, p := range res.Paths {
			t.AppendRow(table.Row{i + 1, strings.Join(p.Names, " → "), p.Cost, p.SuggestedApproach})
		}
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 60}})
		render(w, format, t)
	}

	if len(r.Opportunities) > 0 {
		t := newTable("Conversations worth reopening")
		t.AppendHeader(table.Row{"Name", "Dormant", "Hook", "Opener"})
		for _, o := range firstN(r.Opportunities, top) {
			t.AppendRow(table.Row{o.Name, fmt.Sprintf("%dd", o.DaysDormant), o.HookType, o.SuggestedOpener})
		}
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 60}})
		render(w, format, t)
	}
	return nil
}

func renderReportList(w io.Writer, reports []store.ReportSummary, format string) error {
	if format == FormatJSON || format == FormatYAML {
		if reports == nil {
			reports = []store.ReportSummary{}
		}
		return writeStructured(w, format, reports)
	}
	t := newTable("Saved reports")
	t.AppendHeader(table.Row{"ID", "Created", "Ego", "Status", "People", "Archetype", "Targets"})
	for _, s := range reports {
		t.AppendRow(table.Row{s.ID, s.CreatedAt.Format("2006-01-02 15:04"), s.Ego, s.Status, s.People, s.Archetype, s.Targets})
	}
	render(w, format, t)
	return nil
}

func statusLine(r *engine.Report) string {
	if len(r.Reasons) == 0 {
		return r.Status
	}
	return fmt.Sprintf("%s (%s)", r.Status, strings.Join(r.Reasons, ", "))
}

func firstN[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
