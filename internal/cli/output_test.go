package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/lazypower/rapport/internal/config"
	"github.com/lazypower/rapport/internal/engine"
	"github.com/lazypower/rapport/internal/export"
	"github.com/lazypower/rapport/internal/store"
)

func testReport(t *testing.T) *engine.Report {
	t.Helper()
	a := engine.New(config.Default())
	a.Now = func() time.Time { return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC) }
	r, err := a.Analyze(context.Background(), engine.Request{
		Files: export.Files{
			export.KindConnections: `First Name,Last Name,URL,Email Address,Company,Position,Connected On
Carol,White,https://www.linkedin.com/in/carolwhite,,Globex,Director of Engineering,10 Dec 2025
Dan,Brown,https://www.linkedin.com/in/danbrown,,Initech,Engineer,01 Mar 2024
`,
			export.KindMessages: `CONVERSATION ID,FROM,SENDER PROFILE URL,TO,RECIPIENT PROFILE URLS,DATE,CONTENT
c1,Carol White,https://www.linkedin.com/in/carolwhite,Me Myself,https://www.linkedin.com/in/memyself,2026-01-10 09:00:00 UTC,Lunch next week?
c1,Me Myself,https://www.linkedin.com/in/memyself,Carol White,https://www.linkedin.com/in/carolwhite,2026-01-10 10:00:00 UTC,Sure!
`,
		},
		Targets: []engine.Target{{Query: "Zed Quux"}},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return r
}

func TestRenderReportTable(t *testing.T) {
	r := testReport(t)
	var buf bytes.Buffer
	if err := renderReport(&buf, r, FormatTable, 10); err != nil {
		t.Fatalf("renderReport: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Summary", "Me Myself", "Relationship health", "Carol White", "Warm paths to Zed Quux", engine.ReasonTargetNotFound} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderReportMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := renderReport(&buf, testReport(t), FormatMarkdown, 10); err != nil {
		t.Fatalf("renderReport: %v", err)
	}
	if !strings.Contains(buf.String(), "| Carol White |") {
		t.Errorf("markdown output:\n%s", buf.String())
	}
}

func TestRenderReportStructured(t *testing.T) {
	r := testReport(t)

	var js bytes.Buffer
	if err := renderReport(&js, r, FormatJSON, 0); err != nil {
		t.Fatalf("renderReport json: %v", err)
	}
	var fromJSON map[string]any
	if err := json.Unmarshal(js.Bytes(), &fromJSON); err != nil {
		t.Fatalf("decode json: %v", err)
	}

	var ym bytes.Buffer
	if err := renderReport(&ym, r, FormatYAML, 0); err != nil {
		t.Fatalf("renderReport yaml: %v", err)
	}
	var fromYAML map[string]any
	if err := yaml.Unmarshal(ym.Bytes(), &fromYAML); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}

	if fromJSON["id"] != r.ID || fromYAML["id"] != r.ID {
		t.Errorf("ids: json %v yaml %v want %s", fromJSON["id"], fromYAML["id"], r.ID)
	}
	if fromYAML["status"] != fromJSON["status"] {
		t.Errorf("status: json %v yaml %v", fromJSON["status"], fromYAML["status"])
	}
}

func TestRenderReportListEmptyJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := renderReportList(&buf, nil, FormatJSON); err != nil {
		t.Fatalf("renderReportList: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("empty list = %q, want []", got)
	}
}

func TestRenderReportList(t *testing.T) {
	reports := []store.ReportSummary{{
		ID:        "r1",
		CreatedAt: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		Ego:       "Me Myself",
		Status:    engine.StatusOK,
		People:    3,
		Targets:   1,
	}}
	var buf bytes.Buffer
	if err := renderReportList(&buf, reports, FormatTable); err != nil {
		t.Fatalf("renderReportList: %v", err)
	}
	for _, want := range []string{"r1", "2026-01-15 12:00", "Me Myself"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("list missing %q:\n%s", want, buf.String())
		}
	}
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{FormatTable, FormatMarkdown, FormatJSON, FormatYAML} {
		if err := validFormat(f); err != nil {
			t.Errorf("validFormat(%q): %v", f, err)
		}
	}
	if err := validFormat("csv"); err == nil {
		t.Error("csv accepted")
	}
}

func TestBuildTargets(t *testing.T) {
	tests := []struct {
		name    string
		queries []string
		company string
		want    []engine.Target
	}{
		{"none", nil, "", nil},
		{"people", []string{"Bob Lee", "Ann Ode"}, "", []engine.Target{{Query: "Bob Lee"}, {Query: "Ann Ode"}}},
		{"with company", []string{"Bob Lee"}, "Globex", []engine.Target{{Query: "Bob Lee", Company: "Globex"}}},
		{"company only", nil, "Globex", []engine.Target{{Company: "Globex"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, buildTargets(tt.queries, tt.company)); diff != "" {
				t.Errorf("targets (-want +got):\n%s", diff)
			}
		})
	}
}
