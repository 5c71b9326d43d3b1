package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lazypower/rapport/internal/engine"
)

const analyzeBody = `{
  "files": {
    "connections": "First Name,Last Name,URL,Email Address,Company,Position,Connected On\nCarol,White,https://www.linkedin.com/in/carolwhite,,Globex,Director,10 Dec 2025\n",
    "messages": "CONVERSATION ID,FROM,SENDER PROFILE URL,TO,RECIPIENT PROFILE URLS,DATE,CONTENT\nc1,Carol White,https://www.linkedin.com/in/carolwhite,Me Myself,https://www.linkedin.com/in/memyself,2026-01-10 09:00:00 UTC,hi\nc1,Carol White,https://www.linkedin.com/in/carolwhite,Me Myself,https://www.linkedin.com/in/memyself,2026-01-11 09:00:00 UTC,again\n"
  },
  "targets": [{"query": "Carol White"}],
  "save": %s
}`

func analyze(t *testing.T, srv *Server, save bool) (int, analyzeResponse) {
	t.Helper()
	body := strings.Replace(analyzeBody, "%s", map[bool]string{true: "true", false: "false"}[save], 1)
	req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var resp analyzeResponse
	if w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode body: %v", err)
		}
	}
	return w.Code, resp
}

func TestAnalyze(t *testing.T) {
	srv := testServer(t)

	code, resp := analyze(t, srv, false)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	r := resp.Report
	if r == nil || r.Status != engine.StatusOK {
		t.Fatalf("report = %+v", r)
	}
	if resp.Saved {
		t.Error("saved without save flag")
	}
	if r.EgoKey != "in:memyself" {
		t.Errorf("ego key = %q", r.EgoKey)
	}
	if res := r.WarmPaths["Carol White"]; len(res.Paths) != 1 {
		t.Errorf("warm paths = %+v", res)
	}
}

func TestAnalyzeDataQualityIsNotAnError(t *testing.T) {
	srv := testServer(t)

	body := `{"files": {"connections": "Notes:\nnothing here\n"}}`
	req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	var resp analyzeResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Report.Status != engine.StatusEmpty {
		t.Errorf("report status = %s, want empty", resp.Report.Status)
	}
}

func TestAnalyzeBadRequests(t *testing.T) {
	srv := testServer(t)

	bodies := map[string]string{
		"invalid json": `{"files":`,
		"unknown field": `{"files": {"connections": "a"}, "bogus": 1}`,
		"no files":      `{"files": {}}`,
		"unknown kind":  `{"files": {"Skills": "a,b"}}`,
		"empty target":  `{"files": {"connections": "a"}, "targets": [{}]}`,
	}
	for name, body := range bodies {
		req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader(body))
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", name, w.Code, http.StatusBadRequest)
		}
		var resp map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp["error"] == "" {
			t.Errorf("%s: expected error message, got %s", name, w.Body.String())
		}
	}
}

func TestSavedReportLifecycle(t *testing.T) {
	srv := testServer(t)

	code, resp := analyze(t, srv, true)
	if code != http.StatusOK || !resp.Saved {
		t.Fatalf("status = %d saved = %v", code, resp.Saved)
	}
	id := resp.Report.ID

	req := httptest.NewRequest("GET", "/api/reports", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	var list struct {
		Reports []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"reports"`
	}
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Reports) != 1 || list.Reports[0].ID != id {
		t.Fatalf("list = %s", w.Body.String())
	}

	req = httptest.NewRequest("GET", "/api/reports/"+id, nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got engine.Report
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.ID != id || got.EgoKey != "in:memyself" {
		t.Errorf("report = %+v", got)
	}

	req = httptest.NewRequest("GET", "/api/reports/"+id+"/targets", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), `"target":"Carol White"`) {
		t.Errorf("targets = %s", w.Body.String())
	}

	req = httptest.NewRequest("DELETE", "/api/reports/"+id, nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("delete status = %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/reports/"+id, nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", w.Code)
	}
}

func TestListReportsBadLimit(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/api/reports?limit=abc", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
