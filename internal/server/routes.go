package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lazypower/rapport/internal/engine"
	"github.com/lazypower/rapport/internal/export"
	"github.com/lazypower/rapport/internal/store"
)

type analyzeRequest struct {
	Files   map[string]string `json:"files"`
	Targets []engine.Target   `json:"targets"`
	Save    bool              `json:"save"`
}

type analyzeResponse struct {
	Saved  bool           `json:"saved"`
	Report *engine.Report `json:"report"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if req.Save && s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "report archive not configured")
		return
	}

	files := make(export.Files, len(req.Files))
	for kind, content := range req.Files {
		files[export.Kind(kind)] = content
	}

	ctx := r.Context()
	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	start := time.Now()
	report, err := s.analyzer.Analyze(ctx, engine.Request{Files: files, Targets: req.Targets})
	switch {
	case errors.Is(err, engine.ErrNoFiles), errors.Is(err, engine.ErrUnknownKind), errors.Is(err, engine.ErrEmptyTarget):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "analysis timed out")
		return
	case errors.Is(err, context.Canceled):
		// client went away; nobody is listening
		return
	case err != nil:
		log.Printf("server: analyze: %v", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	s.metrics.observeAnalysis(report.Status, report.Summary.People, time.Since(start))

	resp := analyzeResponse{Report: report}
	if req.Save {
		if err := s.db.SaveReport(report); err != nil {
			log.Printf("server: save report %s: %v", report.ID, err)
			writeError(w, http.StatusInternalServerError, "save report failed")
			return
		}
		s.metrics.saved.Inc()
		resp.Saved = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "report archive not configured")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	reports, err := s.db.ListReports(limit)
	if err != nil {
		log.Printf("server: list reports: %v", err)
		writeError(w, http.StatusInternalServerError, "list reports failed")
		return
	}
	if reports == nil {
		reports = []store.ReportSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "report archive not configured")
		return
	}
	id := chi.URLParam(r, "reportID")
	report, err := s.db.GetReport(id)
	if err != nil {
		log.Printf("server: get report %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "get report failed")
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleReportTargets(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "report archive not configured")
		return
	}
	id := chi.URLParam(r, "reportID")
	targets, err := s.db.ReportTargets(id)
	if err != nil {
		log.Printf("server: report targets %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "report targets failed")
		return
	}
	if targets == nil {
		targets = []store.TargetRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"targets": targets})
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "report archive not configured")
		return
	}
	id := chi.URLParam(r, "reportID")
	err := s.db.DeleteReport(id)
	if errors.Is(err, store.ErrReportNotFound) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		log.Printf("server: delete report %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "delete report failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
