package api

import (
	"net/http"
	"strconv"
	"time"

	"fmeagraph/adapters/excel"
	"fmeagraph/app"
	"fmeagraph/domain/core"
	apperrors "fmeagraph/internal/errors"
	"fmeagraph/internal/report"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreateAnalysis analyzes the uploaded workbook and stores the result.
// The body is the raw file; ?format=csv|xlsx picks the parser and ?name=
// labels the analysis.
func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload"
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = excel.DetectFileType(name)
	}

	body := http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	wb, err := excel.ReadWorkbook(body, format, name, s.layout, s.logger)
	if err != nil {
		s.writeError(w, apperrors.WithCode(apperrors.CodeInvalidInput, err))
		return
	}

	result, err := s.service.Analyze(r.Context(), app.AnalyzeRequest{
		Source:      wb.Source,
		Fingerprint: wb.Fingerprint,
		Datasets:    wb.Datasets,
		Save:        true,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	rec, err := result.Record()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/analyses/"+rec.ID.String())
	s.writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		s.writeError(w, err)
		return
	}

	records, err := s.service.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	type item struct {
		ID          core.AnalysisID `json:"id"`
		Source      string          `json:"source"`
		Fingerprint core.Hash       `json:"fingerprint"`
		CreatedAt   string          `json:"created_at"`
		Processes   int             `json:"processes"`
		Failures    int             `json:"failures"`
	}
	items := make([]item, 0, len(records))
	for _, rec := range records {
		items = append(items, item{
			ID:          rec.ID,
			Source:      rec.Source,
			Fingerprint: rec.Fingerprint,
			CreatedAt:   rec.CreatedAt.Format(time.RFC3339),
			Processes:   len(rec.Processes),
			Failures:    len(rec.Failures),
		})
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseAnalysisID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, apperrors.WithCode(apperrors.CodeInvalidInput, err))
		return
	}

	rec, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleAnalysisReport(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseAnalysisID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, apperrors.WithCode(apperrors.CodeInvalidInput, err))
		return
	}

	rec, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(report.HTML(rec))
}

func (s *Server) handleProcessGraph(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseAnalysisID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, apperrors.WithCode(apperrors.CodeInvalidInput, err))
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeError(w, apperrors.InvalidInput("process index must be an integer"))
		return
	}

	rec, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := rec.Process(index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.Write([]byte(p.DOT))
}
