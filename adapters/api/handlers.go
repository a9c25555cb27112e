package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"killcurve/adapters/excel"
	"killcurve/domain/assay"
	"killcurve/domain/core"
	"killcurve/internal/errors"
	"killcurve/internal/report"
	"killcurve/ports"

	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// errorResponse is a standard error payload.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// writeError answers with the status matching the error's code.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatus(code)

	if status >= http.StatusInternalServerError {
		s.log.WithError(err).
			WithField("path", r.URL.Path).
			Error("Request failed")
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

// handleHealth returns server health status.
func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCriteria returns the acceptance limits runs are judged against.
func (s *server) handleCriteria(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Criteria())
}

// handleAnalyze analyzes an uploaded workbook. The multipart form carries the
// workbook as "file" and an optional "positive_control" sample name.
func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, r, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "expected a multipart upload")))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, errors.InvalidInput("missing form file \"file\""))
		return
	}
	defer file.Close()

	rep, err := s.svc.AnalyzeUpload(r.Context(), header.Filename, file, r.FormValue("positive_control"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, rep)
}

// handleListRuns lists archived runs. Query: assay_type, status, limit.
func (s *server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRunFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	records, err := s.svc.ListRuns(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"runs": records})
}

// handleGetRun returns the full report of one run.
func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleRunSummary renders the run summary as HTML, or as markdown with
// ?format=markdown.
func (s *server) handleRunSummary(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadRun(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(report.Markdown(rep)))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report.HTML(rep))
}

// handleRunExport streams the results workbook of one run.
func (s *server) handleRunExport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadRun(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := s.exporter.Write(&buf, rep); err != nil {
		s.writeError(w, r, errors.Wrap(err, "failed to export run"))
		return
	}

	name := excel.ExportFileName([]*assay.Report{rep}, s.now())
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *server) loadRun(w http.ResponseWriter, r *http.Request) (*assay.Report, bool) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, errors.ValidationError(err.Error()))
		return nil, false
	}

	rep, err := s.svc.GetRun(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return rep, true
}

func parseRunFilter(r *http.Request) (ports.RunFilter, error) {
	q := r.URL.Query()
	filter := ports.RunFilter{Limit: 100}

	if v := q.Get("assay_type"); v != "" {
		filter.AssayType = assay.AssayType(strings.ToUpper(v))
		if !filter.AssayType.Valid() {
			return filter, errors.ValidationError(fmt.Sprintf("unknown assay_type %q", v))
		}
	}

	if v := q.Get("status"); v != "" {
		status, ok := parseStatus(v)
		if !ok {
			return filter, errors.ValidationError(fmt.Sprintf("unknown status %q", v))
		}
		filter.Status = status
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			return filter, errors.ValidationError(fmt.Sprintf("limit must be between 1 and 1000, got %q", v))
		}
		filter.Limit = n
	}

	return filter, nil
}

func parseStatus(v string) (assay.AssayStatus, bool) {
	for _, s := range []assay.AssayStatus{assay.StatusPass, assay.StatusFail, assay.StatusPending} {
		if strings.EqualFold(v, string(s)) {
			return s, true
		}
	}
	return "", false
}
