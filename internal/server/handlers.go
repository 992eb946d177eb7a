package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/shinsa/internal/ingest"
	"github.com/hyperjump/shinsa/internal/models"
	"github.com/hyperjump/shinsa/internal/service"
	"github.com/hyperjump/shinsa/internal/storage"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type complianceResponse struct {
	Status   string           `json:"status"`
	ReportID string           `json:"report_id"`
	Mode     string           `json:"mode"`
	Report   []models.Verdict `json:"report"`
	Summary  models.Summary   `json:"summary"`
	Warnings []string         `json:"warnings"`
}

func (s *Server) handleCompliance(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.config.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	expense, err := formFile(r.MultipartForm, "expense_file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if expense == nil {
		s.respondError(w, http.StatusBadRequest, "expense_file is required")
		return
	}
	pol, err := formFile(r.MultipartForm, "policy_file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	receipts, err := formFiles(r.MultipartForm, "receipt_files")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := service.CheckRequest{
		Expense:  *expense,
		Policy:   pol,
		Receipts: receipts,
		Mode:     r.URL.Query().Get("mode"),
		Save:     true,
	}
	s.logger.Debug("compliance request",
		zap.String("expense_file", expense.Name),
		zap.Bool("policy_file", pol != nil),
		zap.Int("receipts", len(receipts)),
		zap.String("mode", req.Mode))

	rep, err := s.svc.Check(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("compliance check failed", zap.Error(err))
		}
		s.respondError(w, status, err.Error())
		return
	}

	warnings := rep.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	s.respondJSON(w, http.StatusOK, complianceResponse{
		Status:   "success",
		ReportID: rep.ID,
		Mode:     rep.Mode,
		Report:   rep.Verdicts,
		Summary:  rep.Summary,
		Warnings: warnings,
	})
}

func statusFor(err error) int {
	var parseErr *models.ParseError
	var invalid *models.InvalidInputError
	var multi models.MultiError
	var external *models.ExternalServiceError
	switch {
	case errors.Is(err, service.ErrNoPolicy), errors.Is(err, service.ErrUnknownMode):
		return http.StatusBadRequest
	case errors.As(err, &parseErr), errors.As(err, &invalid), errors.As(err, &multi):
		return http.StatusBadRequest
	case errors.As(err, &external):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func formFile(form *multipart.Form, field string) (*ingest.File, error) {
	files, err := formFiles(form, field)
	if err != nil || len(files) == 0 {
		return nil, err
	}
	return &files[0], nil
}

func formFiles(form *multipart.Form, field string) ([]ingest.File, error) {
	headers := form.File[field]
	out := make([]ingest.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, ingest.File{Name: fh.Filename, Data: data})
	}
	return out, nil
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	store := s.svc.Storage()
	if store == nil {
		s.respondError(w, http.StatusNotImplemented, "report storage not configured")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil || limit <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	ctx := r.Context()
	reports, err := store.ListReports(ctx, offset, limit)
	if err != nil {
		s.logger.Error("list reports failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := store.CountReports(ctx)
	if err != nil {
		s.logger.Error("count reports failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if reports == nil {
		reports = []*models.ReportInfo{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"total":   total,
		"offset":  offset,
		"limit":   limit,
	})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	store := s.svc.Storage()
	if store == nil {
		s.respondError(w, http.StatusNotImplemented, "report storage not configured")
		return
	}
	id := chi.URLParam(r, "id")
	rep, err := store.GetReport(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "report not found")
			return
		}
		s.logger.Error("get report failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, rep)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	store := s.svc.Storage()
	if store == nil {
		s.respondError(w, http.StatusNotImplemented, "report storage not configured")
		return
	}
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete report request", zap.String("id", id))
	if err := store.DeleteReport(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "report not found")
			return
		}
		s.logger.Error("delete report failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"judge_mode": s.svc.DefaultMode(),
		"modes":      s.svc.Modes(),
	}

	if store := s.svc.Storage(); store != nil {
		count, err := store.CountReports(r.Context())
		if err != nil {
			s.logger.Error("status: count reports failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["reports"] = count
		if diskBytes, err := store.DiskUsageBytes(); err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}

	policyInfo := map[string]interface{}{"loaded": false}
	if st := s.svc.Standing(); st != nil {
		policyInfo["path"] = st.Path()
		if set := st.Acquire(); set != nil {
			policyInfo["loaded"] = true
			policyInfo["chunks"] = set.Len()
			_ = set.Close()
		}
	}
	resp["standing_policy"] = policyInfo

	resp["config"] = map[string]interface{}{
		"embedding_provider":   s.config.Embedding.Provider,
		"embedding_dimensions": s.config.Embedding.Dimensions,
		"llm_provider":         s.config.LLM.Provider,
		"vector_backend":       s.config.Vector.Backend,
		"audit_concurrency":    s.config.Audit.Concurrency,
		"database_path":        s.config.Storage.DatabasePath,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
