package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type handlers struct {
	svc    *Service
	logger *slog.Logger
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Status(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, resp)
}

func (h *handlers) listFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.svc.ListFolders(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, folders)
}

func (h *handlers) addFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	folder, err := h.svc.AddFolder(r.Context(), req.Path)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusCreated, folder)
}

func (h *handlers) updateFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "folderID")
	if !ok {
		return
	}
	var req MonitoringRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.MonitoringEnabled == nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "monitoring_enabled is required")
		return
	}
	folder, err := h.svc.SetMonitoring(r.Context(), id, *req.MonitoringEnabled)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, folder)
}

func (h *handlers) scan(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.Scan(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, ScanResponse{NewJobs: count})
}

func (h *handlers) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.ListJobs(r.Context(), r.URL.Query()["status"])
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, jobs)
}

func (h *handlers) getJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "jobID")
	if !ok {
		return
	}
	job, err := h.svc.GetJob(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, job)
}

func (h *handlers) retryJobs(w http.ResponseWriter, r *http.Request) {
	var req RetryRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}
	updated, err := h.svc.RetryJobs(r.Context(), req.IDs)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, RetryResponse{Updated: updated})
}

func (h *handlers) listLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be an integer")
			return
		}
		limit = parsed
	}
	entries, err := h.svc.Logs(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, entries)
}

func (h *handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Settings(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, settings)
}

func (h *handlers) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req Settings
	if !decodeBody(w, r, &req) {
		return
	}
	settings, err := h.svc.UpdateSettings(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, settings)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decode(w, r, dst, false)
}

// decodeOptionalBody accepts an empty body and leaves dst untouched.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decode(w, r, dst, true)
}

func decode(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if optional && errors.Is(err, io.EOF) {
		return true
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON: "+err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid id")
		return 0, false
	}
	return id, true
}
