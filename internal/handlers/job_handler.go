package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/navely/scribe/internal/common"
	"github.com/navely/scribe/internal/jobs"
	"github.com/navely/scribe/internal/models"
	"github.com/ternarybob/arbor"
)

// JobHandler exposes the post job lifecycle over HTTP
type JobHandler struct {
	orchestrator *jobs.Orchestrator
	validate     *validator.Validate
	logger       arbor.ILogger
}

func NewJobHandler(orchestrator *jobs.Orchestrator) *JobHandler {
	return &JobHandler{
		orchestrator: orchestrator,
		validate:     validator.New(),
		logger:       common.GetLogger(),
	}
}

// JobsHandler dispatches /api/jobs: POST submits, GET lists
func (h *JobHandler) JobsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.submit(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// JobByIDHandler dispatches /api/jobs/{id}: GET fetches, DELETE cancels
func (h *JobHandler) JobByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.cancel(w, r, id)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *JobHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req models.PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	job, err := h.orchestrator.Submit(r.Context(), &req)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to submit job")
		WriteError(w, http.StatusInternalServerError, "Failed to submit job")
		return
	}

	WriteJSON(w, http.StatusAccepted, job)
}

func (h *JobHandler) list(w http.ResponseWriter, r *http.Request) {
	status := models.JobStatus(r.URL.Query().Get("status"))
	limit := GetLimitParam(r)

	jobList, err := h.orchestrator.List(r.Context(), status, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list jobs")
		WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobList,
		"count": len(jobList),
	})
}

func (h *JobHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	job, err := h.orchestrator.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "Job not found: "+id)
			return
		}
		h.logger.Error().Err(err).Str("job_id", id).Msg("Failed to get job")
		WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

func (h *JobHandler) cancel(w http.ResponseWriter, r *http.Request, id string) {
	job, err := h.orchestrator.Cancel(r.Context(), id)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "Job not found: "+id)
			return
		}
		h.logger.Error().Err(err).Str("job_id", id).Msg("Failed to cancel job")
		WriteError(w, http.StatusInternalServerError, "Failed to cancel job")
		return
	}

	WriteJSON(w, http.StatusOK, job)
}
