package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/shaiso/Deployer/internal/domain"
	"github.com/shaiso/Deployer/internal/repo"
)

const historyDisabled = "run history is disabled"

// ListRuns возвращает список runs с фильтрацией.
// GET /api/v1/runs?flow=...&status=...&limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, historyDisabled)
		return
	}

	q := r.URL.Query()
	filter := repo.RunFilter{
		FlowName: q.Get("flow"),
		Limit:    parseInt(q.Get("limit"), 50),
		Offset:   parseInt(q.Get("offset"), 0),
	}

	if status := strings.ToUpper(q.Get("status")); status != "" {
		filter.Status = domain.ParseRunStatus(status)
		if filter.Status.String() != status {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid status")
			return
		}
	}

	runs, err := h.runs.List(r.Context(), filter)
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	writeList(w, result, len(result))
}

// GetRun возвращает run по ID.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, historyDisabled)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid run id")
		return
	}

	run, err := h.runs.GetByID(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "run not found")
		return
	}

	writeData(w, RunFromDomain(*run))
}

// parseInt разбирает неотрицательное число; при ошибке возвращает def.
func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
