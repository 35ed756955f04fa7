package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shaiso/Deployer/internal/repo"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnavailable   ErrorCode = "UNAVAILABLE"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — тело ответа с ошибкой: {"error": {"code", "message"}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// writeJSON пишет v с кодом status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeData отвечает {"data": data}.
func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, struct {
		Data any `json:"data"`
	}{data})
}

// writeList отвечает {"data": items, "total": total}.
func writeList(w http.ResponseWriter, items any, total int) {
	writeJSON(w, http.StatusOK, struct {
		Data  any `json:"data"`
		Total int `json:"total"`
	}{items, total})
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeStoreError переводит ошибку истории запусков в ответ:
// repo.ErrNotFound — 404, остальное — 500 с записью в лог.
func (h *Handler) writeStoreError(w http.ResponseWriter, err error, notFoundMsg string) {
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, notFoundMsg)
		return
	}

	h.logger.Error("run history request failed", "error", err)
	writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}
