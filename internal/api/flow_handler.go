package api

import (
	"net/http"
)

// ListFlows возвращает список всех flows.
// GET /api/v1/flows
func (h *Handler) ListFlows(w http.ResponseWriter, _ *http.Request) {
	flows := h.catalog.All()

	result := make([]FlowSummary, len(flows))
	for i, f := range flows {
		result[i] = FlowSummaryFromDomain(f)
	}

	writeList(w, result, len(result))
}

// GetFlow возвращает полное определение flow.
// GET /api/v1/flows/{name}
func (h *Handler) GetFlow(w http.ResponseWriter, r *http.Request) {
	def, ok := h.catalog.Lookup(r.PathValue("name"))
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "flow not found")
		return
	}

	writeData(w, def)
}
