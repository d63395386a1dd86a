package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"datareduce/internal/semantic"
	"datareduce/internal/service"
)

// defaultGranularity is used when the caller omits the query parameter.
const defaultGranularity = "day"

func (h *Handler) bootstrap(w http.ResponseWriter, r *http.Request) {
	result, err := h.analysis.Bootstrap(r.Context(), chi.URLParam(r, "datasetID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.analysis.Profile(r.Context(), chi.URLParam(r, "datasetID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Profiles []service.ColumnProfile `json:"profiles"`
	}{Profiles: profiles})
}

func (h *Handler) timeTrend(w http.ResponseWriter, r *http.Request) {
	result, err := h.analysis.TimeTrend(r.Context(),
		chi.URLParam(r, "datasetID"), granularity(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) topProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.analysis.TopProducts(r.Context(),
		chi.URLParam(r, "datasetID"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) topMembers(w http.ResponseWriter, r *http.Request) {
	result, err := h.analysis.TopMembers(r.Context(),
		chi.URLParam(r, "datasetID"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) averageOrderValue(w http.ResponseWriter, r *http.Request) {
	result, err := h.analysis.AverageOrderValue(r.Context(),
		chi.URLParam(r, "datasetID"), granularity(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) newVsReturning(w http.ResponseWriter, r *http.Request) {
	result, err := h.analysis.NewVsReturning(r.Context(), chi.URLParam(r, "datasetID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// capabilities serves the static analysis catalog; no dataset involved.
func (h *Handler) capabilities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, semantic.Capabilities())
}

func granularity(r *http.Request) string {
	if g := r.URL.Query().Get("granularity"); g != "" {
		return g
	}
	return defaultGranularity
}
