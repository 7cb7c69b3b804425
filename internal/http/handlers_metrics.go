package http

import (
	"net/http"
	"strings"

	"stocktracker/internal/core"
	"stocktracker/internal/services"
)

// GET /api/metrics?section=
func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	section := core.Section(strings.TrimSpace(r.URL.Query().Get("section")))

	defs, err := s.metrics.List(r.Context(), section)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, defs)
}

// GET /api/metrics/{key}
func (s *Server) handleGetMetric(w http.ResponseWriter, r *http.Request) {
	def, err := s.metrics.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, def)
}

// POST /api/metrics
func (s *Server) handleCreateMetric(w http.ResponseWriter, r *http.Request) {
	var def core.MetricDefinition
	if err := decodeBody(r, &def); err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.metrics.Create(r.Context(), def)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// PUT /api/metrics/{key}
func (s *Server) handleUpdateMetric(w http.ResponseWriter, r *http.Request) {
	var def core.MetricDefinition
	if err := decodeBody(r, &def); err != nil {
		respondError(w, r, err)
		return
	}
	def.Key = r.PathValue("key")

	updated, err := s.metrics.Update(r.Context(), def)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DELETE /api/metrics/{key}
func (s *Server) handleDeleteMetric(w http.ResponseWriter, r *http.Request) {
	if err := s.metrics.Delete(r.Context(), r.PathValue("key")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// POST /api/metrics/reorder
func (s *Server) handleReorderMetrics(w http.ResponseWriter, r *http.Request) {
	var entries []services.ReorderEntry
	if err := decodeBody(r, &entries); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := s.metrics.Reorder(r.Context(), entries)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GET /api/metrics/effective/{symbol}
func (s *Server) handleEffectiveCatalog(w http.ResponseWriter, r *http.Request) {
	defs, err := s.metrics.EffectiveCatalog(r.Context(), r.PathValue("symbol"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, defs)
}

// GET /api/category-metrics/{category}
func (s *Server) handleGetCategoryDefaults(w http.ResponseWriter, r *http.Request) {
	defs, err := s.metrics.CategoryDefaults(r.Context(), r.PathValue("category"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, defs)
}

// PUT /api/category-metrics/{category}
func (s *Server) handleSetCategoryDefaults(w http.ResponseWriter, r *http.Request) {
	var defs []core.MetricDefinition
	if err := decodeBody(r, &defs); err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.metrics.SetCategoryDefaults(r.Context(), r.PathValue("category"), defs); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, defs)
}

// DELETE /api/category-metrics/{category}
func (s *Server) handleDeleteCategoryDefaults(w http.ResponseWriter, r *http.Request) {
	if err := s.metrics.DeleteCategoryDefaults(r.Context(), r.PathValue("category")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
