package http

import (
	"net/http"
	"strings"

	"stocktracker/internal/core"
)

// GET /api/companies?q=&limit=
func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.companies.List(r.Context(),
		strings.TrimSpace(r.URL.Query().Get("q")),
		queryInt(r, "limit", 0))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, companies)
}

// GET /api/companies/{symbol}
func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := s.companies.Get(r.Context(), r.PathValue("symbol"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, company)
}

// POST /api/companies
func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var company core.Company
	if err := decodeBody(r, &company); err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.companies.Create(r.Context(), company)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// PUT /api/companies/{symbol}
func (s *Server) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	var company core.Company
	if err := decodeBody(r, &company); err != nil {
		respondError(w, r, err)
		return
	}
	company.Symbol = r.PathValue("symbol")

	updated, err := s.companies.Update(r.Context(), company)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DELETE /api/companies/{symbol}
func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := s.companies.Delete(r.Context(), r.PathValue("symbol")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type syncRequest struct {
	Symbol string `json:"symbol"`
}

// POST /api/sync/company queues a market-data refresh; the worker applies
// it asynchronously.
func (s *Server) handleSyncCompany(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.companies.RequestSync(r.Context(), strings.TrimSpace(req.Symbol)); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "queued",
		"symbol": req.Symbol,
	})
}
