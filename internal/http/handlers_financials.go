package http

import (
	"net/http"
	"strings"

	"stocktracker/internal/core"
)

// upsertRecordRequest is the POST body for one period's data.
type upsertRecordRequest struct {
	PeriodType  core.PeriodType   `json:"periodType"`
	PeriodISO   string            `json:"periodISO"`
	PeriodLabel string            `json:"periodLabel,omitempty"`
	Metrics     core.MetricValues `json:"metrics"`
	Custom      core.MetricValues `json:"custom,omitempty"`
	Force       bool              `json:"force,omitempty"`
}

// GET /api/financials/{symbol}?periodType=&limit=&metrics=a,b,c
func (s *Server) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(r.PathValue("symbol"))

	items, err := s.financials.GetSeries(r.Context(),
		symbol,
		queryPeriodType(r),
		queryInt(r, "limit", 0),
		queryList(r, "metrics"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// POST /api/financials/{symbol}
func (s *Server) handleUpsertRecord(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(r.PathValue("symbol"))

	var req upsertRecordRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	record := core.FinancialRecord{
		Symbol:      symbol,
		PeriodType:  req.PeriodType,
		PeriodISO:   req.PeriodISO,
		PeriodLabel: req.PeriodLabel,
		Metrics:     req.Metrics,
		Custom:      req.Custom,
	}

	saved, err := s.financials.Upsert(r.Context(), record, req.Force)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// DELETE /api/financials/{symbol}?periodType=&period=
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(r.PathValue("symbol"))
	periodISO := strings.TrimSpace(r.URL.Query().Get("period"))

	if err := s.financials.Delete(r.Context(), symbol, queryPeriodType(r), periodISO); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
