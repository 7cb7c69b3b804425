package http

import (
	"net/http"
	"strings"
)

// GET /api/compare?symbols=A,B&metric=revenue&periodType=quarterly&limit=5
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	comparison, err := s.comparator.Compare(r.Context(),
		queryList(r, "symbols"),
		strings.TrimSpace(r.URL.Query().Get("metric")),
		queryPeriodType(r),
		queryInt(r, "limit", 0))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, comparison)
}
