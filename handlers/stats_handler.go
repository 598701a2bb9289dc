package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gabnunesdev/futmais-app/services"
)

type StatsHandler struct {
	statsService services.StatsService
}

func NewStatsHandler(statsService services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetRanking returns the goal/assist table for a period. Defaults to the
// current day, the usual view between matches.
func (h *StatsHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := now

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		to = parsed
	}

	ranking, err := h.statsService.GetRanking(r.Context(), from, to)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"ranking": ranking}, nil)
}

func (h *StatsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			badRequestResponse(w, r, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	history, err := h.statsService.GetHistory(r.Context(), limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"history": history}, nil)
}
