package history_api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"petzi-webhook/internal/history"
)

type Handler struct {
	Service *history.Service
}

// ListResponse is what the listing template consumes: one page of records,
// pagination metadata, the echoed filters and the parallel day/count arrays
// for the chart.
type ListResponse struct {
	Records    interface{}       `json:"records"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
	Filters    map[string]string `json:"filters"`
	Days       []string          `json:"days"`
	Counts     []int             `json:"counts"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Get("/", h.ListRequests)
		r.Get("/{id}", h.GetRequest)
	})
}

// ListRequests handles GET /history?page=&http_status=&start_date=&end_date=.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	filter := history.Filter{
		Status:    q.Get("http_status"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Page:      page,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	records, totalPages, err := h.Service.Query(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to load history"})
		return
	}

	counts, err := h.Service.DailySuccessCounts(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to load daily counts"})
		return
	}

	days := make([]string, len(counts))
	values := make([]int, len(counts))
	for i, c := range counts {
		days[i] = c.Day
		values[i] = c.Count
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Records:    records,
		Page:       filter.Page,
		TotalPages: totalPages,
		Filters: map[string]string{
			"http_status": filter.Status,
			"start_date":  filter.StartDate,
			"end_date":    filter.EndDate,
		},
		Days:   days,
		Counts: values,
	})
}

// GetRequest handles GET /history/{id}.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Webhook request not found"})
		return
	}

	detail, err := h.Service.GetDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Webhook request not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to load webhook request"})
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
