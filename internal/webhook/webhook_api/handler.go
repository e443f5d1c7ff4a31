package webhook_api

import (
	"encoding/json"
	"io"
	"net/http"

	"petzi-webhook/internal/webhook"
)

type Handler struct {
	Service *webhook.Service
}

// Receive handles POST /webhook. The body is read verbatim and handed to the
// pipeline together with the Petzi-Signature header; the pipeline decides the
// status and writes the audit row before this handler responds.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Unable to read request body"})
		return
	}

	result := h.Service.Process(r.Context(), body, r.Header.Get("Petzi-Signature"))
	writeJSON(w, result.Status, map[string]string{"message": result.Message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
