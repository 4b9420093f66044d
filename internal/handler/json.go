package handler

import (
	"encoding/json"
	"net/http"
)

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(r *http.Request, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		requestLog(r).WithError(err).Error("write JSON response")
	}
}
