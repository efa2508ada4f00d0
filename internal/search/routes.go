package search

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the predictive search API.
func RegisterRoutes(r chi.Router, l *Live) {
	r.Get("/api/search", handleQuery(l))
}

func handleQuery(l *Live) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := l.Query(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
