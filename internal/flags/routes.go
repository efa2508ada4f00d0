package flags

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the client-flag API.
func RegisterRoutes(r chi.Router, s *Store) {
	r.Route("/api/flags", func(r chi.Router) {
		r.Get("/{name}", handleGet(s))
		r.Put("/{name}", handleSet(s))
		r.Delete("/{name}", handleClear(s))
	})
}

func handleGet(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		value, ok, err := s.Get(r.Context(), name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "flag not set", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"name": name, "value": value})
	}
}

func handleSet(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Value     string `json:"value"`
			SingleUse bool   `json:"single_use"`
			TTLSec    int64  `json:"ttl_seconds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		name := chi.URLParam(r, "name")
		opts := Options{SingleUse: in.SingleUse, TTL: time.Duration(in.TTLSec) * time.Second}
		if err := s.Set(r.Context(), name, in.Value, opts); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleClear(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Clear(r.Context(), chi.URLParam(r, "name")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
