package alerts

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the alert API.
func RegisterRoutes(r chi.Router, c *Center) {
	r.Route("/api/alerts", func(r chi.Router) {
		r.Get("/", handleList(c))
		r.Post("/", handleShow(c))
		r.Delete("/{id}", handleDismiss(c))
	})
}

func handleList(c *Center) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := c.List()
		if list == nil {
			list = []Alert{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleShow(c *Center) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a Alert
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil || a.Message == "" {
			http.Error(w, "message is required", http.StatusBadRequest)
			return
		}
		id := c.Show(a)
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	}
}

func handleDismiss(c *Center) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.Dismiss(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
