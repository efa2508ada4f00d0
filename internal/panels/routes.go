package panels

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the panel API.
func RegisterRoutes(r chi.Router, m *Manager) {
	r.Route("/api/panels", func(r chi.Router) {
		r.Get("/", handleList(m))
		r.Post("/", handleRegisterPanel(m))
		r.Get("/{id}", handleStatus(m))
		r.Post("/{id}/open", handleOpen(m))
		r.Post("/{id}/close", handleClose(m))
		r.Post("/close-all", handleCloseAll(m))
		r.Post("/popups/{title}/open", handleOpenPopup(m))
	})
}

func handleList(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, m.List())
	}
}

func handleRegisterPanel(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p Panel
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.ID == "" {
			http.Error(w, "id is required", http.StatusBadRequest)
			return
		}
		m.Register(p)
		st, _ := m.Status(p.ID)
		writeJSON(w, http.StatusCreated, st)
	}
}

func handleStatus(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := m.Status(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "panel not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func handleOpen(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := m.Open(id); err != nil {
			http.Error(w, "panel not found", http.StatusNotFound)
			return
		}
		st, _ := m.Status(id)
		writeJSON(w, http.StatusOK, st)
	}
}

func handleClose(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := m.Close(id); err != nil {
			http.Error(w, "panel not found", http.StatusNotFound)
			return
		}
		st, _ := m.Status(id)
		writeJSON(w, http.StatusOK, st)
	}
}

func handleCloseAll(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.CloseAll()
		writeJSON(w, http.StatusOK, m.List())
	}
}

func handleOpenPopup(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := m.OpenPopup(r.Context(), chi.URLParam(r, "title")); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"active": m.Active()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
