package cart

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the cart API.
func RegisterRoutes(r chi.Router, m *Manager) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", handleState(m))
		r.Post("/items", handleAdd(m))
		r.Post("/line", handleLine(m))
		r.Post("/undo", handleUndo(m))
		r.Post("/discounts", handleApplyDiscount(m))
		r.Delete("/discounts/{code}", handleRemoveDiscount(m))
		r.Post("/note", handleNote(m))
		r.Post("/refresh", handleRefresh(m))
	})
}

func handleState(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"item_count": m.ItemCount(),
			"total":      m.Total(),
			"note":       m.Note(),
			"discounts":  m.AppliedDiscounts(),
			"drawer":     m.SideCartHTML(),
			"page":       m.CartPageHTML(),
		})
	}
}

func handleAdd(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in AddInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if in.ID == 0 || in.Quantity <= 0 {
			http.Error(w, "id and quantity are required", http.StatusBadRequest)
			return
		}
		res, err := m.Add(r.Context(), in)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, statusFor(res), res)
	}
}

func handleLine(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Line     int  `json:"line"`
			Quantity int  `json:"quantity"`
			Remove   bool `json:"remove"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if in.Line <= 0 {
			http.Error(w, "line is required", http.StatusBadRequest)
			return
		}

		var res *Result
		var err error
		if in.Remove || in.Quantity == 0 {
			res, err = m.Remove(r.Context(), in.Line)
		} else {
			res, err = m.UpdateQuantity(r.Context(), in.Line, in.Quantity)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, statusFor(res), res)
	}
}

func handleUndo(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Token == "" {
			http.Error(w, "token is required", http.StatusBadRequest)
			return
		}
		res, err := m.Undo(r.Context(), in.Token)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, statusFor(res), res)
	}
}

func handleApplyDiscount(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Code == "" {
			http.Error(w, "code is required", http.StatusBadRequest)
			return
		}
		res, err := m.ApplyDiscount(r.Context(), in.Code)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, statusFor(res), res)
	}
}

func handleRemoveDiscount(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := m.RemoveDiscount(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, statusFor(res), res)
	}
}

func handleNote(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Note string `json:"note"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := m.SetNote(r.Context(), in.Note); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"note": in.Note})
	}
}

func handleRefresh(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Open  bool `json:"open"`
			Force bool `json:"force"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := m.Refresh(r.Context(), in.Open, in.Force); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"item_count": m.ItemCount(),
			"total":      m.Total(),
		})
	}
}

// statusFor maps rejected mutations to 422, mirroring the platform.
func statusFor(res *Result) int {
	if res.Rejected {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
