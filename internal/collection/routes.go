package collection

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/opencubicles/healthkart-dubai/internal/section"
)

// Registry keeps one manager per collection path a page has opened.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Manager
	factory  func(path, template string) *Manager
}

// NewRegistry creates a registry building managers with factory.
func NewRegistry(factory func(path, template string) *Manager) *Registry {
	return &Registry{sessions: make(map[string]*Manager), factory: factory}
}

// Open creates (or replaces) the session for a path.
func (g *Registry) Open(path, template string) *Manager {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := g.factory(path, template)
	g.sessions[path] = m
	return m
}

// Get returns the session for a path.
func (g *Registry) Get(path string) (*Manager, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.sessions[path]
	return m, ok
}

// RegisterRoutes mounts the collection API.
func RegisterRoutes(r chi.Router, reg *Registry) {
	r.Route("/api/collection", func(r chi.Router) {
		r.Post("/open", handleOpen(reg))
		r.Post("/filters", handleFilters(reg))
		r.Post("/more", handleMore(reg))
		r.Post("/sort", handleSort(reg))
		r.Post("/back", handleBack(reg))
		r.Get("/view", handleGetView(reg))
		r.Put("/view", handleSetView(reg))
	})
}

func handleOpen(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Path     string      `json:"path"`
			Template string      `json:"template"`
			HTML     string      `json:"html"`
			Form     *FilterForm `json:"form,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Path == "" || in.Template == "" {
			http.Error(w, "path and template are required", http.StatusBadRequest)
			return
		}

		m := reg.Open(in.Path, in.Template)
		if in.HTML != "" {
			doc, err := section.ParseString(in.HTML)
			if err != nil {
				http.Error(w, "invalid collection markup", http.StatusBadRequest)
				return
			}
			m.SetDoc(doc)
		}
		if in.Form != nil {
			m.SetForm(in.Form)
		}
		writeJSON(w, http.StatusCreated, map[string]string{"path": in.Path})
	}
}

func handleFilters(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Path   string `json:"path"`
			Toggle *struct {
				Param string `json:"param"`
				Value string `json:"value"`
			} `json:"toggle,omitempty"`
			Price *PriceRange `json:"price,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		m, ok := reg.Get(in.Path)
		if !ok {
			http.Error(w, "collection not opened", http.StatusNotFound)
			return
		}

		err := m.UpdateFilters(r.Context(), func(f *FilterForm) {
			if in.Toggle != nil {
				f.Toggle(in.Toggle.Param, in.Toggle.Value)
			}
			if in.Price != nil {
				f.Price = *in.Price
			}
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeFiltered(w, m)
	}
}

func handleMore(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Path      string    `json:"path"`
			Direction Direction `json:"direction"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		m, ok := reg.Get(in.Path)
		if !ok {
			http.Error(w, "collection not opened", http.StatusNotFound)
			return
		}
		if in.Direction != Next && in.Direction != Prev {
			http.Error(w, "direction must be next or prev", http.StatusBadRequest)
			return
		}

		res, err := m.LoadMore(r.Context(), in.Direction)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": res, "html": m.DocHTML()})
	}
}

func handleSort(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Path   string `json:"path"`
			SortBy string `json:"sort_by"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.SortBy == "" {
			http.Error(w, "sort_by is required", http.StatusBadRequest)
			return
		}
		m, ok := reg.Get(in.Path)
		if !ok {
			http.Error(w, "collection not opened", http.StatusNotFound)
			return
		}
		if err := m.Sort(r.Context(), in.SortBy); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeFiltered(w, m)
	}
}

func handleBack(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		m, ok := reg.Get(in.Path)
		if !ok {
			http.Error(w, "collection not opened", http.StatusNotFound)
			return
		}
		target, ok := m.HistoryStack().Back()
		if !ok {
			http.Error(w, "nothing to go back to", http.StatusConflict)
			return
		}
		if err := m.Restore(r.Context(), target); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeFiltered(w, m)
	}
}

func handleGetView(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := reg.Get(r.URL.Query().Get("path"))
		if !ok {
			http.Error(w, "collection not opened", http.StatusNotFound)
			return
		}
		mode, err := m.ViewMode(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"mode": mode})
	}
}

func handleSetView(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Path string `json:"path"`
			Mode string `json:"mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Mode == "" {
			http.Error(w, "mode is required", http.StatusBadRequest)
			return
		}
		m, ok := reg.Get(in.Path)
		if !ok {
			http.Error(w, "collection not opened", http.StatusNotFound)
			return
		}
		if err := m.SetViewMode(r.Context(), in.Mode); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeFiltered(w http.ResponseWriter, m *Manager) {
	url, _ := m.HistoryStack().Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"html":  m.DocHTML(),
		"url":   url,
		"query": m.Query(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
