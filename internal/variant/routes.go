package variant

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/opencubicles/healthkart-dubai/internal/config"
	"github.com/opencubicles/healthkart-dubai/internal/section"
)

// productDoc pairs a registered product document with the lock serializing
// option changes against it.
type productDoc struct {
	mu  sync.Mutex
	doc *section.Doc
}

// Registry keeps the pickers and product documents for products the
// connected pages have registered, keyed by product handle.
type Registry struct {
	orch *Orchestrator
	caps config.Capabilities

	mu      sync.Mutex
	pickers map[string]*Picker
	docs    map[string]*productDoc
}

// NewRegistry creates an empty registry backed by orch for option-change
// workflows. Registered pickers inherit the theme capability set.
func NewRegistry(orch *Orchestrator, caps config.Capabilities) *Registry {
	return &Registry{
		orch:    orch,
		caps:    caps,
		pickers: make(map[string]*Picker),
		docs:    make(map[string]*productDoc),
	}
}

// Put registers (or replaces) the picker for a handle.
func (g *Registry) Put(handle string, p *Picker) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pickers[handle] = p
}

// Get returns the picker for a handle.
func (g *Registry) Get(handle string) (*Picker, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.pickers[handle]
	return p, ok
}

func (g *Registry) putDoc(handle string, d *section.Doc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.docs[handle] = &productDoc{doc: d}
}

func (g *Registry) doc(handle string) (*productDoc, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d, ok := g.docs[handle]
	return d, ok
}

// RegisterRoutes mounts the variant API.
func RegisterRoutes(r chi.Router, reg *Registry) {
	r.Route("/api/variant", func(r chi.Router) {
		r.Post("/products", handleRegister(reg))
		r.Get("/resolve", handleResolve(reg))
		r.Post("/select", handleSelect(reg))
		r.Post("/change", handleChange(reg))
	})
}

func handleRegister(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Handle   string   `json:"handle"`
			Variants Table    `json:"variants"`
			Options  []Option `json:"options"`
			Initial  []string `json:"initial"`
			SizeMap  []string `json:"size_map,omitempty"`
			AllSizes []string `json:"all_sizes,omitempty"`
			Markup   string   `json:"markup,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if in.Handle == "" || len(in.Variants) == 0 {
			http.Error(w, "handle and variants are required", http.StatusBadRequest)
			return
		}

		p := NewPicker(in.Variants, in.Options, in.Initial)
		p.SetCapabilities(reg.caps)
		if len(in.SizeMap) > 0 {
			m, err := ParseSizeMap(in.SizeMap, in.AllSizes)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			p.SetSizeMap(m)
		}
		reg.Put(in.Handle, p)
		if in.Markup != "" {
			doc, err := section.ParseString(in.Markup)
			if err != nil {
				http.Error(w, "invalid markup", http.StatusBadRequest)
				return
			}
			reg.putDoc(in.Handle, doc)
		}
		writeJSON(w, http.StatusCreated, selectionView(p))
	}
}

func handleResolve(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := reg.Get(r.URL.Query().Get("product"))
		if !ok {
			http.Error(w, "unknown product", http.StatusNotFound)
			return
		}
		selection := strings.Split(r.URL.Query().Get("selection"), ",")
		writeJSON(w, http.StatusOK, map[string]any{
			"variant": Resolve(p.table, selection),
		})
	}
}

func handleSelect(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Product string `json:"product"`
			Option  string `json:"option"`
			Value   string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		p, ok := reg.Get(in.Product)
		if !ok {
			http.Error(w, "unknown product", http.StatusNotFound)
			return
		}
		p.Select(in.Option, in.Value)
		writeJSON(w, http.StatusOK, selectionView(p))
	}
}

func handleChange(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Product      string `json:"product"`
			Option       string `json:"option"`
			Value        string `json:"value"`
			ProductURL   string `json:"product_url"`
			CurrentURL   string `json:"current_url"`
			Template     string `json:"template"`
			Sticky       string `json:"sticky,omitempty"`
			QuickShop    bool   `json:"quick_shop,omitempty"`
			VariantID    int64  `json:"variant_id,omitempty"`
			OptionValues string `json:"option_values,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		pd, ok := reg.doc(in.Product)
		crossProduct := in.ProductURL != "" && in.ProductURL != in.CurrentURL
		if !ok && !crossProduct {
			http.Error(w, "no markup registered for product", http.StatusNotFound)
			return
		}
		if p, ok := reg.Get(in.Product); ok && in.Option != "" {
			p.Select(in.Option, in.Value)
		}
		// Changes against the same document run one at a time.
		var doc *section.Doc
		if pd != nil {
			pd.mu.Lock()
			defer pd.mu.Unlock()
			doc = pd.doc
		}
		out, err := reg.orch.OptionChanged(r.Context(), doc, ChangeInput{
			Option:       in.Option,
			Value:        in.Value,
			ProductURL:   in.ProductURL,
			CurrentURL:   in.CurrentURL,
			Template:     in.Template,
			Sticky:       in.Sticky,
			QuickShop:    in.QuickShop,
			VariantID:    in.VariantID,
			OptionValues: in.OptionValues,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		resp := map[string]any{"stale": out.Stale, "seq": out.Seq}
		if out.NavigateTo != "" {
			resp["navigate_to"] = out.NavigateTo
		}
		if out.ReopenQuickShop != "" {
			resp["reopen_quick_shop"] = out.ReopenQuickShop
		}
		if out.RewriteURL != "" {
			resp["rewrite_url"] = out.RewriteURL
		}
		if out.Doc != nil {
			resp["html"] = out.Doc.Render()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func selectionView(p *Picker) map[string]any {
	sel := p.Selection()
	out := map[string]any{
		"selection": sel,
		"variant":   p.Current(),
		"render":    p.Render(),
	}
	// Sizes hang off the color choice; without a selection there is no
	// color to look up.
	if p.hasSizeMap() && len(sel) > 0 {
		out["sizes"] = p.SizesFor(sel[0])
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
