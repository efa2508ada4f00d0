package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/opencubicles/healthkart-dubai/internal/alerts"
	"github.com/opencubicles/healthkart-dubai/internal/assets"
	"github.com/opencubicles/healthkart-dubai/internal/config"
	"github.com/opencubicles/healthkart-dubai/internal/db"
	"github.com/opencubicles/healthkart-dubai/internal/events"
	"github.com/opencubicles/healthkart-dubai/internal/flags"
	"github.com/opencubicles/healthkart-dubai/internal/panels"
	"github.com/opencubicles/healthkart-dubai/internal/platform"
	"github.com/opencubicles/healthkart-dubai/internal/recent"
	"github.com/opencubicles/healthkart-dubai/internal/variant"
)

// newTestServer wires the feature routes the way cmd/serve does.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := zap.NewNop().Sugar()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	hub := events.NewHub(log)
	s := New(Config{Port: 0, AllowAll: true}, log)

	pm := panels.NewManager(hub, assets.NewLoader(nil, log), 0, log)
	pm.Register(panels.Panel{ID: "side-cart"})
	pm.Register(panels.Panel{ID: "mobile-nav"})

	panels.RegisterRoutes(s.Router(), pm)
	alerts.RegisterRoutes(s.Router(), alerts.NewCenter(hub, 0))
	recent.RegisterRoutes(s.Router(), recent.NewStore(database, config.DefaultConfig().Recent.Limit))
	flags.RegisterRoutes(s.Router(), flags.NewStore(database))
	client := platform.New("http://shop.example", config.DefaultConfig().Routes, 0)
	caps := config.DefaultConfig().Capabilities()
	variant.RegisterRoutes(s.Router(), variant.NewRegistry(variant.NewOrchestrator(client, hub, caps, log), caps))
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
}

func TestPanelRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/panels/side-cart/open", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("open = %d: %s", rec.Code, rec.Body)
	}

	// Opening a second panel displaces the first.
	doJSON(t, s, http.MethodPost, "/api/panels/mobile-nav/open", nil)
	rec = doJSON(t, s, http.MethodGet, "/api/panels/side-cart", nil)
	var st panels.Status
	json.Unmarshal(rec.Body.Bytes(), &st)
	if st.State != panels.StateClosed || !st.AriaHidden {
		t.Errorf("displaced panel = %+v", st)
	}

	if rec := doJSON(t, s, http.MethodPost, "/api/panels/ghost/open", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown panel open = %d", rec.Code)
	}
}

func TestAlertRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/alerts/", map[string]string{"message": "Sold out", "type": "error"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("show = %d: %s", rec.Code, rec.Body)
	}
	var created map[string]string
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(t, s, http.MethodGet, "/api/alerts/", nil)
	var list []alerts.Alert
	json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list) != 1 || list[0].Message != "Sold out" {
		t.Fatalf("list = %v", list)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/alerts/"+created["id"], nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("dismiss = %d", rec.Code)
	}
}

func TestRecentRoutes(t *testing.T) {
	s := newTestServer(t)

	for _, id := range []string{"p1", "p2"} {
		rec := doJSON(t, s, http.MethodPost, "/api/recent", map[string]string{"id": id, "url": "/products/" + id})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("record = %d: %s", rec.Code, rec.Body)
		}
	}

	rec := doJSON(t, s, http.MethodGet, "/api/recent", nil)
	var list []recent.Product
	json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list) != 2 || list[0].ID != "p2" {
		t.Fatalf("list = %v", list)
	}
}

func TestFlagRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPut, "/api/flags/cookie-bar", map[string]any{"value": "accepted"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("set = %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/flags/cookie-bar", nil)
	var got map[string]string
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got["value"] != "accepted" {
		t.Fatalf("get = %v", got)
	}

	if rec := doJSON(t, s, http.MethodGet, "/api/flags/missing", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing flag = %d", rec.Code)
	}
}

func TestVariantRoutes(t *testing.T) {
	s := newTestServer(t)

	register := map[string]any{
		"handle": "whey-gold",
		"variants": []map[string]any{
			{"id": 1, "options": []string{"Chocolate", "1kg"}, "price": 4999, "available": true},
			{"id": 2, "options": []string{"Vanilla", "1kg"}, "price": 4999, "available": false},
		},
		"options": []map[string]any{
			{"Name": "Flavour", "Values": []string{"Chocolate", "Vanilla"}},
			{"Name": "Size", "Values": []string{"1kg"}},
		},
		"initial": []string{"Chocolate", "1kg"},
	}
	rec := doJSON(t, s, http.MethodPost, "/api/variant/products", register)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register = %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/variant/resolve?product=whey-gold&selection=Vanilla,1kg", nil)
	var resolved struct {
		Variant *variant.Variant `json:"variant"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resolved)
	if resolved.Variant == nil || resolved.Variant.ID != 2 {
		t.Fatalf("resolve = %+v", resolved.Variant)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/variant/select", map[string]string{
		"product": "whey-gold", "option": "Flavour", "value": "Vanilla",
	})
	var sel struct {
		Render variant.RenderState `json:"render"`
	}
	json.Unmarshal(rec.Body.Bytes(), &sel)
	if sel.Render.SubmitEnabled || sel.Render.SubmitLabel != variant.LabelSoldOut {
		t.Fatalf("render = %+v", sel.Render)
	}
}
