package cart

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/opencubicles/healthkart-dubai/internal/alerts"
	"github.com/opencubicles/healthkart-dubai/internal/assets"
	"github.com/opencubicles/healthkart-dubai/internal/config"
	"github.com/opencubicles/healthkart-dubai/internal/events"
	"github.com/opencubicles/healthkart-dubai/internal/panels"
	"github.com/opencubicles/healthkart-dubai/internal/platform"
	"github.com/opencubicles/healthkart-dubai/internal/section"
)

func mustDoc(t *testing.T, html string) *section.Doc {
	t.Helper()
	doc, err := section.ParseString(html)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

const drawerHTML = `<div id="side-cart">
  <span data-totalqty="2" data-totalprice="3998"></span>
  <div data-line="1" data-variant-id="111" data-quantity="2" data-properties="{&quot;Engraving&quot;:&quot;HK&quot;}"></div>
</div>`

const emptyDrawerHTML = `<div id="side-cart">
  <span data-totalqty="0" data-totalprice="0"></span>
</div>`

type fixture struct {
	manager *Manager
	alerts  *alerts.Center
	panels  *panels.Manager
	hub     *events.Hub
}

func newFixture(t *testing.T, handler http.Handler, mutate func(*config.CartConfig)) *fixture {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := zap.NewNop().Sugar()
	hub := events.NewHub(log)
	ac := alerts.NewCenter(hub, 0)
	pm := panels.NewManager(hub, assets.NewLoader(nil, log), 0, log)

	cfg := config.DefaultConfig().Cart
	if mutate != nil {
		mutate(&cfg)
	}
	pm.Register(panels.Panel{ID: cfg.DrawerSection})

	client := platform.New(server.URL, config.DefaultConfig().Routes, 0)
	return &fixture{
		manager: NewManager(client, ac, pm, hub, cfg, log),
		alerts:  ac,
		panels:  pm,
		hub:     hub,
	}
}

func sectionsJSON(name, html string) string {
	b, _ := json.Marshal(map[string]map[string]string{"sections": {name: html}})
	return string(b)
}

func TestAddSuccessOpensDrawer(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sectionsJSON("side-cart", drawerHTML)))
	}), nil)

	var sawCount any
	f.hub.On(events.AjaxCart, func(detail any) {
		sawCount = detail.(map[string]any)["item_count"]
	})
	var renderArmed bool
	f.hub.On(events.ListCart, func(any) {
		renderArmed = true
		// Ordering guarantee: markup and totals are final before
		// dependent handlers observe them.
		if f.manager.SideCartHTML() == "" {
			t.Error("drawer empty during dependent dispatch")
		}
	})

	res, err := f.manager.Add(context.Background(), AddInput{ID: 111, Quantity: 2})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if !res.PanelOpened || res.NavigateToCart {
		t.Errorf("result = %+v", res)
	}
	if res.ItemCount != 2 || res.Total != 3998 {
		t.Errorf("totals = %d / %d", res.ItemCount, res.Total)
	}
	if !renderArmed {
		t.Error("cart render events not dispatched")
	}
	if sawCount != 2 {
		t.Errorf("ajaxCart detail count = %v", sawCount)
	}
	if f.panels.Active() != "side-cart" {
		t.Errorf("active panel = %q", f.panels.Active())
	}
	if f.manager.Processing() {
		t.Error("processing flag not cleared")
	}
}

func TestAddWithoutDrawerNavigates(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sectionsJSON("side-cart", drawerHTML)))
	}), func(c *config.CartConfig) { c.EnableDrawer = false })

	res, err := f.manager.Add(context.Background(), AddInput{ID: 111, Quantity: 2})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if res.PanelOpened || !res.NavigateToCart {
		t.Errorf("result = %+v", res)
	}
	if f.panels.Active() != "" {
		t.Error("drawer opened despite being disabled")
	}
	if res.ItemCount != 2 {
		t.Errorf("item count = %d", res.ItemCount)
	}
}

func TestAddRejectedFlatDescription(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"status":422,"description":"All 2 Black / S are in your cart."}`))
	}), nil)

	res, err := f.manager.Add(context.Background(), AddInput{ID: 111, Quantity: 99})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !res.Rejected {
		t.Fatal("rejection not reported")
	}

	list := f.alerts.List()
	if len(list) != 1 || list[0].Type != alerts.TypeError {
		t.Fatalf("alerts = %v", list)
	}
	if !strings.Contains(list[0].Message, "in your cart") {
		t.Errorf("alert message = %q", list[0].Message)
	}
	if f.panels.Active() != "" {
		t.Error("panel opened on rejection")
	}
	if f.manager.Processing() {
		t.Error("processing flag not cleared on rejection")
	}
}

func TestAddRejectedFieldMap(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"status":422,"description":{"quantity":"Only 1 left","email":"Enter an email"}}`))
	}), nil)

	res, err := f.manager.Add(context.Background(), AddInput{ID: 111, Quantity: 5})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(res.FieldErrors) != 2 {
		t.Fatalf("field errors = %v", res.FieldErrors)
	}
	if got := len(f.alerts.List()); got != 2 {
		t.Errorf("alerts = %d, want one per field", got)
	}
}

func TestUpdateQuantityIdempotent(t *testing.T) {
	var calls int
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var got map[string]any
		json.NewDecoder(r.Body).Decode(&got)
		if got["line"] != float64(1) || got["quantity"] != float64(2) {
			t.Errorf("payload = %v", got)
		}
		w.Write([]byte(sectionsJSON("side-cart", drawerHTML)))
	}), nil)

	first, err := f.manager.UpdateQuantity(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	second, err := f.manager.UpdateQuantity(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("UpdateQuantity twice: %v", err)
	}

	if calls != 2 {
		t.Fatalf("calls = %d", calls)
	}
	if first.ItemCount != second.ItemCount || first.Total != second.Total {
		t.Errorf("repeat update changed state: %+v vs %+v", first, second)
	}
}

func TestNoteSurvivesRerender(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sectionsJSON("side-cart", drawerHTML)))
	}), nil)

	if err := f.manager.SetNote(context.Background(), "gift wrap please"); err != nil {
		t.Fatalf("SetNote: %v", err)
	}
	if _, err := f.manager.UpdateQuantity(context.Background(), 1, 2); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if got := f.manager.Note(); got != "gift wrap please" {
		t.Errorf("note = %q", got)
	}
}

func TestRemoveAndUndo(t *testing.T) {
	var added []map[string]any
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cart/change.js":
			w.Write([]byte(sectionsJSON("side-cart", emptyDrawerHTML)))
		case "/cart/add.js":
			var body map[string]any
			form, _ := io.ReadAll(r.Body)
			if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
				json.Unmarshal(form, &body)
			} else {
				vals, _ := url.ParseQuery(string(form))
				body = map[string]any{"id": vals.Get("id"), "quantity": vals.Get("quantity"),
					"properties[Engraving]": vals.Get("properties[Engraving]")}
			}
			added = append(added, body)
			w.Write([]byte(sectionsJSON("side-cart", drawerHTML)))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}), nil)

	// Seed the drawer so Remove can capture the line.
	if _, err := f.manager.UpdateQuantity(context.Background(), 9, 9); err != nil {
		t.Fatalf("seed: %v", err)
	}
	f.manager.mu.Lock()
	f.manager.side = mustDoc(t, drawerHTML)
	f.manager.mu.Unlock()

	res, err := f.manager.Remove(context.Background(), 1)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if res.UndoToken == "" {
		t.Fatal("no undo token")
	}

	undone, err := f.manager.Undo(context.Background(), res.UndoToken)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if undone.Rejected {
		t.Fatal("undo rejected")
	}
	if len(added) != 1 {
		t.Fatalf("adds = %v", added)
	}
	if added[0]["id"] != "111" || added[0]["quantity"] != "2" {
		t.Errorf("restored line = %v", added[0])
	}
	if added[0]["properties[Engraving]"] != "HK" {
		t.Errorf("restored properties = %v", added[0])
	}

	if _, err := f.manager.Undo(context.Background(), res.UndoToken); err == nil {
		t.Error("token usable twice")
	}
}

func TestRefresh(t *testing.T) {
	var fetches int
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		if got := r.URL.Query().Get("section_id"); got != "side-cart" {
			t.Errorf("section_id = %q", got)
		}
		w.Write([]byte(drawerHTML))
	}), nil)

	if err := f.manager.Refresh(context.Background(), true, false); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if fetches != 1 {
		t.Fatalf("fetches = %d", fetches)
	}
	if f.panels.Active() != "side-cart" {
		t.Error("drawer not opened")
	}
	if f.manager.ItemCount() != 2 {
		t.Errorf("item count = %d", f.manager.ItemCount())
	}

	// Rendered content short-circuits the fetch.
	if err := f.manager.Refresh(context.Background(), false, false); err != nil {
		t.Fatalf("Refresh again: %v", err)
	}
	if fetches != 1 {
		t.Errorf("fetches after cached refresh = %d", fetches)
	}

	// force always refetches.
	if err := f.manager.Refresh(context.Background(), false, true); err != nil {
		t.Fatalf("forced refresh: %v", err)
	}
	if fetches != 2 {
		t.Errorf("fetches after force = %d", fetches)
	}
}

func TestCartPageSectionExposed(t *testing.T) {
	const pageHTML = `<div id="main-cart"><span data-totalqty="2" data-totalprice="3998"></span></div>`
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := json.Marshal(map[string]map[string]string{"sections": {
			"side-cart": drawerHTML,
			"main-cart": pageHTML,
		}})
		w.Write(b)
	}), nil)

	if _, err := f.manager.Add(context.Background(), AddInput{ID: 111, Quantity: 2, OnCartPage: true}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := f.manager.CartPageHTML(); !strings.Contains(got, "main-cart") {
		t.Errorf("cart page markup = %q", got)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, f.manager)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart/", nil))
	var state struct {
		Drawer string `json:"drawer"`
		Page   string `json:"page"`
	}
	json.Unmarshal(rec.Body.Bytes(), &state)
	if !strings.Contains(state.Page, "main-cart") {
		t.Errorf("state page = %q", state.Page)
	}
	if !strings.Contains(state.Drawer, "side-cart") {
		t.Errorf("state drawer = %q", state.Drawer)
	}
}
