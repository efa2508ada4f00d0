// Package cart implements the cart workflow: adds with upsell bundles,
// absolute-quantity line updates, removal with undo, discount working-set
// management, and the note, all re-rendering the side cart from
// platform-provided sections before any dependent behavior re-arms.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opencubicles/healthkart-dubai/internal/alerts"
	"github.com/opencubicles/healthkart-dubai/internal/config"
	"github.com/opencubicles/healthkart-dubai/internal/events"
	"github.com/opencubicles/healthkart-dubai/internal/panels"
	"github.com/opencubicles/healthkart-dubai/internal/platform"
	"github.com/opencubicles/healthkart-dubai/internal/section"
)

// AddInput describes one add-to-cart interaction.
type AddInput struct {
	ID          int64             `json:"id"`
	Quantity    int               `json:"quantity"`
	SellingPlan int64             `json:"selling_plan,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	Upsells     []platform.Item   `json:"upsells,omitempty"`
	// OnCartPage requests the cart page section alongside the drawer.
	OnCartPage bool `json:"on_cart_page,omitempty"`
}

// Result tells the caller what happened after a successful mutation.
type Result struct {
	ItemCount int   `json:"item_count"`
	Total     int64 `json:"total"`
	// PanelOpened reports the drawer opened; NavigateToCart is set instead
	// when the drawer is disabled.
	PanelOpened    bool `json:"panel_opened"`
	NavigateToCart bool `json:"navigate_to_cart,omitempty"`
	// FieldErrors maps invalid form fields to their messages on a rejected
	// mutation.
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	Rejected    bool              `json:"rejected,omitempty"`
	// UndoToken identifies a removed line that can be restored.
	UndoToken string `json:"undo_token,omitempty"`
}

// alertOrigin groups cart alerts so repeats replace instead of stacking.
const alertOrigin = "cart"

// Manager owns the cart session state.
type Manager struct {
	client *platform.Client
	alerts *alerts.Center
	panels *panels.Manager
	hub    *events.Hub
	cfg    config.CartConfig
	log    *zap.SugaredLogger

	mu      sync.Mutex
	side    *section.Doc
	page    *section.Doc
	note    string
	count   int
	total   int64
	applied []string
	undo    map[string]undoEntry
	busy    bool
}

type undoEntry struct {
	item     platform.Item
	children []platform.Item
}

// NewManager wires the cart workflow.
func NewManager(client *platform.Client, ac *alerts.Center, pm *panels.Manager, hub *events.Hub, cfg config.CartConfig, log *zap.SugaredLogger) *Manager {
	return &Manager{
		client: client,
		alerts: ac,
		panels: pm,
		hub:    hub,
		cfg:    cfg,
		log:    log,
		undo:   make(map[string]undoEntry),
	}
}

// Processing reports whether a cart mutation is in flight.
func (m *Manager) Processing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// ItemCount returns the last rendered item count.
func (m *Manager) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Total returns the last rendered cart total in cents.
func (m *Manager) Total() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// Note returns the cart note as last entered.
func (m *Manager) Note() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.note
}

// AppliedDiscounts returns the working set of applied codes.
func (m *Manager) AppliedDiscounts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.applied...)
}

// SideCartHTML renders the current side-cart markup, empty when nothing has
// been rendered yet.
func (m *Manager) SideCartHTML() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.side == nil {
		return ""
	}
	return m.side.Render()
}

// CartPageHTML renders the cart page section as last returned by a mutation
// made on the cart page, empty off that page.
func (m *Manager) CartPageHTML() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.page == nil {
		return ""
	}
	return m.page.Render()
}

// sections lists the section names requested with a mutation.
func (m *Manager) sections(onCartPage bool) []string {
	names := []string{m.cfg.DrawerSection}
	if onCartPage && m.cfg.PageSection != "" {
		names = append(names, m.cfg.PageSection)
	}
	return names
}

// Add posts the add request. A rejected add surfaces its message through
// the alert center and leaves the panel closed; a successful add re-renders
// the drawer, updates count and total, then opens it (or reports a cart
// navigation when the drawer is disabled).
func (m *Manager) Add(ctx context.Context, in AddInput) (*Result, error) {
	m.setBusy(true)
	defer m.setBusy(false)

	resp, err := m.client.AddToCart(ctx, platform.AddRequest{
		ID:          in.ID,
		Quantity:    in.Quantity,
		SellingPlan: in.SellingPlan,
		Properties:  in.Properties,
		Upsells:     in.Upsells,
		Sections:    m.sections(in.OnCartPage),
	})
	if err != nil {
		m.log.Warnw("add to cart failed", "id", in.ID, "error", err)
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	if resp.Failed() {
		return m.rejected(resp), nil
	}

	if err := m.renderSections(resp.Sections); err != nil {
		return nil, err
	}

	res := &Result{ItemCount: m.ItemCount(), Total: m.Total()}
	if m.cfg.EnableDrawer {
		if err := m.panels.Open(m.cfg.DrawerSection); err != nil {
			m.log.Debugw("drawer open failed", "error", err)
		} else {
			res.PanelOpened = true
			m.hub.Dispatch(events.ThemeCartOpened, nil)
		}
	} else {
		res.NavigateToCart = true
	}
	return res, nil
}

// UpdateQuantity sets the 1-based line to an absolute quantity. Repeating
// the same call yields the same cart state. The note text entered locally
// survives the re-render.
func (m *Manager) UpdateQuantity(ctx context.Context, line, quantity int) (*Result, error) {
	m.setBusy(true)
	defer m.setBusy(false)

	resp, err := m.client.ChangeLine(ctx, line, quantity, m.sections(false))
	if err != nil {
		m.log.Warnw("quantity update failed", "line", line, "error", err)
		return nil, fmt.Errorf("update quantity: %w", err)
	}
	if resp.Failed() {
		return m.rejected(resp), nil
	}
	if err := m.renderSections(resp.Sections); err != nil {
		return nil, err
	}
	return &Result{ItemCount: m.ItemCount(), Total: m.Total()}, nil
}

// Remove drops the line, recording an undo token rebuilt from the rendered
// line's data attributes so the removal can be reversed through the normal
// add path.
func (m *Manager) Remove(ctx context.Context, line int) (*Result, error) {
	entry, tokenable := m.captureLine(line)

	res, err := m.UpdateQuantity(ctx, line, 0)
	if err != nil || res.Rejected {
		return res, err
	}

	if tokenable {
		token := uuid.NewString()
		m.mu.Lock()
		m.undo[token] = entry
		m.mu.Unlock()
		res.UndoToken = token
	}
	return res, nil
}

// Undo restores a removed line. Unknown or already-used tokens are an
// error.
func (m *Manager) Undo(ctx context.Context, token string) (*Result, error) {
	m.mu.Lock()
	entry, ok := m.undo[token]
	if ok {
		delete(m.undo, token)
	}
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown undo token %q", token)
	}

	return m.Add(ctx, AddInput{
		ID:          entry.item.ID,
		Quantity:    entry.item.Quantity,
		SellingPlan: entry.item.SellingPlan,
		Properties:  entry.item.Properties,
		Upsells:     entry.children,
	})
}

// captureLine reads the line's identity out of the rendered drawer before
// it disappears.
func (m *Manager) captureLine(line int) (undoEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.side == nil {
		return undoEntry{}, false
	}

	sel := fmt.Sprintf(`[data-line=%d]`, line)
	idAttr, ok := m.side.DataAttr(sel, "variant-id")
	if !ok {
		return undoEntry{}, false
	}
	id, err := strconv.ParseInt(idAttr, 10, 64)
	if err != nil {
		return undoEntry{}, false
	}

	entry := undoEntry{item: platform.Item{ID: id, Quantity: 1}}
	if q, ok := m.side.DataAttr(sel, "quantity"); ok {
		if n, err := strconv.Atoi(q); err == nil {
			entry.item.Quantity = n
		}
	}
	if sp, ok := m.side.DataAttr(sel, "selling-plan"); ok {
		if n, err := strconv.ParseInt(sp, 10, 64); err == nil {
			entry.item.SellingPlan = n
		}
	}
	if props, ok := m.side.DataAttr(sel, "properties"); ok && props != "" {
		var decoded map[string]string
		if err := json.Unmarshal([]byte(props), &decoded); err == nil {
			entry.item.Properties = decoded
		}
	}
	if kids, ok := m.side.DataAttr(sel, "children"); ok && kids != "" {
		var decoded []platform.Item
		if err := json.Unmarshal([]byte(kids), &decoded); err == nil {
			for i := range decoded {
				decoded[i].ParentID = id
			}
			entry.children = decoded
		}
	}
	return entry, true
}

// rejected maps a business failure onto alerts and a Result. Map-shaped
// descriptions raise one alert per field; a flat description raises one.
func (m *Manager) rejected(resp *platform.CartResponse) *Result {
	res := &Result{Rejected: true}
	switch {
	case len(resp.Description.Fields) > 0:
		res.FieldErrors = resp.Description.Fields
		for field, msg := range resp.Description.Fields {
			m.alerts.Error(msg, alertOrigin+":"+field)
		}
	case resp.Description.Message != "":
		m.alerts.Error(resp.Description.Message, alertOrigin)
	case resp.Message != "":
		m.alerts.Error(resp.Message, alertOrigin)
	default:
		m.alerts.Error("Something went wrong", alertOrigin)
	}
	return res
}

// renderSections swaps the drawer (and cart page) markup in from the
// response, re-reads count and total from the rendered data attributes, and
// only then re-arms dependent behavior.
func (m *Manager) renderSections(rendered map[string]string) error {
	m.mu.Lock()
	if html, ok := rendered[m.cfg.DrawerSection]; ok {
		doc, err := section.ParseString(html)
		if err != nil {
			m.mu.Unlock()
			return fmt.Errorf("parse drawer section: %w", err)
		}
		m.side = doc
		m.readTotals(doc)
	}
	if m.cfg.PageSection != "" {
		if html, ok := rendered[m.cfg.PageSection]; ok {
			doc, err := section.ParseString(html)
			if err != nil {
				m.mu.Unlock()
				return fmt.Errorf("parse cart page section: %w", err)
			}
			m.page = doc
		}
	}
	m.mu.Unlock()

	// Markup is final here; subscribers re-arm against the new content.
	m.hub.DispatchAll(events.AfterCartRender...)
	m.hub.Dispatch(events.AjaxCart, map[string]any{
		"item_count": m.ItemCount(),
		"total":      m.Total(),
	})
	return nil
}

// readTotals must be called with the mutex held.
func (m *Manager) readTotals(doc *section.Doc) {
	if qty, ok := doc.DataAttr("[data-totalqty]", "totalqty"); ok {
		if n, err := strconv.Atoi(qty); err == nil {
			m.count = n
		}
	}
	if price, ok := doc.DataAttr("[data-totalprice]", "totalprice"); ok {
		if n, err := strconv.ParseInt(price, 10, 64); err == nil {
			m.total = n
		}
	}
}

// Refresh renders the drawer, fetching the section fresh when nothing is
// rendered yet or force is set, then opens the panel when asked.
func (m *Manager) Refresh(ctx context.Context, open, force bool) error {
	m.mu.Lock()
	empty := m.side == nil
	m.mu.Unlock()

	if empty || force {
		html, err := m.client.Section(ctx, "/", m.cfg.DrawerSection)
		if err != nil {
			m.log.Warnw("drawer refresh failed", "error", err)
			return fmt.Errorf("refresh drawer: %w", err)
		}
		if err := m.renderSections(map[string]string{m.cfg.DrawerSection: html}); err != nil {
			return err
		}
	}
	if open {
		if err := m.panels.Open(m.cfg.DrawerSection); err != nil {
			return err
		}
		m.hub.Dispatch(events.ThemeCartOpened, nil)
	}
	return nil
}

// SetNote stores the note locally and posts it upstream. Callers debounce.
func (m *Manager) SetNote(ctx context.Context, note string) error {
	m.mu.Lock()
	m.note = note
	m.mu.Unlock()

	resp, err := m.client.UpdateCart(ctx, platform.UpdateRequest{Note: &note})
	if err != nil {
		m.log.Warnw("note update failed", "error", err)
		return fmt.Errorf("set note: %w", err)
	}
	if resp.Failed() {
		m.rejected(resp)
	}
	return nil
}

func (m *Manager) setBusy(v bool) {
	m.mu.Lock()
	m.busy = v
	m.mu.Unlock()
}

func containsFold(set []string, code string) bool {
	for _, c := range set {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}
