// Package panels implements the overlay registry: side panels and popups
// with a single active-overlay slot, open/close state transitions, focus
// settling, and lazy one-time asset loading for plugin-backed popups.
package panels

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/opencubicles/healthkart-dubai/internal/assets"
	"github.com/opencubicles/healthkart-dubai/internal/events"
)

// State is a panel's position in its lifecycle.
type State string

const (
	StateClosed  State = "closed"
	StateOpening State = "opening"
	StateOpen    State = "open"
	StateClosing State = "closing"
)

// Panel is one registered overlay.
type Panel struct {
	ID    string
	Title string
	// Delay auto-closes the panel that long after opening; zero keeps it
	// open until closed explicitly.
	Delay time.Duration
	// Asset names a plugin resource loaded once before the first render.
	Asset    string
	AssetURL string

	state      State
	ariaHidden bool
	focusable  bool
	rendered   bool
}

// Status is the externally visible view of one panel.
type Status struct {
	ID         string `json:"id"`
	State      State  `json:"state"`
	AriaHidden bool   `json:"aria_hidden"`
	Focusable  bool   `json:"focusable"`
}

// Manager owns the registry. Exactly one overlay is active at a time:
// opening a panel force-closes whichever panel, search overlay, or nav
// dropdown currently holds the slot.
type Manager struct {
	mu       sync.Mutex
	panels   map[string]*Panel
	byTitle  map[string]*Panel
	active   string
	searchUp bool
	navUp    bool

	hub    *events.Hub
	loader *assets.Loader
	log    *zap.SugaredLogger
	settle time.Duration
	timers map[string]*time.Timer
}

// NewManager creates an empty registry. settle is the focus settle delay
// applied after a panel finishes opening.
func NewManager(hub *events.Hub, loader *assets.Loader, settle time.Duration, log *zap.SugaredLogger) *Manager {
	return &Manager{
		panels:  make(map[string]*Panel),
		byTitle: make(map[string]*Panel),
		hub:     hub,
		loader:  loader,
		log:     log,
		settle:  settle,
		timers:  make(map[string]*time.Timer),
	}
}

// Register adds a panel. Re-registering an existing ID keeps the prior
// state, so re-running page wiring is a no-op.
func (m *Manager) Register(p Panel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.panels[p.ID]; ok {
		return
	}
	p.state = StateClosed
	p.ariaHidden = true
	m.panels[p.ID] = &p
	if p.Title != "" {
		m.byTitle[p.Title] = &p
	}
}

// Open activates the panel, closing any other active overlay first. Unknown
// IDs are an error.
func (m *Manager) Open(id string) error {
	m.mu.Lock()
	p, ok := m.panels[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("unknown panel %q", id)
	}
	if m.active != "" && m.active != id {
		m.teardown(m.panels[m.active])
	}
	m.searchUp = false
	m.navUp = false

	p.state = StateOpening
	p.ariaHidden = false
	m.active = id
	m.stopTimer(id)

	// Focus settles after the transition; until then the panel is opening.
	time.AfterFunc(m.settle, func() { m.settled(id) })
	if p.Delay > 0 {
		m.timers[id] = time.AfterFunc(p.Delay, func() {
			if err := m.Close(id); err != nil {
				m.log.Debugw("auto-close raced manual close", "panel", id, "error", err)
			}
		})
	}
	m.mu.Unlock()

	m.hub.Dispatch(events.ModulePanel, id)
	return nil
}

// settled completes the opening transition if the panel still holds the
// slot.
func (m *Manager) settled(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.panels[id]
	if !ok || m.active != id || p.state != StateOpening {
		return
	}
	p.state = StateOpen
	p.focusable = true
}

// Close deactivates the panel. Closing a panel that is not open is a no-op.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	p, ok := m.panels[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("unknown panel %q", id)
	}
	if m.active != id {
		m.mu.Unlock()
		return nil
	}
	m.teardown(p)
	m.active = ""
	m.mu.Unlock()

	m.hub.Dispatch(events.ModulePanel, id)
	return nil
}

// CloseAll tears down whatever overlay is active; the Escape path.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	var closed string
	if m.active != "" {
		closed = m.active
		m.teardown(m.panels[m.active])
		m.active = ""
	}
	m.searchUp = false
	m.navUp = false
	m.mu.Unlock()

	if closed != "" {
		m.hub.Dispatch(events.ModulePanel, closed)
	}
}

// teardown must be called with the mutex held.
func (m *Manager) teardown(p *Panel) {
	p.state = StateClosed
	p.ariaHidden = true
	p.focusable = false
	m.stopTimer(p.ID)
}

// stopTimer must be called with the mutex held.
func (m *Manager) stopTimer(id string) {
	if t, ok := m.timers[id]; ok {
		t.Stop()
		delete(m.timers, id)
	}
}

// SetSearchOpen flips the predictive-search overlay, which shares the
// active slot with panels.
func (m *Manager) SetSearchOpen(open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if open && m.active != "" {
		m.teardown(m.panels[m.active])
		m.active = ""
	}
	m.searchUp = open
	if open {
		m.navUp = false
	}
}

// Active returns the ID of the open panel, or empty when none holds the
// slot.
func (m *Manager) Active() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Status reports the panel's visible state.
func (m *Manager) Status(id string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.panels[id]
	if !ok {
		return Status{}, fmt.Errorf("unknown panel %q", id)
	}
	return Status{ID: p.ID, State: p.state, AriaHidden: p.ariaHidden, Focusable: p.focusable}, nil
}

// List reports every registered panel's state.
func (m *Manager) List() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Status, 0, len(m.panels))
	for _, p := range m.panels {
		out = append(out, Status{ID: p.ID, State: p.state, AriaHidden: p.ariaHidden, Focusable: p.focusable})
	}
	return out
}

// OpenPopup opens the popup registered under title, loading its plugin
// asset first when one is declared. The first open also arms the popup's
// inner widgets; later opens skip that step.
func (m *Manager) OpenPopup(ctx context.Context, title string) error {
	m.mu.Lock()
	p, ok := m.byTitle[title]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown popup %q", title)
	}

	open := func() error {
		m.mu.Lock()
		first := !p.rendered
		p.rendered = true
		m.mu.Unlock()
		if first {
			// Widgets inside the popup are armed once, scoped dispatches.
			m.hub.DispatchAll(events.FormValidate, events.SchemeTooltip, events.SemanticSelect)
		}
		return m.Open(p.ID)
	}

	if p.Asset != "" {
		var openErr error
		if err := m.loader.Load(ctx, p.Asset, p.AssetURL, func() { openErr = open() }); err != nil {
			return fmt.Errorf("popup %s: %w", title, err)
		}
		return openErr
	}
	return open()
}
