package collection

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/opencubicles/healthkart-dubai/internal/events"
	"github.com/opencubicles/healthkart-dubai/internal/flags"
	"github.com/opencubicles/healthkart-dubai/internal/platform"
	"github.com/opencubicles/healthkart-dubai/internal/section"
)

// gridSel locates the product grid inside the collection section.
const gridSel = "#product-grid"

// viewModePref is the persisted grid/list toggle.
const viewModePref = "collection-view"

// Direction of a load-more request.
type Direction string

const (
	Next Direction = "next"
	Prev Direction = "prev"
)

// MoreResult describes one load-more splice.
type MoreResult struct {
	Direction Direction `json:"direction"`
	// ScrollAdjust is the height of the prepended content; pages shift
	// their scroll position by it so the viewport keeps its place. Zero
	// for appends.
	ScrollAdjust int64 `json:"scroll_adjust"`
	// Anchor is the single-use return-scroll target recorded when a
	// product was opened from a paginated list.
	Anchor  string `json:"anchor,omitempty"`
	NextURL string `json:"next_url,omitempty"`
	PrevURL string `json:"prev_url,omitempty"`
}

// Manager drives one collection page session. The mutex serializes the
// HTTP handlers, which share one session per path.
type Manager struct {
	client *platform.Client
	hub    *events.Hub
	flags  *flags.Store
	log    *zap.SugaredLogger

	path     string
	template string

	mu      sync.Mutex
	doc     *section.Doc
	form    *FilterForm
	history History
	nextURL string
	prevURL string
}

// NewManager creates a session for the collection at path, rendered by the
// named section template.
func NewManager(client *platform.Client, hub *events.Hub, fl *flags.Store, path, template string, log *zap.SugaredLogger) *Manager {
	return &Manager{
		client:   client,
		hub:      hub,
		flags:    fl,
		log:      log,
		path:     path,
		template: template,
		form:     &FilterForm{},
	}
}

// SetDoc installs the initially rendered collection document and reads the
// pagination URLs off its load-more buttons.
func (m *Manager) SetDoc(doc *section.Doc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = doc
	m.readPagination(doc)
}

// SetForm installs the filter form parsed from the rendered filter markup.
func (m *Manager) SetForm(form *FilterForm) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.form = form
}

// Form returns the live filter form. Session setup only; once requests are
// flowing, mutate through UpdateFilters.
func (m *Manager) Form() *FilterForm { return m.form }

// Query returns the form's canonical query string.
func (m *Manager) Query() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.form.Query()
}

// HistoryStack exposes the history for the server layer.
func (m *Manager) HistoryStack() *History { return &m.history }

// DocHTML renders the current collection markup.
func (m *Manager) DocHTML() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return ""
	}
	return m.doc.Render()
}

// UpdateFilters mutates the form under the session lock and re-applies.
func (m *Manager) UpdateFilters(ctx context.Context, fn func(*FilterForm)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.form)
	return m.apply(ctx)
}

// Apply fetches the collection section for the form's current query,
// splices it into the document, pushes the shareable URL, and re-arms the
// dependent behavior. Group expansion state is client-side only and is left
// alone by the splice.
func (m *Manager) Apply(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apply(ctx)
}

// apply must be called with the mutex held.
func (m *Manager) apply(ctx context.Context) error {
	query := m.form.Query()
	html, err := m.client.Section(ctx, m.path, m.template, queryPairs(query)...)
	if err != nil {
		m.log.Warnw("filter fetch failed", "query", query, "error", err)
		return fmt.Errorf("apply filters: %w", err)
	}

	fresh, err := section.ParseString(html)
	if err != nil {
		return fmt.Errorf("parse filtered section: %w", err)
	}
	if m.doc == nil {
		m.doc = fresh
	} else if !m.doc.ReplaceRegion(fresh, gridSel) {
		m.doc = fresh
	}
	m.readPagination(fresh)

	shareable := m.path
	if query != "" {
		shareable += "?" + query
	}
	m.history.Push(shareable)

	m.hub.DispatchAll(events.AfterFilter...)
	return nil
}

// Restore re-applies a URL popped off the history, reproducing the filter
// state it encodes.
func (m *Manager) Restore(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	query := ""
	if i := strings.IndexByte(url, '?'); i >= 0 {
		query = url[i+1:]
	}
	if err := m.form.ApplyQuery(query); err != nil {
		return fmt.Errorf("restore filters: %w", err)
	}
	return m.apply(ctx)
}

// Sort upserts sort_by into the current query and re-applies, keeping every
// other filter parameter in place.
func (m *Manager) Sort(ctx context.Context, sortBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.form.ApplyQuery(UpsertSort(m.form.Query(), sortBy)); err != nil {
		return fmt.Errorf("sort: %w", err)
	}
	return m.apply(ctx)
}

// LoadMore fetches the adjacent page in the given direction and splices its
// products into the grid: appended for next, prepended with a scroll
// compensation for prev. The replacement buttons' URLs are mirrored into
// the session.
func (m *Manager) LoadMore(ctx context.Context, dir Direction) (*MoreResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return nil, fmt.Errorf("no collection rendered")
	}
	pageURL := m.nextURL
	if dir == Prev {
		pageURL = m.prevURL
	}
	if pageURL == "" {
		return nil, fmt.Errorf("no %s page", dir)
	}

	html, err := m.client.Section(ctx, pageURL, m.template)
	if err != nil {
		m.log.Warnw("load more failed", "direction", dir, "url", pageURL, "error", err)
		return nil, fmt.Errorf("load more: %w", err)
	}
	fresh, err := section.ParseString(html)
	if err != nil {
		return nil, fmt.Errorf("parse load-more section: %w", err)
	}

	current, _ := m.doc.InnerHTML(gridSel)
	fetched, ok := fresh.InnerHTML(gridSel)
	if !ok {
		return nil, fmt.Errorf("load-more response missing product grid")
	}

	res := &MoreResult{Direction: dir}
	merged := current + fetched
	if dir == Prev {
		merged = fetched + current
		if h, ok := fresh.DataAttr(gridSel, "height"); ok {
			if n, err := strconv.ParseInt(h, 10, 64); err == nil {
				res.ScrollAdjust = n
			}
		}
	}
	m.doc.SetInnerHTML(gridSel, merged)
	m.readPagination(fresh)
	res.NextURL = m.nextURL
	res.PrevURL = m.prevURL

	// The return-scroll anchor is consumed by the read.
	if anchor, ok, err := m.flags.Get(ctx, flags.LoadMoreItemAnchor); err == nil && ok {
		res.Anchor = anchor
	}

	m.hub.DispatchAll(events.CollectionLoadMore, events.ProductCardVariants, events.Ratings)
	return res, nil
}

// readPagination mirrors the load-more button URLs out of a rendered
// section. A section without a button in some direction clears that
// direction. Callers hold the mutex.
func (m *Manager) readPagination(doc *section.Doc) {
	m.nextURL, _ = doc.DataAttr("[data-next]", "next")
	m.prevURL, _ = doc.DataAttr("[data-prev]", "prev")
}

// SetViewMode persists the grid/list toggle.
func (m *Manager) SetViewMode(ctx context.Context, mode string) error {
	return m.flags.SetPreference(ctx, viewModePref, mode)
}

// ViewMode reads the persisted toggle, defaulting to grid.
func (m *Manager) ViewMode(ctx context.Context) (string, error) {
	v, ok, err := m.flags.Preference(ctx, viewModePref)
	if err != nil {
		return "", err
	}
	if !ok {
		return "grid", nil
	}
	return v, nil
}

// queryPairs splits an encoded query string into ordered key/value pairs
// for the platform client.
func queryPairs(query string) [][2]string {
	if query == "" {
		return nil
	}
	var out [][2]string
	for _, p := range strings.Split(query, "&") {
		k, v, _ := strings.Cut(p, "=")
		ku, err := url.QueryUnescape(k)
		if err != nil {
			continue
		}
		vu, err := url.QueryUnescape(v)
		if err != nil {
			continue
		}
		out = append(out, [2]string{ku, vu})
	}
	return out
}
