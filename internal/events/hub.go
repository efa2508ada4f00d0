// Package events implements the storefront's initialization event catalogue.
// Every piece of dynamic behavior is armed by a named event; after any
// content replacement the relevant subset is re-dispatched so freshly
// inserted markup gets the same wiring. Handlers must therefore tolerate
// repeat dispatches.
package events

import (
	"sync"

	"go.uber.org/zap"
)

// The event catalogue. Templates and components refer to these names; the
// hub itself treats them as opaque strings.
const (
	ProductVariants     = "productVariants"
	ProductCardVariants = "productcardVariants"
	AjaxCart            = "ajaxCart"
	ListCart            = "listCart"
	ModulePanel         = "modulePanel"
	ModulePanelAnchor   = "modulePanelAnchor"
	Popups              = "popups"
	Alerts              = "alerts"
	ShowAlert           = "showAlert"
	Filters             = "filters"
	InitFilters         = "initFilters"
	CollectionLoadMore  = "collectionLoadMore"
	CollectionSort      = "collectionSort"
	RecentlyViewed      = "recentlyViewedProducts"
	RecommendedProducts = "recommendedProducts"
	SemanticInput       = "semanticInput"
	SemanticSelect      = "semanticSelect"
	FormValidate        = "formValidate"
	Accordeon           = "accordeon"
	Countdown           = "countdown"
	Ratings             = "ratings"
	SchemeTooltip       = "schemeTooltip"
	RangeSlider         = "rangeSlider"
	ListDrop            = "listDrop"
	ListScrollable      = "listScrollable"
	ListProductSlider   = "listProductSlider"
	SellingPlans        = "sellingplans"
	PickupAvailability  = "pickupAvailability"
	ShowHideDataElement = "showHideDataElement"
	DataChange          = "dataChange"
	FormZindex          = "formZindex"
	Fancybox            = "fancybox"
	ModuleTabs          = "moduleTabs"
	HeightLimit         = "heightLimit"
	LinkMore            = "linkMore"
	ThemeCartOpened     = "themeCartOpened"
)

// Catalogue is the full set of events dispatched once at page load.
var Catalogue = []string{
	ProductVariants, ProductCardVariants, AjaxCart, ListCart, ModulePanel,
	ModulePanelAnchor, Popups, Alerts, Filters, InitFilters,
	CollectionLoadMore, CollectionSort, RecentlyViewed, RecommendedProducts,
	SemanticInput, SemanticSelect, FormValidate, Accordeon, Countdown,
	Ratings, SchemeTooltip, RangeSlider, ListDrop, ListScrollable,
	ListProductSlider, SellingPlans, PickupAvailability,
	ShowHideDataElement, DataChange, FormZindex, Fancybox, ModuleTabs,
	HeightLimit, LinkMore,
}

// AfterVariantChange is the dependent set re-armed after a variant-driven
// section splice.
var AfterVariantChange = []string{
	ProductVariants, SemanticSelect, ShowHideDataElement, SellingPlans,
	PickupAvailability, ModulePanel, ModulePanelAnchor, SchemeTooltip,
	Popups, SemanticInput, FormZindex, DataChange, Ratings,
	ListProductSlider, ListDrop, Fancybox, RangeSlider,
	RecommendedProducts, Accordeon, Countdown, ModuleTabs, RecentlyViewed,
}

// AfterCartRender is the dependent set re-armed after the side cart panel is
// re-rendered.
var AfterCartRender = []string{
	ModulePanel, ListCart, SemanticInput, FormValidate, Accordeon,
}

// AfterFilter is the dependent set re-armed after a filtered collection
// splice.
var AfterFilter = []string{
	CollectionSort, RangeSlider, InitFilters, Filters, ModulePanel, Ratings,
	SemanticInput, SemanticSelect, SchemeTooltip, Popups,
	CollectionLoadMore, ListScrollable, ModulePanelAnchor,
	ProductCardVariants, HeightLimit,
}

// Handler receives the event detail, if any.
type Handler func(detail any)

type registration struct {
	fn   Handler
	once bool
}

// Hub dispatches named events to handlers in registration order,
// synchronously, on the dispatching goroutine. A panicking handler is
// logged and skipped; the remaining handlers still run.
type Hub struct {
	mu       sync.Mutex
	handlers map[string][]*registration
	bridges  []Bridge
	log      *zap.SugaredLogger
}

// Bridge receives a copy of every dispatched event (the WebSocket fan-out).
// Forward errors mean the bridge is dropped.
type Bridge interface {
	Forward(name string, detail any) error
}

// NewHub creates an empty hub.
func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		handlers: make(map[string][]*registration),
		log:      log,
	}
}

// On registers a handler for the named event.
func (h *Hub) On(name string, fn Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[name] = append(h.handlers[name], &registration{fn: fn})
}

// Once registers a handler removed after its first invocation.
func (h *Hub) Once(name string, fn Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[name] = append(h.handlers[name], &registration{fn: fn, once: true})
}

// Dispatch fires the named event. Handlers run in registration order before
// Dispatch returns, so content swapped by the caller is final by the time
// dependent handlers observe it.
func (h *Hub) Dispatch(name string, detail any) {
	h.mu.Lock()
	regs := h.handlers[name]
	run := make([]*registration, len(regs))
	copy(run, regs)
	var kept []*registration
	for _, r := range regs {
		if !r.once {
			kept = append(kept, r)
		}
	}
	h.handlers[name] = kept
	bridges := make([]Bridge, len(h.bridges))
	copy(bridges, h.bridges)
	h.mu.Unlock()

	for _, r := range run {
		h.invoke(name, r.fn, detail)
	}

	var dead []Bridge
	for _, b := range bridges {
		if err := b.Forward(name, detail); err != nil {
			h.log.Debugw("dropping event bridge", "event", name, "error", err)
			dead = append(dead, b)
		}
	}
	if len(dead) > 0 {
		h.removeBridges(dead)
	}
}

// DispatchAll fires the named events in order.
func (h *Hub) DispatchAll(names ...string) {
	for _, name := range names {
		h.Dispatch(name, nil)
	}
}

// AddBridge attaches a fan-out target.
func (h *Hub) AddBridge(b Bridge) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bridges = append(h.bridges, b)
}

// RemoveBridge detaches a fan-out target.
func (h *Hub) RemoveBridge(b Bridge) {
	h.removeBridges([]Bridge{b})
}

func (h *Hub) removeBridges(dead []Bridge) {
	h.mu.Lock()
	defer h.mu.Unlock()
	kept := h.bridges[:0]
	for _, b := range h.bridges {
		drop := false
		for _, d := range dead {
			if b == d {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, b)
		}
	}
	h.bridges = kept
}

// invoke isolates handler panics: one broken widget must not take down the
// rest of the page.
func (h *Hub) invoke(name string, fn Handler, detail any) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Warnw("event handler panicked", "event", name, "panic", r)
		}
	}()
	fn(detail)
}
