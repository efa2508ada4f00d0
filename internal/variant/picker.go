package variant

import (
	"fmt"
	"strings"
	"sync"

	"github.com/opencubicles/healthkart-dubai/internal/config"
)

// Option is one selector on the product form: a name and its value list in
// display order.
type Option struct {
	Name   string
	Values []string
}

// RenderState is what the product form shows for the current selection.
// Unavailable is a first-class state: submit disabled with the unavailable
// label, price and image left from the last resolved variant.
type RenderState struct {
	ImageSrc  string `json:"image_src,omitempty"`
	PriceHTML string `json:"price_html,omitempty"`
	// CardImageSrc is set only when the theme swaps product-card images on
	// variant selection.
	CardImageSrc  string `json:"card_image_src,omitempty"`
	SubmitEnabled bool   `json:"submit_enabled"`
	SubmitLabel   string `json:"submit_label"`
}

// Labels for the submit button states.
const (
	LabelAddToCart   = "Add to cart"
	LabelSoldOut     = "Sold out"
	LabelUnavailable = "Unavailable"
)

// Picker holds per-product selection state. The mutex makes it safe for the
// HTTP handlers, which share one picker across requests.
type Picker struct {
	mu        sync.Mutex
	table     Table
	options   []Option
	selection []string
	current   *Variant
	sizes     *SizeMap
	caps      config.Capabilities
}

// NewPicker builds a picker from the variant table and option definitions,
// selecting the given initial tuple (usually the first available variant's
// options).
func NewPicker(table Table, options []Option, initial []string) *Picker {
	p := &Picker{
		table:     table,
		options:   options,
		selection: append([]string(nil), initial...),
	}
	p.current = Resolve(table, p.selection)
	return p
}

// SetSizeMap attaches per-color size availability parsed from the product
// card attributes.
func (p *Picker) SetSizeMap(m *SizeMap) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sizes = m
}

// SetCapabilities attaches the theme's behavior set.
func (p *Picker) SetCapabilities(caps config.Capabilities) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.caps = caps
}

// Select sets the named option to value and recomputes the current variant.
// Unknown option names are ignored.
func (p *Picker) Select(option, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, o := range p.options {
		if o.Name == option && i < len(p.selection) {
			p.selection[i] = value
			break
		}
	}
	p.current = Resolve(p.table, p.selection)
}

// Selection returns a copy of the current option tuple.
func (p *Picker) Selection() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.selection...)
}

// Current returns the resolved variant, or nil when the selection does not
// name one.
func (p *Picker) Current() *Variant {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Render derives the form state for the current selection.
func (p *Picker) Render() RenderState {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.current
	if v == nil {
		return RenderState{SubmitEnabled: false, SubmitLabel: LabelUnavailable}
	}
	state := RenderState{
		ImageSrc:  v.Image,
		PriceHTML: priceHTML(v, p.caps.OldPriceSpacing),
	}
	if p.caps.CardVariantImageSwap {
		state.CardImageSrc = v.Image
	}
	if v.Available {
		state.SubmitEnabled = true
		state.SubmitLabel = LabelAddToCart
	} else {
		state.SubmitLabel = LabelSoldOut
	}
	return state
}

// SizesFor returns the size list shown when color is selected: sizes absent
// from the color's map are hidden, present-but-unavailable sizes come back
// disabled. A single-color product whose every size would be disabled shows
// the full list anyway.
func (p *Picker) SizesFor(color string) []SizeState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sizes == nil {
		return nil
	}
	return p.sizes.For(color)
}

func (p *Picker) hasSizeMap() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sizes != nil
}

// priceHTML renders the money line; a set old price gets the strikethrough
// wrapper ahead of the current price, with a spacer element between them on
// themes that ask for one.
func priceHTML(v *Variant, spacing bool) string {
	price := formatMoney(v.Price)
	if v.PriceOld > v.Price {
		sep := " "
		if spacing {
			sep = `<span class="price-spacer">&nbsp;</span>`
		}
		return fmt.Sprintf(`<s class="price-old">%s</s>%s<span class="price">%s</span>`,
			formatMoney(v.PriceOld), sep, price)
	}
	return fmt.Sprintf(`<span class="price">%s</span>`, price)
}

func formatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// SizeState is one size option under a given color.
type SizeState struct {
	Value     string `json:"value"`
	Available bool   `json:"available"`
}

// SizeMap holds per-color size availability: for each color, the sizes it
// exists in and which of those are in stock.
type SizeMap struct {
	colors map[string][]SizeState
	all    []string
	single bool
}

// ParseSizeMap decodes the attribute encoding "color/size/avail" with one
// slash-joined triple per entry. allSizes is the product's full size value
// list in display order.
func ParseSizeMap(entries []string, allSizes []string) (*SizeMap, error) {
	m := &SizeMap{
		colors: make(map[string][]SizeState),
		all:    append([]string(nil), allSizes...),
	}
	for _, e := range entries {
		parts := strings.Split(e, "/")
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed size entry %q", e)
		}
		color := parts[0]
		m.colors[color] = append(m.colors[color], SizeState{
			Value:     parts[1],
			Available: parts[2] == "true",
		})
	}
	m.single = len(m.colors) == 1
	return m, nil
}

// For returns the visible size states for the color.
func (m *SizeMap) For(color string) []SizeState {
	states := m.colors[color]
	if m.single && allDisabled(states) {
		// The source keeps every size visible for one-color products that
		// are fully out of stock, instead of collapsing the selector.
		full := make([]SizeState, len(m.all))
		for i, s := range m.all {
			full[i] = SizeState{Value: s}
		}
		return full
	}
	return states
}

func allDisabled(states []SizeState) bool {
	for _, s := range states {
		if s.Available {
			return false
		}
	}
	return true
}
