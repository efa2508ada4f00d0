// Package collection implements the collection page workflows: filter form
// serialization, filtered section fetch and splice, a history stack for
// shareable URLs, load-more pagination in both directions, and sorting.
package collection

import (
	"net/url"
	"strconv"
	"strings"
)

// Group is one checkbox filter group: a query parameter and its selected
// values.
type Group struct {
	Param    string   `json:"param"`
	Selected []string `json:"selected"`
	// Expanded is pure UI state, never serialized; it survives a splice.
	Expanded bool `json:"expanded"`
	// ShowAll marks a "show more" expansion, also UI-only.
	ShowAll bool `json:"show_all"`
}

// PriceRange is the price filter with its catalog-defined bounds.
type PriceRange struct {
	Min        int64 `json:"min"`
	Max        int64 `json:"max"`
	DefaultMin int64 `json:"default_min"`
	DefaultMax int64 `json:"default_max"`
}

// AtDefaults reports whether the range matches its bounds, in which case it
// is omitted from the query entirely.
func (p PriceRange) AtDefaults() bool {
	return p.Min == p.DefaultMin && p.Max == p.DefaultMax
}

// FilterForm is the full filter state for one collection.
type FilterForm struct {
	Groups []Group    `json:"groups"`
	Price  PriceRange `json:"price"`
	SortBy string     `json:"sort_by,omitempty"`
}

// Query serializes the form to its canonical query string: groups in
// declaration order, values in selection order, the price range only when
// moved off its defaults, sort_by last. Reloading the produced URL and
// parsing it back yields the same serialization.
func (f *FilterForm) Query() string {
	var b strings.Builder
	add := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}

	for _, g := range f.Groups {
		for _, v := range g.Selected {
			add(g.Param, v)
		}
	}
	if !f.Price.AtDefaults() {
		add("filter.v.price.gte", strconv.FormatInt(f.Price.Min, 10))
		add("filter.v.price.lte", strconv.FormatInt(f.Price.Max, 10))
	}
	if f.SortBy != "" {
		add("sort_by", f.SortBy)
	}
	return b.String()
}

// ApplyQuery restores the serializable parts of the form from a query
// string, leaving UI-only state (expansions) untouched.
func (f *FilterForm) ApplyQuery(query string) error {
	values, err := url.ParseQuery(query)
	if err != nil {
		return err
	}

	for i := range f.Groups {
		f.Groups[i].Selected = values[f.Groups[i].Param]
	}
	f.Price.Min = f.Price.DefaultMin
	f.Price.Max = f.Price.DefaultMax
	if v := values.Get("filter.v.price.gte"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.Price.Min = n
		}
	}
	if v := values.Get("filter.v.price.lte"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.Price.Max = n
		}
	}
	f.SortBy = values.Get("sort_by")
	return nil
}

// Toggle flips one value inside a group.
func (f *FilterForm) Toggle(param, value string) {
	for i := range f.Groups {
		if f.Groups[i].Param != param {
			continue
		}
		for j, v := range f.Groups[i].Selected {
			if v == value {
				f.Groups[i].Selected = append(f.Groups[i].Selected[:j], f.Groups[i].Selected[j+1:]...)
				return
			}
		}
		f.Groups[i].Selected = append(f.Groups[i].Selected, value)
		return
	}
}

// UpsertSort replaces or appends sort_by in an existing query string,
// preserving every other parameter in place.
func UpsertSort(query, sortBy string) string {
	parts := strings.Split(query, "&")
	out := parts[:0]
	replaced := false
	for _, p := range parts {
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "sort_by=") {
			if !replaced {
				out = append(out, "sort_by="+url.QueryEscape(sortBy))
				replaced = true
			}
			continue
		}
		out = append(out, p)
	}
	if !replaced {
		out = append(out, "sort_by="+url.QueryEscape(sortBy))
	}
	return strings.Join(out, "&")
}
