// Package variant implements variant resolution and the product picker:
// mapping an ordered option selection to exactly one variant, deriving the
// render state for the product form, and orchestrating the section refresh
// that follows an option change.
package variant

// Variant is one purchasable combination of a product's options. Options is
// ordered: position i holds the value for the product's i-th option.
type Variant struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Options     []string `json:"options"`
	Price       int64    `json:"price"`
	PriceOld    int64    `json:"compare_at_price,omitempty"`
	Image       string   `json:"featured_image,omitempty"`
	Available   bool     `json:"available"`
	SellingPlan int64    `json:"selling_plan,omitempty"`
}

// Table is a product's full variant list.
type Table []Variant

// Resolve returns the unique variant whose option values equal the selection
// element-wise and in order. A length mismatch or no match returns nil;
// callers treat nil as the unavailable state, not an error. There is no
// partial matching.
func Resolve(table Table, selection []string) *Variant {
	for i := range table {
		if optionsMatch(table[i].Options, selection) {
			return &table[i]
		}
	}
	return nil
}

func optionsMatch(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
