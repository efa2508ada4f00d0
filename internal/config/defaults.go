package config

import "time"

// themeCapabilities maps each theme to the behavior it enables.
var themeCapabilities = map[Theme]Capabilities{
	ThemeXclusive: {
		CardVariantImageSwap: true,
		RewriteProductURL:    true,
		OldPriceSpacing:      true,
	},
	ThemeXtra: {
		CardVariantImageSwap: false,
		RewriteProductURL:    false,
		OldPriceSpacing:      false,
	},
}

// DefaultConfig returns a Config with the platform's conventional routes and
// the storefront's stock limits.
func DefaultConfig() *Config {
	return &Config{
		Theme: ThemeXclusive,
		Routes: Routes{
			Root:               "/",
			CartAdd:            "/cart/add.js",
			CartChange:         "/cart/change.js",
			CartUpdate:         "/cart/update.js",
			Cart:               "/cart.js",
			PredictiveSearch:   "/search/suggest",
			Recommendations:    "/recommendations/products",
			PickupAvailability: "/variants",
		},
		Cart: CartConfig{
			EnableDrawer:  true,
			DrawerSection: "side-cart",
			PageSection:   "main-cart",
		},
		Recent: RecentConfig{
			Limit:  12,
			DBPath: "storefront.db",
		},
		Search: SearchConfig{
			ResourceLimit: 4,
			Section:       "livesearch",
		},
		Timeouts: TimeoutConfig{
			Platform:       0, // never time out platform requests
			PanelFocus:     100 * time.Millisecond,
			PanelAutoClose: 0,
			AlertExpiry:    5 * time.Second,
		},
		Port:     8620,
		LogLevel: "info",
	}
}

// CapabilitiesFor returns the capability set for a theme. Unknown themes get
// the xtra baseline.
func CapabilitiesFor(t Theme) Capabilities {
	if caps, ok := themeCapabilities[t]; ok {
		return caps
	}
	return themeCapabilities[ThemeXtra]
}
