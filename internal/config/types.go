package config

import "time"

// Theme identifies the storefront theme variant the engine is driving.
// Theme-dependent behavior is resolved once into Capabilities at load time
// rather than branched on at call sites.
type Theme string

const (
	ThemeXclusive Theme = "xclusive"
	ThemeXtra     Theme = "xtra"
)

// Capabilities is the behavior set implied by a theme.
type Capabilities struct {
	// CardVariantImageSwap swaps the product-card image when a variant with
	// its own image is selected.
	CardVariantImageSwap bool
	// RewriteProductURL mirrors the selected variant into the address bar on
	// the main product page.
	RewriteProductURL bool
	// OldPriceSpacing inserts a spacer between the struck-through price and
	// the current price.
	OldPriceSpacing bool
}

// Routes holds the platform endpoints the engine talks to. Paths are
// relative to ShopURL.
type Routes struct {
	Root               string `yaml:"root" koanf:"root"`
	CartAdd            string `yaml:"cart_add" koanf:"cart_add"`
	CartChange         string `yaml:"cart_change" koanf:"cart_change"`
	CartUpdate         string `yaml:"cart_update" koanf:"cart_update"`
	Cart               string `yaml:"cart" koanf:"cart"`
	PredictiveSearch   string `yaml:"predictive_search" koanf:"predictive_search"`
	Recommendations    string `yaml:"recommendations" koanf:"recommendations"`
	PickupAvailability string `yaml:"pickup_availability" koanf:"pickup_availability"`
}

// CartConfig controls the cart workflow.
type CartConfig struct {
	EnableDrawer  bool   `yaml:"enable_drawer" koanf:"enable_drawer"`
	DrawerSection string `yaml:"drawer_section" koanf:"drawer_section"`
	PageSection   string `yaml:"page_section" koanf:"page_section"`
}

// RecentConfig controls the recently-viewed store.
type RecentConfig struct {
	Limit  int    `yaml:"limit" koanf:"limit"`
	DBPath string `yaml:"db_path" koanf:"db_path"`
}

// SearchConfig controls predictive search.
type SearchConfig struct {
	ResourceLimit int    `yaml:"resource_limit" koanf:"resource_limit"`
	Section       string `yaml:"section" koanf:"section"`
}

// TimeoutConfig groups the delays the engine observes. A zero platform
// timeout means requests are never timed out, matching the storefront's
// original contract.
type TimeoutConfig struct {
	Platform       time.Duration `yaml:"platform" koanf:"platform"`
	PanelFocus     time.Duration `yaml:"panel_focus" koanf:"panel_focus"`
	PanelAutoClose time.Duration `yaml:"panel_auto_close" koanf:"panel_auto_close"`
	AlertExpiry    time.Duration `yaml:"alert_expiry" koanf:"alert_expiry"`
}

// Config is the top-level engine configuration, corresponding to
// .storefront.yml.
type Config struct {
	ShopURL      string        `yaml:"shop_url" koanf:"shop_url"`
	Theme        Theme         `yaml:"theme" koanf:"theme"`
	Routes       Routes        `yaml:"routes" koanf:"routes"`
	Cart         CartConfig    `yaml:"cart" koanf:"cart"`
	Recent       RecentConfig  `yaml:"recent" koanf:"recent"`
	Search       SearchConfig  `yaml:"search" koanf:"search"`
	Timeouts     TimeoutConfig `yaml:"timeouts" koanf:"timeouts"`
	Port         int           `yaml:"port" koanf:"port"`
	CORSAllowAll bool          `yaml:"cors_allow_all" koanf:"cors_allow_all"`
	LogLevel     string        `yaml:"log_level" koanf:"log_level"`
}
