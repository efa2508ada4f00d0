package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (STOREFRONT_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: STOREFRONT_SHOP_URL -> shop_url, and
	// STOREFRONT_CART__ENABLE_DRAWER -> cart.enable_drawer.
	if err := k.Load(env.Provider("STOREFRONT_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "STOREFRONT_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validThemes is the set of recognized theme values.
var validThemes = map[Theme]bool{
	ThemeXclusive: true,
	ThemeXtra:     true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.ShopURL == "" {
		return fmt.Errorf("shop_url is required")
	}
	if !strings.HasPrefix(c.ShopURL, "http://") && !strings.HasPrefix(c.ShopURL, "https://") {
		return fmt.Errorf("shop_url %q must be an absolute http(s) URL", c.ShopURL)
	}

	if c.Theme != "" && !validThemes[c.Theme] {
		return fmt.Errorf("invalid theme %q: must be one of xclusive, xtra", c.Theme)
	}

	if c.Cart.DrawerSection == "" {
		return fmt.Errorf("cart.drawer_section is required")
	}

	if c.Recent.Limit < 0 {
		return fmt.Errorf("recent.limit must be non-negative")
	}

	if c.Search.ResourceLimit <= 0 {
		return fmt.Errorf("search.resource_limit must be positive")
	}

	if c.Timeouts.Platform < 0 {
		return fmt.Errorf("timeouts.platform must be non-negative")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}

	return nil
}

// Capabilities resolves the configured theme into its behavior set.
func (c *Config) Capabilities() Capabilities {
	return CapabilitiesFor(c.Theme)
}
