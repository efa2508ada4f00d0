package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .storefront.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to storefront! Let's configure your shop.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Shop URL.
	shopPrompt := promptui.Prompt{
		Label: "Shop base URL (https://...)",
		Validate: func(s string) error {
			if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
				return fmt.Errorf("must be an absolute http(s) URL")
			}
			return nil
		},
	}
	shopURL, err := shopPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("shop url: %w", err)
	}
	cfg.ShopURL = strings.TrimRight(shopURL, "/")

	// 2. Theme selection.
	themePrompt := promptui.Select{
		Label: "Select theme",
		Items: []string{
			"xclusive — full feature set (variant image swap, URL rewriting)",
			"xtra     — compact baseline",
		},
	}
	themeIdx, _, err := themePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("theme selection: %w", err)
	}
	themes := []Theme{ThemeXclusive, ThemeXtra}
	cfg.Theme = themes[themeIdx]

	// 3. Cart drawer.
	drawerPrompt := promptui.Select{
		Label: "Cart drawer",
		Items: []string{"enabled — side cart opens on add", "disabled — redirect to cart page"},
	}
	drawerIdx, _, err := drawerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("cart drawer: %w", err)
	}
	cfg.Cart.EnableDrawer = drawerIdx == 0

	// 4. Port.
	portPrompt := promptui.Prompt{
		Label:   "Listen port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("must be a port number")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configPath := ".storefront.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}
