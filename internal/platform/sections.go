package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Section fetches a single rendered section for a path, with optional extra
// query parameters, returning the raw HTML.
func (c *Client) Section(ctx context.Context, path, sectionID string, extra ...[2]string) (string, error) {
	pairs := append([][2]string{{"section_id", sectionID}}, extra...)
	q := query(pairs...)
	body, err := c.get(ctx, c.url(path)+"?"+q)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Sections fetches several named sections for a product URL in one request.
// The response is a JSON object mapping section name to rendered HTML.
// Params go on the query string verbatim (variant=, option_values=).
func (c *Client) Sections(ctx context.Context, productURL string, names []string, extra ...[2]string) (map[string]string, error) {
	pairs := append([][2]string{{"sections", strings.Join(names, ",")}}, extra...)
	q := query(pairs...)
	body, err := c.get(ctx, c.url(productURL)+"?"+q)
	if err != nil {
		return nil, err
	}
	var out map[string]string
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding sections payload: %w", err)
	}
	return out, nil
}

// Page fetches a full rendered page (the cross-product navigation path).
func (c *Client) Page(ctx context.Context, path string, extra ...[2]string) (string, error) {
	u := c.url(path)
	if q := query(extra...); q != "" {
		u += "?" + q
	}
	body, err := c.get(ctx, u)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// PredictiveSearch fetches the rendered live-search section for a term.
func (c *Client) PredictiveSearch(ctx context.Context, term string, limit int, sectionID string) (string, error) {
	q := query(
		[2]string{"q", term},
		[2]string{"resources[limit]", strconv.Itoa(limit)},
		[2]string{"resources[limit_scope]", "each"},
		[2]string{"section_id", sectionID},
	)
	body, err := c.get(ctx, c.url(c.routes.PredictiveSearch)+"?"+q)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Recommendations fetches the rendered recommendations section for a
// product. Intent is "related" or "complementary".
func (c *Client) Recommendations(ctx context.Context, productID int64, sectionID, intent string, limit int) (string, error) {
	q := query(
		[2]string{"section_id", sectionID},
		[2]string{"product_id", strconv.FormatInt(productID, 10)},
		[2]string{"intent", intent},
		[2]string{"limit", strconv.Itoa(limit)},
	)
	body, err := c.get(ctx, c.url(c.routes.Recommendations)+"?"+q)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// PickupAvailability fetches store pickup info for a variant.
func (c *Client) PickupAvailability(ctx context.Context, variantID int64) (string, error) {
	path := fmt.Sprintf("%s/%d/", strings.TrimRight(c.routes.PickupAvailability, "/"), variantID)
	body, err := c.get(ctx, c.url(path)+"?"+query([2]string{"section_id", "pickup-availability"}))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
