package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Item is one entry in a bulk add request.
type Item struct {
	ID          int64             `json:"id"`
	Quantity    int               `json:"quantity"`
	SellingPlan int64             `json:"selling_plan,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	ParentID    int64             `json:"parent_id,omitempty"`
}

// AddRequest describes an add-to-cart call. A single-item request without
// upsells goes over the form-encoded path; anything with Upsells uses the
// JSON items transport.
type AddRequest struct {
	ID          int64
	Quantity    int
	SellingPlan int64
	Properties  map[string]string
	Upsells     []Item
	Sections    []string
}

// UpdateRequest describes a cart update call. Exactly one of Note,
// Discount, or Attributes should be set.
type UpdateRequest struct {
	Note       *string
	Discount   *string // comma-joined working set
	Attributes map[string]string
	Sections   []string
}

// DiscountCode is the platform's view of one applied code.
type DiscountCode struct {
	Code       string `json:"code"`
	Applicable bool   `json:"applicable"`
}

// Description is either a flat message or a map of field key to message.
type Description struct {
	Message string
	Fields  map[string]string
}

// UnmarshalJSON accepts both shapes the platform emits.
func (d *Description) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		d.Message = s
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err == nil {
		d.Fields = m
		return nil
	}
	return fmt.Errorf("unexpected description payload: %s", data)
}

// Empty reports whether no message of either shape is present.
func (d *Description) Empty() bool {
	return d.Message == "" && len(d.Fields) == 0
}

// CartResponse is the decoded body of any cart mutation. A non-zero Status
// signals a business failure with Description populated; success responses
// carry the requested rendered sections.
type CartResponse struct {
	Status        int               `json:"status,omitempty"`
	Description   Description       `json:"description,omitempty"`
	Message       string            `json:"message,omitempty"`
	Sections      map[string]string `json:"sections,omitempty"`
	DiscountCodes []DiscountCode    `json:"discount_codes,omitempty"`
	ItemCount     int               `json:"item_count,omitempty"`
	TotalPrice    int64             `json:"total_price,omitempty"`
	Note          string            `json:"note,omitempty"`
}

// Failed reports whether the platform rejected the mutation.
func (r *CartResponse) Failed() bool { return r.Status != 0 }

// CartState is the decoded body of GET cart.js.
type CartState struct {
	ItemCount     int            `json:"item_count"`
	TotalPrice    int64          `json:"total_price"`
	Note          string         `json:"note"`
	DiscountCodes []DiscountCode `json:"discount_codes"`
}

// AddToCart posts an add request, using the form-encoded transport for a
// plain single item and the JSON items transport when upsells ride along.
func (c *Client) AddToCart(ctx context.Context, req AddRequest) (*CartResponse, error) {
	sections := strings.Join(req.Sections, ",")

	if len(req.Upsells) > 0 {
		items := []Item{{
			ID:          req.ID,
			Quantity:    req.Quantity,
			SellingPlan: req.SellingPlan,
			Properties:  req.Properties,
		}}
		items = append(items, req.Upsells...)
		payload := struct {
			Items    []Item `json:"items"`
			Sections string `json:"sections,omitempty"`
		}{Items: items, Sections: sections}
		return c.postCart(ctx, c.url(c.routes.CartAdd), payload)
	}

	form := url.Values{}
	form.Set("id", fmt.Sprintf("%d", req.ID))
	form.Set("quantity", fmt.Sprintf("%d", req.Quantity))
	if req.SellingPlan != 0 {
		form.Set("selling_plan", fmt.Sprintf("%d", req.SellingPlan))
	}
	for k, v := range req.Properties {
		form.Set("properties["+k+"]", v)
	}
	if sections != "" {
		form.Set("sections", sections)
	}

	body, _, err := c.post(ctx, c.url(c.routes.CartAdd), "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	return decodeCart(body)
}

// ChangeLine posts an absolute quantity for the 1-based cart line. Quantity
// zero removes the line.
func (c *Client) ChangeLine(ctx context.Context, line, quantity int, sections []string) (*CartResponse, error) {
	payload := struct {
		Line     int    `json:"line"`
		Quantity int    `json:"quantity"`
		Sections string `json:"sections,omitempty"`
	}{Line: line, Quantity: quantity, Sections: strings.Join(sections, ",")}
	return c.postCart(ctx, c.url(c.routes.CartChange), payload)
}

// UpdateCart posts a note, discount string, or attribute set.
func (c *Client) UpdateCart(ctx context.Context, req UpdateRequest) (*CartResponse, error) {
	payload := map[string]any{}
	switch {
	case req.Note != nil:
		payload["note"] = *req.Note
	case req.Discount != nil:
		payload["discount"] = *req.Discount
	case req.Attributes != nil:
		payload["attributes"] = req.Attributes
	}
	if len(req.Sections) > 0 {
		payload["sections"] = strings.Join(req.Sections, ",")
	}
	return c.postCart(ctx, c.url(c.routes.CartUpdate), payload)
}

// GetCart fetches the current cart state.
func (c *Client) GetCart(ctx context.Context) (*CartState, error) {
	body, err := c.get(ctx, c.url(c.routes.Cart))
	if err != nil {
		return nil, err
	}
	var state CartState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("decoding cart state: %w", err)
	}
	return &state, nil
}

func (c *Client) postCart(ctx context.Context, rawURL string, payload any) (*CartResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding cart request: %w", err)
	}
	body, _, err := c.post(ctx, rawURL, "application/json", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return decodeCart(body)
}

func decodeCart(body []byte) (*CartResponse, error) {
	var resp CartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding cart response: %w", err)
	}
	return &resp, nil
}
