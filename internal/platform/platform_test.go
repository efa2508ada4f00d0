package platform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/opencubicles/healthkart-dubai/internal/config"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, config.DefaultConfig().Routes, 0)
}

func TestAddToCartFormEncoded(t *testing.T) {
	var gotPath, gotContentType string
	var gotForm url.Values

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotForm, _ = url.ParseQuery(string(body))
		w.Write([]byte(`{"sections":{"side-cart":"<div>5 items</div>"}}`))
	}))

	resp, err := client.AddToCart(context.Background(), AddRequest{
		ID:         123,
		Quantity:   2,
		Properties: map[string]string{"Engraving": "HK"},
		Sections:   []string{"side-cart"},
	})
	if err != nil {
		t.Fatalf("AddToCart: %v", err)
	}

	if gotPath != "/cart/add.js" {
		t.Errorf("path = %q", gotPath)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("content type = %q", gotContentType)
	}
	if gotForm.Get("id") != "123" || gotForm.Get("quantity") != "2" {
		t.Errorf("form = %v", gotForm)
	}
	if gotForm.Get("properties[Engraving]") != "HK" {
		t.Errorf("properties missing: %v", gotForm)
	}
	if gotForm.Get("sections") != "side-cart" {
		t.Errorf("sections = %q", gotForm.Get("sections"))
	}
	if resp.Failed() {
		t.Error("response should not be a failure")
	}
	if resp.Sections["side-cart"] == "" {
		t.Error("sections missing from response")
	}
}

func TestAddToCartBulkJSON(t *testing.T) {
	var gotBody struct {
		Items    []Item `json:"items"`
		Sections string `json:"sections"`
	}

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{}`))
	}))

	_, err := client.AddToCart(context.Background(), AddRequest{
		ID:       10,
		Quantity: 1,
		Upsells: []Item{
			{ID: 20, Quantity: 1, ParentID: 10},
			{ID: 30, Quantity: 1, ParentID: 10},
		},
		Sections: []string{"side-cart", "main-cart"},
	})
	if err != nil {
		t.Fatalf("AddToCart: %v", err)
	}

	if len(gotBody.Items) != 3 {
		t.Fatalf("items = %d, want main + 2 upsells", len(gotBody.Items))
	}
	if gotBody.Items[0].ID != 10 {
		t.Errorf("main item should come first, got %d", gotBody.Items[0].ID)
	}
	if gotBody.Items[1].ParentID != 10 {
		t.Errorf("upsell parent_id = %d", gotBody.Items[1].ParentID)
	}
	if gotBody.Sections != "side-cart,main-cart" {
		t.Errorf("sections = %q", gotBody.Sections)
	}
}

func TestChangeLine(t *testing.T) {
	var got map[string]any
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cart/change.js" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"item_count":3}`))
	}))

	resp, err := client.ChangeLine(context.Background(), 2, 0, []string{"side-cart"})
	if err != nil {
		t.Fatalf("ChangeLine: %v", err)
	}
	if got["line"] != float64(2) || got["quantity"] != float64(0) {
		t.Errorf("payload = %v", got)
	}
	if resp.ItemCount != 3 {
		t.Errorf("item count = %d", resp.ItemCount)
	}
}

func TestDescriptionShapes(t *testing.T) {
	t.Run("flat string", func(t *testing.T) {
		var resp CartResponse
		if err := json.Unmarshal([]byte(`{"status":422,"description":"Sold out"}`), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !resp.Failed() {
			t.Error("status 422 should be a failure")
		}
		if resp.Description.Message != "Sold out" {
			t.Errorf("message = %q", resp.Description.Message)
		}
	})

	t.Run("field map", func(t *testing.T) {
		var resp CartResponse
		payload := `{"status":422,"description":{"quantity":"Only 2 left","email":"Invalid address"}}`
		if err := json.Unmarshal([]byte(payload), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.Description.Fields["quantity"] != "Only 2 left" {
			t.Errorf("fields = %v", resp.Description.Fields)
		}
	})
}

func TestUpdateCartDiscount(t *testing.T) {
	var got map[string]any
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"discount_codes":[{"code":"save10","applicable":true}]}`))
	}))

	discount := "save10,welcome"
	resp, err := client.UpdateCart(context.Background(), UpdateRequest{
		Discount: &discount,
		Sections: []string{"side-cart", "main-cart"},
	})
	if err != nil {
		t.Fatalf("UpdateCart: %v", err)
	}
	if got["discount"] != "save10,welcome" {
		t.Errorf("discount = %v", got["discount"])
	}
	if got["sections"] != "side-cart,main-cart" {
		t.Errorf("sections = %v", got["sections"])
	}
	if len(resp.DiscountCodes) != 1 || !resp.DiscountCodes[0].Applicable {
		t.Errorf("discount codes = %v", resp.DiscountCodes)
	}
}

func TestGetCart(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cart.js" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"item_count":7,"total_price":12345}`))
	}))

	state, err := client.GetCart(context.Background())
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if state.ItemCount != 7 || state.TotalPrice != 12345 {
		t.Errorf("state = %+v", state)
	}
}

func TestSection(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("section_id"); got != "side-cart" {
			t.Errorf("section_id = %q", got)
		}
		if got := r.Header.Get("X-Requested-With"); got != "XMLHttpRequest" {
			t.Errorf("X-Requested-With = %q", got)
		}
		w.Write([]byte(`<div id="shopify-section-side-cart"></div>`))
	}))

	html, err := client.Section(context.Background(), "/", "side-cart")
	if err != nil {
		t.Fatalf("Section: %v", err)
	}
	if html == "" {
		t.Error("empty section markup")
	}
}

func TestSectionNonOKIsError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))

	if _, err := client.Section(context.Background(), "/", "side-cart"); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestSectionsJSONWrapped(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("sections") != "main-product,sticky-add-to-cart" {
			t.Errorf("sections = %q", q.Get("sections"))
		}
		if q.Get("variant") != "987" {
			t.Errorf("variant = %q", q.Get("variant"))
		}
		w.Write([]byte(`{"main-product":"<form class=\"f8pr\"></form>","sticky-add-to-cart":"<div></div>"}`))
	}))

	sections, err := client.Sections(context.Background(), "/products/whey-gold",
		[]string{"main-product", "sticky-add-to-cart"}, [2]string{"variant", "987"})
	if err != nil {
		t.Fatalf("Sections: %v", err)
	}
	if len(sections) != 2 || sections["main-product"] == "" {
		t.Errorf("sections = %v", sections)
	}
}

func TestPredictiveSearch(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "whey" || q.Get("resources[limit]") != "4" {
			t.Errorf("query = %v", q)
		}
		if q.Get("resources[limit_scope]") != "each" || q.Get("section_id") != "livesearch" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`<div id="shopify-section-livesearch"></div>`))
	}))

	if _, err := client.PredictiveSearch(context.Background(), "whey", 4, "livesearch"); err != nil {
		t.Fatalf("PredictiveSearch: %v", err)
	}
}

func TestPickupAvailability(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/variants/456/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("section_id"); got != "pickup-availability" {
			t.Errorf("section_id = %q", got)
		}
		w.Write([]byte(`<div></div>`))
	}))

	if _, err := client.PickupAvailability(context.Background(), 456); err != nil {
		t.Fatalf("PickupAvailability: %v", err)
	}
}

func TestAbsoluteURLPassThrough(t *testing.T) {
	c := New("https://shop.example.com", config.DefaultConfig().Routes, 0)
	if got := c.url("https://other.example.com/products/x"); got != "https://other.example.com/products/x" {
		t.Errorf("absolute URL rewritten: %q", got)
	}
	if got := c.url("products/x"); got != "https://shop.example.com/products/x" {
		t.Errorf("relative URL = %q", got)
	}
}
