// Package platform is the HTTP client for the commerce backend: cart
// mutations, rendered section fetches, predictive search, recommendations,
// and pickup availability. It owns the request/response shapes; workflow
// decisions live with the callers.
package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/opencubicles/healthkart-dubai/internal/config"
)

// Client talks to the commerce backend.
type Client struct {
	base   string
	routes config.Routes
	http   *http.Client
}

// New creates a platform client. A zero timeout means requests are never
// timed out, which is the storefront's stock behavior.
func New(shopURL string, routes config.Routes, timeout time.Duration) *Client {
	return &Client{
		base:   strings.TrimRight(shopURL, "/"),
		routes: routes,
		http:   &http.Client{Timeout: timeout},
	}
}

// Routes returns the route table the client was built with.
func (c *Client) Routes() config.Routes { return c.routes }

// url joins a route path with the shop base. Absolute URLs pass through so
// cross-product section fetches can target the URL the markup carries.
func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.base + path
}

// get issues a GET and returns the body. Non-2xx statuses are errors; the
// caller decides whether that is logged or surfaced.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("request failed: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return body, nil
}

// post issues a POST with the given body and content type, returning the
// raw response body and status code. Platform cart endpoints signal
// business failures in the JSON payload, not the status line, so non-2xx
// is not an error here.
func (c *Client) post(ctx context.Context, rawURL, contentType string, body io.Reader) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, body)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/javascript")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	return data, resp.StatusCode, nil
}

// query builds an encoded query string from ordered key/value pairs,
// keeping the order the storefront emits them in.
func query(pairs ...[2]string) string {
	var b strings.Builder
	for i, kv := range pairs {
		if kv[1] == "" {
			continue
		}
		if i > 0 && b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv[0]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv[1]))
	}
	return b.String()
}
