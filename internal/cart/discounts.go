package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/opencubicles/healthkart-dubai/internal/platform"
)

// discountOrigin keys discount alerts so only the latest shows.
const discountOrigin = "discount"

// ApplyDiscount adds the code to the working set of applied codes and posts
// the set upstream. Re-applying an already-applied code is a local no-op
// that surfaces "already applied"; a code the platform marks inapplicable
// surfaces "not applicable" and leaves the applied set untouched.
func (m *Manager) ApplyDiscount(ctx context.Context, code string) (*Result, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return &Result{Rejected: true}, nil
	}

	m.mu.Lock()
	already := containsFold(m.applied, code)
	working := append(append([]string(nil), m.applied...), code)
	m.mu.Unlock()

	if already {
		m.alerts.Error(fmt.Sprintf("Discount code %s is already applied", code), discountOrigin)
		return &Result{Rejected: true}, nil
	}

	return m.postDiscounts(ctx, working, code)
}

// RemoveDiscount drops the code from the working set. Removing a code that
// is not applied is a no-op.
func (m *Manager) RemoveDiscount(ctx context.Context, code string) (*Result, error) {
	m.mu.Lock()
	var working []string
	found := false
	for _, c := range m.applied {
		if strings.EqualFold(c, code) {
			found = true
			continue
		}
		working = append(working, c)
	}
	m.mu.Unlock()

	if !found {
		return &Result{}, nil
	}
	return m.postDiscounts(ctx, working, "")
}

// postDiscounts sends the working set comma-joined. pending names the code
// whose applicability decides success; empty for removals.
func (m *Manager) postDiscounts(ctx context.Context, working []string, pending string) (*Result, error) {
	m.setBusy(true)
	defer m.setBusy(false)

	joined := strings.Join(dedupeFold(working), ",")
	resp, err := m.client.UpdateCart(ctx, platform.UpdateRequest{
		Discount: &joined,
		Sections: m.sections(false),
	})
	if err != nil {
		m.log.Warnw("discount update failed", "error", err)
		return nil, fmt.Errorf("update discounts: %w", err)
	}
	if resp.Failed() {
		return m.rejected(resp), nil
	}

	if pending != "" && !applicable(resp.DiscountCodes, pending) {
		// The platform accepted the call but rejected the code. The input
		// clears; whatever was applied before stays applied.
		m.alerts.Error(fmt.Sprintf("Discount code %s is not applicable", pending), discountOrigin)
		return &Result{Rejected: true}, nil
	}

	m.mu.Lock()
	m.applied = m.applied[:0]
	for _, dc := range resp.DiscountCodes {
		if dc.Applicable {
			m.applied = append(m.applied, dc.Code)
		}
	}
	m.mu.Unlock()

	if err := m.renderSections(resp.Sections); err != nil {
		return nil, err
	}
	return &Result{ItemCount: m.ItemCount(), Total: m.Total()}, nil
}

func applicable(codes []platform.DiscountCode, code string) bool {
	for _, dc := range codes {
		if strings.EqualFold(dc.Code, code) {
			return dc.Applicable
		}
	}
	return false
}

// dedupeFold removes case-insensitive duplicates, keeping first occurrence
// order.
func dedupeFold(codes []string) []string {
	var out []string
	for _, c := range codes {
		if !containsFold(out, c) {
			out = append(out, c)
		}
	}
	return out
}
