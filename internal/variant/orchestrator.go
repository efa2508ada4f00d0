package variant

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/opencubicles/healthkart-dubai/internal/config"
	"github.com/opencubicles/healthkart-dubai/internal/events"
	"github.com/opencubicles/healthkart-dubai/internal/platform"
	"github.com/opencubicles/healthkart-dubai/internal/section"
)

// regions is the fixed list of product-form regions swapped after a variant
// change. Each is replaced surgically; regions absent on either side are
// skipped.
var regions = []string{
	".f8pr-stock",
	".f8pr-variant-selection",
	".f8pr-selling-plan",
	".f8pr-pickup",
	".f8pr-codes",
	".f8pr-price",
	".f8pr-product-form-installment",
	".f8pr-fallback-id-input",
	".f8pr-buy-button",
	".f8pr-amount",
	".f8pr-preorder",
	".f8pr-quantity-rules",
	".f8pr-volume-pricing",
	".f8pr-shipping-timer",
	".f8pr-urgency",
	".f8pr-bulk",
}

// ChangeInput describes one option-change interaction.
type ChangeInput struct {
	Option string
	Value  string
	// ProductURL is the URL carried by the selected option value. When it
	// differs from CurrentURL the change crosses products.
	ProductURL string
	CurrentURL string
	// Template is the product section to re-render; Sticky requests the
	// sticky add-to-cart section alongside it.
	Template string
	Sticky   string
	// QuickShop marks the quick-shop context, where a cross-product change
	// reopens the quick-shop instead of navigating.
	QuickShop bool
	// VariantID is sent as variant= when the selection resolves; otherwise
	// the option values go up as option_values=.
	VariantID    int64
	OptionValues string
}

// Outcome tells the caller what to do after an option change.
type Outcome struct {
	// NavigateTo is set for cross-product changes outside quick-shop.
	NavigateTo string
	// ReopenQuickShop is set for cross-product changes inside quick-shop.
	ReopenQuickShop string
	// Doc is the updated product document for same-product changes.
	Doc *section.Doc
	// RewriteURL carries the address-bar URL mirroring the resolved variant,
	// on themes that rewrite it.
	RewriteURL string
	// Stale reports that a newer change completed before this one; the
	// regions were still swapped (last response applies), the flag only
	// makes the race observable.
	Stale bool
	Seq   uint64
}

// Orchestrator runs the option-change workflow against the platform client
// and re-arms dependent behavior through the hub.
type Orchestrator struct {
	client *platform.Client
	hub    *events.Hub
	caps   config.Capabilities
	log    *zap.SugaredLogger

	seq     atomic.Uint64
	mu      sync.Mutex
	applied uint64
	busy    bool
}

// NewOrchestrator wires the change workflow with the theme's behavior set.
func NewOrchestrator(client *platform.Client, hub *events.Hub, caps config.Capabilities, log *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{client: client, hub: hub, caps: caps, log: log}
}

// Processing reports whether a change is in flight.
func (o *Orchestrator) Processing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// OptionChanged applies one option-change interaction to doc. Cross-product
// changes return a navigation outcome without touching doc. Same-product
// changes fetch the named sections, swap the fixed region list, and
// re-dispatch the dependent event set before returning, so subscribers see
// the final markup. On fetch failure the document keeps its prior state and
// the error is returned after the processing flag clears.
func (o *Orchestrator) OptionChanged(ctx context.Context, doc *section.Doc, in ChangeInput) (*Outcome, error) {
	if in.ProductURL != "" && in.ProductURL != in.CurrentURL {
		if in.QuickShop {
			return &Outcome{ReopenQuickShop: in.ProductURL}, nil
		}
		return &Outcome{NavigateTo: in.ProductURL}, nil
	}

	seq := o.seq.Add(1)
	o.setBusy(true)
	defer o.setBusy(false)

	names := []string{in.Template}
	if in.Sticky != "" {
		names = append(names, in.Sticky)
	}
	param := [2]string{"variant", fmt.Sprintf("%d", in.VariantID)}
	if in.VariantID == 0 {
		param = [2]string{"option_values", in.OptionValues}
	}

	rendered, err := o.client.Sections(ctx, in.CurrentURL, names, param)
	if err != nil {
		o.log.Warnw("variant section fetch failed", "url", in.CurrentURL, "error", err)
		return nil, fmt.Errorf("fetch variant sections: %w", err)
	}

	fresh, err := section.ParseString(rendered[in.Template])
	if err != nil {
		return nil, fmt.Errorf("parse variant section: %w", err)
	}
	for _, sel := range regions {
		doc.ReplaceRegion(fresh, sel)
	}
	if in.Sticky != "" {
		if sticky, err := section.ParseString(rendered[in.Sticky]); err == nil {
			doc.ReplaceRegion(sticky, "#"+in.Sticky)
		}
	}

	stale := o.recordApplied(seq)
	if stale {
		o.log.Debugw("stale variant response applied", "seq", seq)
	}

	// Regions are final at this point; dependent handlers re-arm against
	// the swapped markup.
	o.hub.DispatchAll(events.AfterVariantChange...)

	out := &Outcome{Doc: doc, Stale: stale, Seq: seq}
	if o.caps.RewriteProductURL && in.VariantID != 0 {
		out.RewriteURL = fmt.Sprintf("%s?variant=%d", in.CurrentURL, in.VariantID)
	}
	return out, nil
}

func (o *Orchestrator) setBusy(v bool) {
	o.mu.Lock()
	o.busy = v
	o.mu.Unlock()
}

// recordApplied notes that seq's response was applied and reports whether a
// later request already completed.
func (o *Orchestrator) recordApplied(seq uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	stale := seq < o.applied
	if seq > o.applied {
		o.applied = seq
	}
	return stale
}
