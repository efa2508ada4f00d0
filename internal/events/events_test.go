package events

import (
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func newTestHub() *Hub {
	return NewHub(zap.NewNop().Sugar())
}

func TestDispatchOrder(t *testing.T) {
	hub := newTestHub()

	var got []int
	hub.On(ProductVariants, func(any) { got = append(got, 1) })
	hub.On(ProductVariants, func(any) { got = append(got, 2) })
	hub.On(ProductVariants, func(any) { got = append(got, 3) })

	hub.Dispatch(ProductVariants, nil)

	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("handlers ran out of order: %v", got)
	}
}

func TestDispatchDetail(t *testing.T) {
	hub := newTestHub()

	var got any
	hub.On(ShowAlert, func(detail any) { got = detail })
	hub.Dispatch(ShowAlert, map[string]string{"message": "Sold out", "type": "error"})

	m, ok := got.(map[string]string)
	if !ok || m["message"] != "Sold out" {
		t.Errorf("detail = %v", got)
	}
}

func TestOnce(t *testing.T) {
	hub := newTestHub()

	calls := 0
	hub.Once(Popups, func(any) { calls++ })

	hub.Dispatch(Popups, nil)
	hub.Dispatch(Popups, nil)

	if calls != 1 {
		t.Errorf("once handler ran %d times", calls)
	}
}

func TestRepeatDispatchIsSafe(t *testing.T) {
	hub := newTestHub()

	calls := 0
	hub.On(AjaxCart, func(any) { calls++ })

	// The re-initialization pattern dispatches the same event after every
	// content splice.
	for i := 0; i < 5; i++ {
		hub.Dispatch(AjaxCart, nil)
	}
	if calls != 5 {
		t.Errorf("handler ran %d times, want 5", calls)
	}
}

func TestPanicIsolation(t *testing.T) {
	hub := newTestHub()

	ran := false
	hub.On(Filters, func(any) { panic("broken widget") })
	hub.On(Filters, func(any) { ran = true })

	hub.Dispatch(Filters, nil)

	if !ran {
		t.Error("a panicking handler must not block later handlers")
	}
}

func TestDispatchAllOrder(t *testing.T) {
	hub := newTestHub()

	var got []string
	for _, name := range []string{SemanticInput, FormValidate, Accordeon} {
		name := name
		hub.On(name, func(any) { got = append(got, name) })
	}

	hub.DispatchAll(SemanticInput, FormValidate, Accordeon)

	if len(got) != 3 || got[0] != SemanticInput || got[2] != Accordeon {
		t.Errorf("DispatchAll order = %v", got)
	}
}

type recordingBridge struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (b *recordingBridge) Forward(name string, detail any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("gone")
	}
	b.events = append(b.events, name)
	return nil
}

func TestBridgeFanOut(t *testing.T) {
	hub := newTestHub()
	b := &recordingBridge{}
	hub.AddBridge(b)

	hub.Dispatch(ListCart, nil)
	hub.Dispatch(ModulePanel, nil)

	if len(b.events) != 2 || b.events[0] != ListCart {
		t.Errorf("bridge saw %v", b.events)
	}
}

func TestFailingBridgeIsDropped(t *testing.T) {
	hub := newTestHub()
	bad := &recordingBridge{fail: true}
	good := &recordingBridge{}
	hub.AddBridge(bad)
	hub.AddBridge(good)

	hub.Dispatch(ListCart, nil)
	bad.fail = false
	hub.Dispatch(ModulePanel, nil)

	if len(bad.events) != 0 {
		t.Errorf("dropped bridge still received events: %v", bad.events)
	}
	if len(good.events) != 2 {
		t.Errorf("surviving bridge saw %v", good.events)
	}
}

func TestCatalogueCoversDependentSets(t *testing.T) {
	in := make(map[string]bool, len(Catalogue))
	for _, name := range Catalogue {
		in[name] = true
	}
	for _, set := range [][]string{AfterVariantChange, AfterCartRender, AfterFilter} {
		for _, name := range set {
			if !in[name] {
				t.Errorf("dependent event %q missing from the catalogue", name)
			}
		}
	}
}
