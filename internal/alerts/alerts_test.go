package alerts

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/opencubicles/healthkart-dubai/internal/events"
)

func testCenter(expiry time.Duration) *Center {
	return NewCenter(events.NewHub(zap.NewNop().Sugar()), expiry)
}

func TestShowAndDismiss(t *testing.T) {
	c := testCenter(0)

	id := c.Show(Alert{Message: "Added to cart", Type: TypeSuccess})
	if id == "" {
		t.Fatal("empty alert ID")
	}
	if got := c.List(); len(got) != 1 || got[0].Message != "Added to cart" {
		t.Fatalf("list = %v", got)
	}

	c.Dismiss(id)
	if got := c.List(); len(got) != 0 {
		t.Fatalf("list after dismiss = %v", got)
	}

	c.Dismiss("nope") // unknown ID is a no-op
}

func TestOriginDedup(t *testing.T) {
	c := testCenter(0)

	c.Error("Code not applicable", "discount")
	c.Show(Alert{Message: "Free shipping at 50", Type: TypeNotice})
	second := c.Error("Code already applied", "discount")

	got := c.List()
	if len(got) != 2 {
		t.Fatalf("list = %v", got)
	}
	// Replacement keeps the original position.
	if got[0].ID != second || got[0].Message != "Code already applied" {
		t.Errorf("origin alert not replaced in place: %v", got[0])
	}
	if got[1].Origin != "" {
		t.Errorf("unrelated alert disturbed: %v", got[1])
	}
}

func TestDismissOrigin(t *testing.T) {
	c := testCenter(0)
	c.Error("bad quantity", "form")
	c.Show(Alert{Message: "kept"})

	c.DismissOrigin("form")
	got := c.List()
	if len(got) != 1 || got[0].Message != "kept" {
		t.Fatalf("list = %v", got)
	}
}

func TestAutoExpiry(t *testing.T) {
	c := testCenter(10 * time.Millisecond)

	c.Show(Alert{Message: "transient"})
	c.Error("sticky", "widget") // origin alerts never auto-expire

	deadline := time.After(2 * time.Second)
	for {
		list := c.List()
		if len(list) == 1 && list[0].Origin == "widget" {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("alert did not expire, list = %v", list)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestShowDispatchesEvent(t *testing.T) {
	hub := events.NewHub(zap.NewNop().Sugar())
	c := NewCenter(hub, 0)

	var got Alert
	hub.On(events.ShowAlert, func(detail any) {
		got = detail.(Alert)
	})

	c.Error("Sold out", "")
	if got.Message != "Sold out" || got.Type != TypeError {
		t.Fatalf("dispatched alert = %+v", got)
	}
}
