// Package alerts implements the alert center: typed user-facing messages
// with origin dedup, dismissal, and auto-expiry for root-level alerts.
package alerts

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opencubicles/healthkart-dubai/internal/events"
)

// Alert types. Error alerts render with the rose styling; everything else
// is informational.
const (
	TypeError   = "error"
	TypeNotice  = "notice"
	TypeSuccess = "success"
)

// Alert is one message shown to the user. Origin, when set, identifies the
// widget that raised it; a second alert from the same origin replaces the
// first instead of stacking.
type Alert struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	Type    string    `json:"type"`
	Origin  string    `json:"origin,omitempty"`
	Created time.Time `json:"created"`
}

// Center holds the active alert list. Root-level alerts (no origin) expire
// automatically after the configured delay.
type Center struct {
	mu     sync.Mutex
	list   []Alert
	hub    *events.Hub
	expiry time.Duration
	now    func() time.Time
	timers map[string]*time.Timer
}

// NewCenter creates an alert center dispatching changes through hub.
// expiry is the auto-dismiss delay for origin-less alerts; zero disables
// auto-expiry.
func NewCenter(hub *events.Hub, expiry time.Duration) *Center {
	return &Center{
		hub:    hub,
		expiry: expiry,
		now:    time.Now,
		timers: make(map[string]*time.Timer),
	}
}

// Show adds the alert and returns its assigned ID. An alert with the same
// Origin as an existing one replaces it in place, keeping list position.
func (c *Center) Show(a Alert) string {
	c.mu.Lock()
	a.ID = uuid.NewString()
	a.Created = c.now()
	if a.Type == "" {
		a.Type = TypeNotice
	}

	replaced := false
	if a.Origin != "" {
		for i := range c.list {
			if c.list[i].Origin == a.Origin {
				c.stopTimer(c.list[i].ID)
				c.list[i] = a
				replaced = true
				break
			}
		}
	}
	if !replaced {
		c.list = append(c.list, a)
	}
	if a.Origin == "" && c.expiry > 0 {
		id := a.ID
		c.timers[id] = time.AfterFunc(c.expiry, func() { c.Dismiss(id) })
	}
	c.mu.Unlock()

	c.hub.Dispatch(events.ShowAlert, a)
	return a.ID
}

// Error is shorthand for an error alert.
func (c *Center) Error(message, origin string) string {
	return c.Show(Alert{Message: message, Type: TypeError, Origin: origin})
}

// Dismiss removes the alert by ID. Unknown IDs are a no-op.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	kept := c.list[:0]
	removed := false
	for _, a := range c.list {
		if a.ID == id {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	c.list = kept
	c.stopTimer(id)
	c.mu.Unlock()

	if removed {
		c.hub.Dispatch(events.Alerts, id)
	}
}

// DismissOrigin removes every alert raised by the origin.
func (c *Center) DismissOrigin(origin string) {
	c.mu.Lock()
	var ids []string
	kept := c.list[:0]
	for _, a := range c.list {
		if a.Origin == origin {
			ids = append(ids, a.ID)
			c.stopTimer(a.ID)
			continue
		}
		kept = append(kept, a)
	}
	c.list = kept
	c.mu.Unlock()

	for _, id := range ids {
		c.hub.Dispatch(events.Alerts, id)
	}
}

// List returns a copy of the active alerts in display order.
func (c *Center) List() []Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Alert, len(c.list))
	copy(out, c.list)
	return out
}

// stopTimer must be called with the mutex held.
func (c *Center) stopTimer(id string) {
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
}
