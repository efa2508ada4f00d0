package collection

import "sync"

// History is the pushState analog: a stack of visited collection URLs so
// filter states stay shareable and reversible.
type History struct {
	mu    sync.Mutex
	stack []string
}

// Push records a new current URL.
func (h *History) Push(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stack = append(h.stack, url)
}

// Current returns the top of the stack.
func (h *History) Current() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.stack) == 0 {
		return "", false
	}
	return h.stack[len(h.stack)-1], true
}

// Back pops the current URL and returns the one beneath it.
func (h *History) Back() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.stack) < 2 {
		return "", false
	}
	h.stack = h.stack[:len(h.stack)-1]
	return h.stack[len(h.stack)-1], true
}

// Len reports the stack depth.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stack)
}
