// Package assets implements de-duplicated lazy resource loading. A resource
// is fetched at most once per key; concurrent requests for the same key
// share one in-flight fetch, and later requests return immediately.
package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Loader fetches named resources once. Safe for concurrent use.
type Loader struct {
	http  *http.Client
	log   *zap.SugaredLogger
	group singleflight.Group

	mu     sync.Mutex
	loaded map[string]bool
}

// NewLoader creates a loader using client; a nil client falls back to the
// default client.
func NewLoader(client *http.Client, log *zap.SugaredLogger) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		http:   client,
		log:    log,
		loaded: make(map[string]bool),
	}
}

// Loaded reports whether the key has already been fetched successfully.
func (l *Loader) Loaded(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded[key]
}

// Load fetches url under key, once. Callbacks passed by concurrent callers
// all run after the single shared fetch completes; an already-loaded key
// runs the callback immediately. A failed fetch leaves the key unloaded so
// a later call retries.
func (l *Loader) Load(ctx context.Context, key, url string, then func()) error {
	if l.Loaded(key) {
		if then != nil {
			then()
		}
		return nil
	}

	_, err, _ := l.group.Do(key, func() (any, error) {
		if l.Loaded(key) {
			return nil, nil
		}
		if err := l.fetch(ctx, url); err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.loaded[key] = true
		l.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		l.log.Warnw("resource load failed", "key", key, "url", url, "error", err)
		return fmt.Errorf("load %s: %w", key, err)
	}
	if then != nil {
		then()
	}
	return nil
}

// MarkLoaded records a key as present without fetching, for resources the
// page already carries.
func (l *Loader) MarkLoaded(key string) {
	l.mu.Lock()
	l.loaded[key] = true
	l.mu.Unlock()
}

func (l *Loader) fetch(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	_, err = io.Copy(io.Discard, resp.Body)
	return err
}
