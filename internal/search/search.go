// Package search implements predictive live search: querying the suggest
// endpoint as the shopper types and exposing the rendered results plus the
// suggestion terms they can pivot to.
package search

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/opencubicles/healthkart-dubai/internal/config"
	"github.com/opencubicles/healthkart-dubai/internal/events"
	"github.com/opencubicles/healthkart-dubai/internal/platform"
	"github.com/opencubicles/healthkart-dubai/internal/section"
)

// Results is the state shown under the search field.
type Results struct {
	Term string `json:"term"`
	// HTML is the rendered livesearch section; empty restores the
	// placeholder content.
	HTML        string   `json:"html,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Live drives one predictive-search session.
type Live struct {
	client *platform.Client
	hub    *events.Hub
	cfg    config.SearchConfig
	log    *zap.SugaredLogger

	mu      sync.Mutex
	results Results
	busy    bool
}

// NewLive wires a live search session.
func NewLive(client *platform.Client, hub *events.Hub, cfg config.SearchConfig, log *zap.SugaredLogger) *Live {
	return &Live{client: client, hub: hub, cfg: cfg, log: log}
}

// Processing reports whether a query is in flight.
func (l *Live) Processing() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.busy
}

// Results returns the current result state.
func (l *Live) Results() Results {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.results
}

// Query fetches suggestions for the term. An empty term clears the results
// so the placeholders come back; any non-empty term queries. The processing
// flag clears on completion and on error alike.
func (l *Live) Query(ctx context.Context, term string) (Results, error) {
	if term == "" {
		l.mu.Lock()
		l.results = Results{}
		out := l.results
		l.mu.Unlock()
		return out, nil
	}

	l.setBusy(true)
	defer l.setBusy(false)

	rendered, err := l.client.PredictiveSearch(ctx, term, l.cfg.ResourceLimit, l.cfg.Section)
	if err != nil {
		l.log.Warnw("predictive search failed", "term", term, "error", err)
		return Results{}, fmt.Errorf("predictive search: %w", err)
	}

	doc, err := section.ParseString(rendered)
	if err != nil {
		return Results{}, fmt.Errorf("parse search section: %w", err)
	}

	res := Results{Term: term, HTML: rendered}
	for _, n := range doc.FindAll("[data-search-suggestion]") {
		for _, a := range n.Attr {
			if a.Key == "data-search-suggestion" && a.Val != "" {
				res.Suggestions = append(res.Suggestions, a.Val)
			}
		}
	}

	l.mu.Lock()
	l.results = res
	l.mu.Unlock()

	l.hub.Dispatch(events.SemanticInput, term)
	return res, nil
}

// SelectSuggestion re-queries with the picked suggestion term.
func (l *Live) SelectSuggestion(ctx context.Context, term string) (Results, error) {
	return l.Query(ctx, term)
}

func (l *Live) setBusy(v bool) {
	l.mu.Lock()
	l.busy = v
	l.mu.Unlock()
}
