// Package search maintains the in-memory prefix search index aggregated from
// registered entity sources. The index is a flat list rebuilt wholesale; a
// rebuild swaps the list atomically so concurrent searches see either the old
// or the new index, never a torn mix.
package search

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
)

// IndexItem is the flattened projection of a searchable entity.
type IndexItem struct {
	ID          string   `json:"id"`
	Version     string   `json:"version,omitempty"`
	ProductType string   `json:"product_type,omitempty"`
	Type        string   `json:"type"`
	FeatureID   string   `json:"feature_id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Link        string   `json:"link"`
	Tags        []string `json:"tags"`
}

// Searchable is implemented by entity managers that contribute to the index.
// Implementations own their storage access, including connection lifetime.
type Searchable interface {
	SearchIndexItems(ctx context.Context) ([]IndexItem, error)
}

type namedSource struct {
	name   string
	source Searchable
}

// Manager holds the search index and the sources it is built from.
type Manager struct {
	mu       sync.RWMutex
	sources  []namedSource
	index    []IndexItem
	rebuilds sync.WaitGroup
}

func NewManager() *Manager {
	return &Manager{}
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// Default returns the process wide search manager.
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

// Register adds a source to the index build order. Sources registered first
// appear first in the aggregated index.
func (m *Manager) Register(name string, source Searchable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = append(m.sources, namedSource{name: name, source: source})
}

// BuildIndex collects items from every registered source and replaces the
// index. A failing source is skipped with a logged error and contributes
// nothing; the other sources still land. The old index stays servable until
// the replacement is complete.
func (m *Manager) BuildIndex(ctx context.Context) {
	m.mu.RLock()
	sources := make([]namedSource, len(m.sources))
	copy(sources, m.sources)
	m.mu.RUnlock()

	results := make([][]IndexItem, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range sources {
		i, s := i, s
		g.Go(func() error {
			items, err := s.source.SearchIndexItems(gctx)
			if err != nil {
				log.Ctx(ctx).Error().Err(err).Str("source", s.name).Msg("failed to collect search index items")
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	newIndex := []IndexItem{}
	for _, items := range results {
		newIndex = append(newIndex, items...)
	}

	m.mu.Lock()
	m.index = newIndex
	m.mu.Unlock()
	log.Ctx(ctx).Info().Int("items", len(newIndex)).Int("sources", len(sources)).Msg("search index build complete")
}

// RebuildAsync schedules an index rebuild in the background.
func (m *Manager) RebuildAsync() {
	m.rebuilds.Add(1)
	go func() {
		defer m.rebuilds.Done()
		ctx := log.Logger.WithContext(context.Background())
		m.BuildIndex(ctx)
	}()
}

// WaitForRebuilds blocks until all scheduled background rebuilds finish.
func (m *Manager) WaitForRebuilds() {
	m.rebuilds.Wait()
}

// Search returns every index item with a field starting with the query,
// compared case-insensitively with Unicode case folding. Title is checked
// first, then description, then tags; an item is returned at most once. An
// empty query matches nothing.
func (m *Manager) Search(ctx context.Context, query string) []IndexItem {
	results := []IndexItem{}
	if query == "" {
		return results
	}
	folded := fold(query)

	m.mu.RLock()
	index := m.index
	m.mu.RUnlock()

	for _, item := range index {
		if matchesPrefix(item, folded) {
			results = append(results, item)
		}
	}
	log.Ctx(ctx).Debug().Str("query", query).Int("results", len(results)).Msg("prefix search")
	return results
}

// Size reports the number of items currently in the index.
func (m *Manager) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.index)
}

func matchesPrefix(item IndexItem, foldedQuery string) bool {
	if item.Title != "" && strings.HasPrefix(fold(item.Title), foldedQuery) {
		return true
	}
	if item.Description != "" && strings.HasPrefix(fold(item.Description), foldedQuery) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.HasPrefix(fold(tag), foldedQuery) {
			return true
		}
	}
	return false
}

// fold lower-cases with full Unicode case folding. A Caser is not safe for
// concurrent use, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
