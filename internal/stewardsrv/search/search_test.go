package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	mu    sync.Mutex
	items []IndexItem
	err   error
	calls int
}

func (s *stubSource) SearchIndexItems(ctx context.Context) ([]IndexItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func productItems() []IndexItem {
	return []IndexItem{
		{
			ID:        "product::customer-360",
			Type:      "data_product",
			FeatureID: "data-products",
			Title:     "Customer 360",
			Link:      "/data-products/customer-360",
			Tags:      []string{"pii", "gold"},
		},
		{
			ID:          "product::orders",
			Type:        "data_product",
			FeatureID:   "data-products",
			Title:       "Orders",
			Description: "Order events",
			Link:        "/data-products/orders",
			Tags:        []string{},
		},
	}
}

func teamItems() []IndexItem {
	return []IndexItem{
		{
			ID:        "team::data-platform",
			Type:      "team",
			FeatureID: "teams",
			Title:     "Data Platform",
			Link:      "/teams/data-platform",
			Tags:      []string{},
		},
	}
}

func TestBuildIndexAggregatesSources(t *testing.T) {
	m := NewManager()
	m.Register("data-products", &stubSource{items: productItems()})
	m.Register("teams", &stubSource{items: teamItems()})

	m.BuildIndex(context.Background())
	assert.Equal(t, 3, m.Size())
}

func TestBuildIndexPreservesRegistrationOrder(t *testing.T) {
	m := NewManager()
	m.Register("data-products", &stubSource{items: []IndexItem{
		{ID: "product::sales-kpis", Title: "Sales KPIs"},
	}})
	m.Register("teams", &stubSource{items: []IndexItem{
		{ID: "team::sales", Title: "Sales"},
	}})

	m.BuildIndex(context.Background())
	results := m.Search(context.Background(), "sales")
	require.Len(t, results, 2)
	assert.Equal(t, "product::sales-kpis", results[0].ID)
	assert.Equal(t, "team::sales", results[1].ID)
}

func TestSearchPrefixSemantics(t *testing.T) {
	m := NewManager()
	m.Register("data-products", &stubSource{items: productItems()})
	m.BuildIndex(context.Background())

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{name: "title prefix", query: "Customer", wantIDs: []string{"product::customer-360"}},
		{name: "case insensitive", query: "cUsToMeR", wantIDs: []string{"product::customer-360"}},
		{name: "description prefix", query: "order ev", wantIDs: []string{"product::orders"}},
		{name: "tag prefix", query: "go", wantIDs: []string{"product::customer-360"}},
		{name: "short prefix", query: "or", wantIDs: []string{"product::orders"}},
		{name: "no mid-word match", query: "360", wantIDs: nil},
		{name: "no match", query: "zzz", wantIDs: nil},
		{name: "empty query", query: "", wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := m.Search(context.Background(), tt.query)
			ids := make([]string, 0, len(results))
			for _, r := range results {
				ids = append(ids, r.ID)
			}
			if tt.wantIDs == nil {
				assert.Empty(t, ids)
				return
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestSearchItemReturnedOnce(t *testing.T) {
	// Title and tag both match; the item must not be duplicated.
	m := NewManager()
	m.Register("data-products", &stubSource{items: []IndexItem{
		{ID: "product::gold", Title: "Gold", Tags: []string{"gold"}},
	}})
	m.BuildIndex(context.Background())

	results := m.Search(context.Background(), "gold")
	assert.Len(t, results, 1)
}

func TestBuildIndexSkipsFailingSource(t *testing.T) {
	m := NewManager()
	m.Register("data-products", &stubSource{err: errors.New("db unavailable")})
	m.Register("teams", &stubSource{items: teamItems()})

	m.BuildIndex(context.Background())
	assert.Equal(t, 1, m.Size())

	results := m.Search(context.Background(), "data")
	require.Len(t, results, 1)
	assert.Equal(t, "team::data-platform", results[0].ID)
}

func TestBuildIndexReplacesWholesale(t *testing.T) {
	source := &stubSource{items: productItems()}
	m := NewManager()
	m.Register("data-products", source)

	m.BuildIndex(context.Background())
	assert.Equal(t, 2, m.Size())

	source.mu.Lock()
	source.items = productItems()[:1]
	source.mu.Unlock()

	m.BuildIndex(context.Background())
	assert.Equal(t, 1, m.Size())
	assert.Empty(t, m.Search(context.Background(), "Orders"))
}

func TestRebuildAsync(t *testing.T) {
	source := &stubSource{items: teamItems()}
	m := NewManager()
	m.Register("teams", source)

	m.RebuildAsync()
	m.RebuildAsync()
	m.WaitForRebuilds()

	assert.Equal(t, 1, m.Size())
	source.mu.Lock()
	assert.Equal(t, 2, source.calls)
	source.mu.Unlock()
}

func TestSearchUnicodeFolding(t *testing.T) {
	m := NewManager()
	m.Register("data-products", &stubSource{items: []IndexItem{
		{ID: "product::strasse", Title: "Straße Report"},
	}})
	m.BuildIndex(context.Background())

	assert.Len(t, m.Search(context.Background(), "STRASSE"), 1)
}

func TestConcurrentSearchDuringRebuild(t *testing.T) {
	m := NewManager()
	m.Register("data-products", &stubSource{items: productItems()})
	m.BuildIndex(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				results := m.Search(context.Background(), "customer")
				// The index is swapped atomically, so a full set or nothing.
				assert.LessOrEqual(t, len(results), 1)
			}
		}()
	}
	for i := 0; i < 10; i++ {
		m.BuildIndex(context.Background())
	}
	wg.Wait()
}
