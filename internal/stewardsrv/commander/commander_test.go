package commander

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/warehouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, handler http.HandlerFunc) *Manager {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewManager(warehouse.NewClient(srv.URL, "", 0), "postgres://localhost/warehouse")
}

func warehouseFixture(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/2.1/unity-catalog/catalogs":
		w.Write([]byte(`{"catalogs":[{"name":"main"},{"name":"sandbox"}]}`))
	case "/api/2.1/unity-catalog/schemas":
		w.Write([]byte(`{"schemas":[{"name":"sales","catalog_name":"main"},{"name":"hr","catalog_name":"main"}]}`))
	case "/api/2.1/unity-catalog/tables":
		w.Write([]byte(`{"tables":[{"name":"orders","table_type":"MANAGED"},{"name":"orders_v","table_type":"VIEW"},{"name":"external_feed","table_type":"EXTERNAL"}]}`))
	case "/api/2.1/unity-catalog/functions":
		w.Write([]byte(`{"functions":[{"name":"mask_email","full_name":"main.sales.mask_email"},{"name":"anon"}]}`))
	default:
		http.NotFound(w, r)
	}
}

func TestListCatalogNodes(t *testing.T) {
	m := newTestManager(t, warehouseFixture)
	nodes, err := m.ListCatalogs(context.Background())
	require.Nil(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, Node{ID: "main", Name: "main", Type: "catalog", Children: []Node{}, HasChildren: true}, nodes[0])
}

func TestListSchemaNodes(t *testing.T) {
	m := newTestManager(t, warehouseFixture)
	nodes, err := m.ListSchemas(context.Background(), "main")
	require.Nil(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "main.sales", nodes[0].ID)
	assert.Equal(t, "sales", nodes[0].Name)
	assert.Equal(t, "schema", nodes[0].Type)
	assert.True(t, nodes[0].HasChildren)
}

func TestListTableNodes(t *testing.T) {
	m := newTestManager(t, warehouseFixture)
	nodes, err := m.ListTables(context.Background(), "main", "sales")
	require.Nil(t, err)
	require.Len(t, nodes, 3)

	assert.Equal(t, "main.sales.orders", nodes[0].ID)
	assert.Equal(t, "table", nodes[0].Type)
	assert.Equal(t, "view", nodes[1].Type)
	// Non-view table types all map to plain tables.
	assert.Equal(t, "table", nodes[2].Type)
	for _, n := range nodes {
		assert.False(t, n.HasChildren)
	}
}

func TestListViewNodes(t *testing.T) {
	m := newTestManager(t, warehouseFixture)
	nodes, err := m.ListViews(context.Background(), "main", "sales")
	require.Nil(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "main.sales.orders_v", nodes[0].ID)
	assert.Equal(t, "view", nodes[0].Type)
}

func TestListFunctionNodes(t *testing.T) {
	m := newTestManager(t, warehouseFixture)
	nodes, err := m.ListFunctions(context.Background(), "main", "sales")
	require.Nil(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "main.sales.mask_email", nodes[0].ID)
	// Functions without a reported full name get a synthesized dotted id.
	assert.Equal(t, "main.sales.anon", nodes[1].ID)
	assert.Equal(t, "function", nodes[1].Type)
}

func TestNodeSerialization(t *testing.T) {
	m := newTestManager(t, warehouseFixture)
	nodes, err := m.ListTables(context.Background(), "main", "sales")
	require.Nil(t, err)

	data, marshalErr := json.Marshal(nodes[0])
	require.NoError(t, marshalErr)
	assert.JSONEq(t, `{"id":"main.sales.orders","name":"orders","type":"table","children":[],"hasChildren":false}`, string(data))
}

func TestWarehouseDown(t *testing.T) {
	m := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "warehouse down", http.StatusBadGateway)
	})

	_, err := m.ListCatalogs(context.Background())
	require.Error(t, err)
	assert.True(t, err.Is(ErrWarehouseUnavailable))

	healthErr := m.Health(context.Background())
	require.Error(t, healthErr)
	assert.True(t, healthErr.Is(ErrWarehouseUnavailable))
}

func TestHealth(t *testing.T) {
	m := newTestManager(t, warehouseFixture)
	assert.Nil(t, m.Health(context.Background()))
}

func TestGetDatasetBadPath(t *testing.T) {
	m := newTestManager(t, warehouseFixture)
	for _, path := range []string{"orders", "main.sales", "a.b.c.d", "..", "main..orders"} {
		_, err := m.GetDataset(context.Background(), path)
		require.Error(t, err, path)
		assert.True(t, err.Is(ErrInvalidDatasetPath), path)
	}
}
