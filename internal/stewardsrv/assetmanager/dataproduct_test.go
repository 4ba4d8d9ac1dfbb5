package assetmanager

import (
	"context"
	"testing"
	"time"

	json "github.com/json-iterator/go"
	"github.com/stewarddata/steward-internal/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProductJSON() []byte {
	return []byte(`{
		"dataProductSpecification": "0.0.1",
		"id": "search-queries-all",
		"info": {
			"title": "Search Queries",
			"owner": "search-team",
			"domain": "discovery",
			"status": "active",
			"archetype": "source-aligned"
		},
		"inputPorts": [
			{
				"id": "kafka_search_topic",
				"name": "kafka_search_topic",
				"sourceSystemId": "search-service",
				"type": "Kafka",
				"assetType": "table"
			}
		],
		"outputPorts": [
			{
				"id": "snowflake_search_queries",
				"name": "search_queries_all",
				"status": "active",
				"containsPii": true,
				"server": {"database": "SEARCH_DB"}
			}
		],
		"tags": ["search", "queries"]
	}`)
}

func TestProductSchemaValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*productSchema)
		errSubstr string
	}{
		{
			name:   "valid document",
			mutate: func(ps *productSchema) {},
		},
		{
			name:      "unsupported spec version",
			mutate:    func(ps *productSchema) { ps.DataProductSpecification = "9.9.9" },
			errSubstr: "dataProductSpecification",
		},
		{
			name:      "missing id",
			mutate:    func(ps *productSchema) { ps.ID = "" },
			errSubstr: "id",
		},
		{
			name:      "id with spaces",
			mutate:    func(ps *productSchema) { ps.ID = "search queries" },
			errSubstr: "id",
		},
		{
			name:      "missing title",
			mutate:    func(ps *productSchema) { ps.Info.Title = "" },
			errSubstr: "info.title",
		},
		{
			name:      "missing owner",
			mutate:    func(ps *productSchema) { ps.Info.Owner = "" },
			errSubstr: "info.owner",
		},
		{
			name:      "input port without source system",
			mutate:    func(ps *productSchema) { ps.InputPorts[0].SourceSystemID = "" },
			errSubstr: "sourceSystemId",
		},
		{
			name:      "port without name",
			mutate:    func(ps *productSchema) { ps.OutputPorts[0].Name = "" },
			errSubstr: "name",
		},
		{
			name:      "unknown asset type",
			mutate:    func(ps *productSchema) { ps.InputPorts[0].AssetType = "spreadsheet" },
			errSubstr: "assetType",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := &productSchema{}
			require.NoError(t, json.Unmarshal(validProductJSON(), schema))
			tt.mutate(schema)

			errs := schema.Validate()
			if tt.errSubstr == "" {
				assert.Nil(t, errs)
				return
			}
			require.NotNil(t, errs)
			assert.Contains(t, errs.Error(), tt.errSubstr)
		})
	}
}

func TestProductSchemaDefaults(t *testing.T) {
	schema := &productSchema{
		ID:          "orders",
		Info:        productInfo{Title: "Orders", Owner: "sales"},
		InputPorts:  []inputPortSchema{{portSchema: portSchema{ID: "in", Name: "in"}, SourceSystemID: "crm"}},
		OutputPorts: []outputPortSchema{{portSchema: portSchema{ID: "out", Name: "out"}}},
	}
	schema.applyDefaults()

	assert.Equal(t, types.SpecVersion, schema.DataProductSpecification)
	assert.Equal(t, defaultProductVersion, schema.Version)
	assert.NotNil(t, schema.Links)
	assert.NotNil(t, schema.Custom)
	assert.NotNil(t, schema.Tags)
	assert.NotNil(t, schema.InputPorts[0].Links)
	assert.NotNil(t, schema.InputPorts[0].Tags)
	assert.NotNil(t, schema.OutputPorts[0].Custom)
}

func TestProductModelRoundTrip(t *testing.T) {
	schema := &productSchema{}
	require.NoError(t, json.Unmarshal(validProductJSON(), schema))
	schema.applyDefaults()

	model := schema.toModel()
	assert.Equal(t, "search-queries-all", model.ID)
	assert.Equal(t, "Search Queries", model.Title)
	assert.Equal(t, "search-team", model.Owner)
	assert.Equal(t, "discovery", model.Domain)
	require.Len(t, model.InputPorts, 1)
	assert.Equal(t, "search-service", model.InputPorts[0].SourceSystemID)
	require.Len(t, model.OutputPorts, 1)
	assert.True(t, model.OutputPorts[0].ContainsPII)

	now := time.Now()
	model.CreatedAt = now
	model.UpdatedAt = now

	doc := productDocument(model, true)
	assert.Equal(t, schema.ID, doc.ID)
	assert.Equal(t, schema.Info.Title, doc.Info.Title)
	assert.Equal(t, schema.Info.Domain, doc.Info.Domain)
	assert.Equal(t, []string{"search", "queries"}, doc.Tags)
	require.Len(t, doc.InputPorts, 1)
	assert.Equal(t, "kafka_search_topic", doc.InputPorts[0].ID)
	assert.Equal(t, "Kafka", doc.InputPorts[0].Type)
	require.Len(t, doc.OutputPorts, 1)
	assert.Equal(t, map[string]any{"database": "SEARCH_DB"}, doc.OutputPorts[0].Server)
	require.NotNil(t, doc.CreatedAt)
	assert.True(t, doc.CreatedAt.Equal(now))

	bare := productDocument(model, false)
	assert.Nil(t, bare.CreatedAt)
	assert.Nil(t, bare.UpdatedAt)
}

func TestNewDataProductManager(t *testing.T) {
	ctx := context.Background()

	t.Run("valid document", func(t *testing.T) {
		manager, err := NewDataProductManager(ctx, validProductJSON())
		require.Nil(t, err)
		assert.Equal(t, "search-queries-all", manager.ID())
		assert.Equal(t, "Search Queries", manager.Title())
	})

	t.Run("generates missing id", func(t *testing.T) {
		manager, err := NewDataProductManager(ctx, []byte(`{
			"dataProductSpecification": "0.0.1",
			"info": {"title": "Orders", "owner": "sales"}
		}`))
		require.Nil(t, err)
		assert.NotEmpty(t, manager.ID())
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := NewDataProductManager(ctx, nil)
		require.Error(t, err)
		assert.True(t, err.Is(ErrInvalidSchema))
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := NewDataProductManager(ctx, []byte(`{"id": `))
		require.Error(t, err)
		assert.True(t, err.Is(ErrInvalidSchema))
	})

	t.Run("validation failure", func(t *testing.T) {
		_, err := NewDataProductManager(ctx, []byte(`{
			"dataProductSpecification": "0.0.1",
			"id": "orders",
			"info": {"title": "Orders"}
		}`))
		require.Error(t, err)
		assert.True(t, err.Is(ErrInvalidSchema))
		assert.Contains(t, err.ErrorAll(), "info.owner")
	})
}

func TestProductDocumentSerialization(t *testing.T) {
	schema := &productSchema{}
	require.NoError(t, json.Unmarshal(validProductJSON(), schema))
	schema.applyDefaults()

	doc := productDocument(schema.toModel(), false)
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	// Wire form keeps the camel-cased specification field names.
	assert.Contains(t, string(data), `"dataProductSpecification"`)
	assert.Contains(t, string(data), `"inputPorts"`)
	assert.Contains(t, string(data), `"sourceSystemId"`)
	assert.Contains(t, string(data), `"containsPii"`)
	assert.NotContains(t, string(data), `"created_at"`)
}
