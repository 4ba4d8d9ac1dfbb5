package assetmanager

import (
	"context"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitiateGenieSpaceCreationRejectsEmpty(t *testing.T) {
	tests := []struct {
		name string
		req  *GenieSpaceRequest
	}{
		{"nil request", nil},
		{"zero value", &GenieSpaceRequest{}},
		{"empty product list", &GenieSpaceRequest{ProductIDs: []string{}}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := InitiateGenieSpaceCreation(context.Background(), test.req)
			require.NotNil(t, err)
			assert.True(t, err.Is(ErrInvalidRequest))
			assert.Contains(t, err.Error(), "No product IDs provided.")
		})
	}

	// Nothing was started, so the drain returns immediately.
	WaitForGenieSpaces()
}

func TestGenieSpaceRequestWire(t *testing.T) {
	req := &GenieSpaceRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"product_ids": ["search-queries-all", "orders-gold"]}`), req))
	assert.Equal(t, []string{"search-queries-all", "orders-gold"}, req.ProductIDs)
}
