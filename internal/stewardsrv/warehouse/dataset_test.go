package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/stewarddata/steward-internal/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDatasetPathValidation(t *testing.T) {
	bad := []string{
		"orders",
		"main.sales",
		"main.sales.orders.extra",
		"main..orders",
		".sales.orders",
		"main.sales.",
	}
	for _, path := range bad {
		_, err := GetDataset(context.Background(), "postgres://localhost/warehouse", path)
		require.Error(t, err, path)
		assert.Contains(t, err.Error(), "invalid dataset path")
	}
}

func TestLogicalTypeFor(t *testing.T) {
	tests := []struct {
		columnType string
		want       types.LogicalType
	}{
		{"INT4", types.LogicalTypeInteger},
		{"bigint", types.LogicalTypeInteger},
		{"serial", types.LogicalTypeInteger},
		{"FLOAT8", types.LogicalTypeNumber},
		{"double precision", types.LogicalTypeNumber},
		{"NUMERIC", types.LogicalTypeNumber},
		{"decimal(10,2)", types.LogicalTypeNumber},
		{"BOOL", types.LogicalTypeBoolean},
		{"boolean", types.LogicalTypeBoolean},
		{"DATE", types.LogicalTypeDate},
		{"TIMESTAMPTZ", types.LogicalTypeDate},
		{"time without time zone", types.LogicalTypeDate},
		{"JSONB", types.LogicalTypeObject},
		{"struct<a:int>", types.LogicalTypeObject},
		{"map<string,int>", types.LogicalTypeObject},
		{"_TEXT", types.LogicalTypeArray},
		{"array<string>", types.LogicalTypeArray},
		{"VARCHAR", types.LogicalTypeString},
		{"text", types.LogicalTypeString},
		{"uuid", types.LogicalTypeString},
		{"", types.LogicalTypeString},
		{"  TEXT  ", types.LogicalTypeString},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LogicalTypeFor(tt.columnType), "type %q", tt.columnType)
	}
}

func TestJsonSafe(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	assert.Nil(t, jsonSafe(nil))
	assert.Equal(t, int64(42), jsonSafe(int64(42)))
	assert.Equal(t, 3.14, jsonSafe(3.14))
	assert.Equal(t, true, jsonSafe(true))
	assert.Equal(t, "hello", jsonSafe("hello"))
	assert.Equal(t, "2025-06-01T12:30:00Z", jsonSafe(ts))
	assert.Equal(t, "aGVsbG8=", jsonSafe([]byte("hello")))
	// Unrecognized driver types degrade to their string form.
	assert.Equal(t, "123", jsonSafe(int32(123)))
}
