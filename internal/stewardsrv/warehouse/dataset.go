package warehouse

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/pkg/types"
)

const datasetRowLimit = 1000

// DatasetColumn describes one column of a dataset sample.
type DatasetColumn struct {
	Name     string            `json:"name"`
	Type     types.LogicalType `json:"type"`
	Nullable bool              `json:"nullable"`
}

// Dataset is a bounded sample of one table, rows in column order.
type Dataset struct {
	Schema    []DatasetColumn `json:"schema"`
	Data      [][]any         `json:"data"`
	TotalRows int             `json:"total_rows"`
}

// GetDataset reads up to 1000 rows of catalog.schema.table from the SQL
// endpoint. The connection is scoped to this call and always closed.
func GetDataset(ctx context.Context, dsn, datasetPath string) (*Dataset, error) {
	parts := strings.Split(datasetPath, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid dataset path %q: want catalog.schema.table", datasetPath)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("invalid dataset path %q: empty component", datasetPath)
		}
	}

	sqldb, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse sql endpoint: %w", err)
	}
	defer sqldb.Close()

	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = pq.QuoteIdentifier(p)
	}
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", strings.Join(quoted, "."), datasetRowLimit)
	log.Ctx(ctx).Info().Str("query", query).Msg("fetching dataset sample")

	rows, err := sqldb.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dataset query failed: %w", err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset columns: %w", err)
	}

	ds := &Dataset{
		Schema: make([]DatasetColumn, 0, len(colTypes)),
		Data:   [][]any{},
	}
	for _, ct := range colTypes {
		nullable, _ := ct.Nullable()
		ds.Schema = append(ds.Schema, DatasetColumn{
			Name:     ct.Name(),
			Type:     LogicalTypeFor(ct.DatabaseTypeName()),
			Nullable: nullable,
		})
	}

	values := make([]any, len(colTypes))
	ptrs := make([]any, len(colTypes))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan dataset row: %w", err)
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = jsonSafe(v)
		}
		ds.Data = append(ds.Data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dataset read failed: %w", err)
	}
	ds.TotalRows = len(ds.Data)

	log.Ctx(ctx).Info().Int("rows", ds.TotalRows).Int("columns", len(ds.Schema)).Msg("dataset sample retrieved")
	return ds, nil
}

// jsonSafe renders a scanned value in a form any JSON encoder accepts.
// Numbers and booleans keep their type, timestamps become RFC3339 strings,
// raw bytes are base64 encoded, and nulls stay null.
func jsonSafe(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case int64, float64, bool, string:
		return t
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case []byte:
		return base64.StdEncoding.EncodeToString(t)
	default:
		return fmt.Sprint(t)
	}
}

// LogicalTypeFor maps a warehouse column type name to its vendor neutral
// logical type. Complex types are matched first, strings last; anything
// unrecognized reports as string.
func LogicalTypeFor(columnType string) types.LogicalType {
	t := strings.ToLower(strings.TrimSpace(columnType))
	if t == "" {
		return types.LogicalTypeString
	}
	switch {
	case strings.HasPrefix(t, "_"), strings.Contains(t, "array") && (strings.Contains(t, "<") || strings.Contains(t, "(")):
		// driver reports postgres array types with a leading underscore
		return types.LogicalTypeArray
	case strings.Contains(t, "struct"), strings.Contains(t, "map"), strings.Contains(t, "object"), strings.Contains(t, "json"):
		return types.LogicalTypeObject
	case strings.Contains(t, "bool"):
		return types.LogicalTypeBoolean
	case strings.Contains(t, "date"), strings.Contains(t, "timestamp"), strings.Contains(t, "time"):
		return types.LogicalTypeDate
	case strings.Contains(t, "double"), strings.Contains(t, "float"), strings.Contains(t, "decimal"), strings.Contains(t, "numeric"), strings.Contains(t, "real"):
		return types.LogicalTypeNumber
	case strings.Contains(t, "int"), strings.Contains(t, "serial"):
		return types.LogicalTypeInteger
	default:
		return types.LogicalTypeString
	}
}
