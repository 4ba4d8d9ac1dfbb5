// Package commander exposes the warehouse catalog as a browsable tree.
// Listings from the warehouse API are reshaped into uniform nodes so the
// explorer UI can render catalogs, schemas, tables, views, and functions
// without caring which level it is on. Dataset reads go straight to the
// warehouse over SQL and are bounded, not paginated.
package commander

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/config"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/warehouse"
)

// Node is one entry in the catalog tree. Children is always present in the
// serialized form, even when empty, so clients can treat every node as a
// branch point. HasChildren tells the UI whether expanding is worthwhile
// without another round trip.
type Node struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Children    []Node `json:"children"`
	HasChildren bool   `json:"hasChildren"`
}

// Manager answers catalog browsing requests against a single warehouse.
type Manager struct {
	client *warehouse.Client
	sqlDsn string
}

func NewManager(client *warehouse.Client, sqlDsn string) *Manager {
	return &Manager{
		client: client,
		sqlDsn: sqlDsn,
	}
}

// FromConfig builds a Manager for the warehouse named in the server config.
func FromConfig() *Manager {
	return NewManager(warehouse.FromConfig(), config.Config().Warehouse.SqlDsn)
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// Default returns the process wide Manager, created from config on first
// use so every caller shares one warehouse client and its listing cache.
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = FromConfig()
	})
	return defaultManager
}

// ListCatalogs returns the top level of the tree. Catalog ids are the bare
// catalog names.
func (m *Manager) ListCatalogs(ctx context.Context) ([]Node, apperrors.Error) {
	catalogs, err := m.client.ListCatalogs(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list catalogs")
		return nil, ErrWarehouseUnavailable.Err(err)
	}
	nodes := make([]Node, 0, len(catalogs))
	for _, c := range catalogs {
		nodes = append(nodes, Node{
			ID:          c.Name,
			Name:        c.Name,
			Type:        "catalog",
			Children:    []Node{},
			HasChildren: true,
		})
	}
	return nodes, nil
}

// ListSchemas returns the schemas under a catalog. Schema ids are dotted
// paths of the form catalog.schema.
func (m *Manager) ListSchemas(ctx context.Context, catalogName string) ([]Node, apperrors.Error) {
	schemas, err := m.client.ListSchemas(ctx, catalogName)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("catalog", catalogName).Msg("failed to list schemas")
		return nil, ErrWarehouseUnavailable.Err(err)
	}
	nodes := make([]Node, 0, len(schemas))
	for _, s := range schemas {
		nodes = append(nodes, Node{
			ID:          catalogName + "." + s.Name,
			Name:        s.Name,
			Type:        "schema",
			Children:    []Node{},
			HasChildren: true,
		})
	}
	return nodes, nil
}

// ListTables returns the tables and views under a schema. Views are tagged
// with type "view", everything else with "table". Ids are full dotted paths
// suitable for GetDataset.
func (m *Manager) ListTables(ctx context.Context, catalogName, schemaName string) ([]Node, apperrors.Error) {
	tables, err := m.client.ListTables(ctx, catalogName, schemaName)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("catalog", catalogName).
			Str("schema", schemaName).
			Msg("failed to list tables")
		return nil, ErrWarehouseUnavailable.Err(err)
	}
	nodes := make([]Node, 0, len(tables))
	for _, t := range tables {
		nodes = append(nodes, tableNode(catalogName, schemaName, t))
	}
	return nodes, nil
}

// ListViews returns only the views under a schema.
func (m *Manager) ListViews(ctx context.Context, catalogName, schemaName string) ([]Node, apperrors.Error) {
	tables, err := m.client.ListTables(ctx, catalogName, schemaName)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("catalog", catalogName).
			Str("schema", schemaName).
			Msg("failed to list views")
		return nil, ErrWarehouseUnavailable.Err(err)
	}
	nodes := []Node{}
	for _, t := range tables {
		if t.TableType != "VIEW" {
			continue
		}
		nodes = append(nodes, tableNode(catalogName, schemaName, t))
	}
	return nodes, nil
}

func tableNode(catalogName, schemaName string, t warehouse.TableInfo) Node {
	nodeType := "table"
	if t.TableType == "VIEW" {
		nodeType = "view"
	}
	return Node{
		ID:          catalogName + "." + schemaName + "." + t.Name,
		Name:        t.Name,
		Type:        nodeType,
		Children:    []Node{},
		HasChildren: false,
	}
}

// ListFunctions returns the functions under a schema. The warehouse already
// reports a full name for functions, so that becomes the id when present.
func (m *Manager) ListFunctions(ctx context.Context, catalogName, schemaName string) ([]Node, apperrors.Error) {
	functions, err := m.client.ListFunctions(ctx, catalogName, schemaName)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("catalog", catalogName).
			Str("schema", schemaName).
			Msg("failed to list functions")
		return nil, ErrWarehouseUnavailable.Err(err)
	}
	nodes := make([]Node, 0, len(functions))
	for _, f := range functions {
		id := f.FullName
		if id == "" {
			id = catalogName + "." + schemaName + "." + f.Name
		}
		nodes = append(nodes, Node{
			ID:          id,
			Name:        f.Name,
			Type:        "function",
			Children:    []Node{},
			HasChildren: false,
		})
	}
	return nodes, nil
}

// GetDataset reads a bounded sample of a table or view. The path must be a
// full dotted catalog.schema.table reference, matching the ids ListTables
// hands out.
func (m *Manager) GetDataset(ctx context.Context, datasetPath string) (*warehouse.Dataset, apperrors.Error) {
	parts := strings.Split(datasetPath, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, ErrInvalidDatasetPath.Msg("dataset path must be of the form catalog.schema.table")
	}
	ds, err := warehouse.GetDataset(ctx, m.sqlDsn, datasetPath)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("dataset", datasetPath).Msg("failed to read dataset")
		return nil, ErrDatasetReadFailed.Err(err)
	}
	return ds, nil
}

// Probe checks warehouse reachability with retries. Meant for startup, not
// for request paths.
func (m *Manager) Probe(ctx context.Context) error {
	return m.client.Probe(ctx)
}

// Health verifies the warehouse is reachable by listing catalogs. A healthy
// warehouse yields a nil error.
func (m *Manager) Health(ctx context.Context) apperrors.Error {
	if _, err := m.client.ListCatalogs(ctx); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("warehouse health check failed")
		return ErrWarehouseUnavailable.Err(err)
	}
	return nil
}
