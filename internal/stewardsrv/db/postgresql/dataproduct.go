package postgresql

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	"github.com/stewarddata/steward-internal/internal/common/uuid7"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/dberror"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/models"
)

// CreateDataProduct inserts a new data product along with its input and output
// ports in a single transaction. If the product ID already exists, it returns
// an error.
func (mm *metadataManager) CreateDataProduct(ctx context.Context, product *models.DataProduct) (err apperrors.Error) {
	if product.ID == "" {
		return dberror.ErrInvalidInput.Msg("product ID cannot be empty")
	}
	if product.Title == "" {
		return dberror.ErrInvalidInput.Msg("product title cannot be empty")
	}

	// create a transaction
	tx, errdb := mm.conn().BeginTx(ctx, &sql.TxOptions{})
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to start transaction")
		return dberror.ErrDatabase.Err(errdb)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				log.Ctx(ctx).Error().Err(rollbackErr).Msg("failed to rollback transaction")
			}
		}
	}()

	query := `
		INSERT INTO data_products (id, spec_version, version, product_type, title, owner, domain, description, status, archetype, maturity, tags, links, custom)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
		RETURNING id, created_at, updated_at;
	`
	row := tx.QueryRowContext(ctx, query,
		product.ID, product.SpecVersion, product.Version, product.ProductType,
		product.Title, product.Owner, product.Domain, product.Description,
		product.Status, product.Archetype, product.Maturity,
		product.Tags, product.Links, product.Custom)
	var insertedID string
	errDb := row.Scan(&insertedID, &product.CreatedAt, &product.UpdatedAt)
	if errDb != nil {
		if errDb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("id", product.ID).Msg("data product already exists")
			err = dberror.ErrAlreadyExists.Msg("data product already exists")
			return err
		}
		log.Ctx(ctx).Error().Err(errDb).Str("id", product.ID).Msg("failed to insert data product")
		err = dberror.ErrDatabase.Err(errDb)
		return err
	}

	err = mm.insertPortsWithTransaction(ctx, tx, product)
	if err != nil {
		return err
	}

	if errdb := tx.Commit(); errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to commit transaction")
		err = dberror.ErrDatabase.Err(errdb)
		return err
	}

	return nil
}

func (mm *metadataManager) insertPortsWithTransaction(ctx context.Context, tx *sql.Tx, product *models.DataProduct) apperrors.Error {
	inputQuery := `
		INSERT INTO input_ports (port_id, data_product_id, name, description, port_type, asset_type, asset_identifier, location, source_system_id, source_output_port_id, links, custom, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	for i := range product.InputPorts {
		p := &product.InputPorts[i]
		if p.PortID == "" {
			p.PortID = uuid7.New().String()
		}
		p.DataProductID = product.ID
		_, errDb := tx.ExecContext(ctx, inputQuery,
			p.PortID, p.DataProductID, p.Name, p.Description, p.PortType,
			p.AssetType, p.AssetIdentifier, p.Location,
			p.SourceSystemID, p.SourceOutputPortID, p.Links, p.Custom, p.Tags)
		if errDb != nil {
			log.Ctx(ctx).Error().Err(errDb).Str("id", product.ID).Str("port", p.Name).Msg("failed to insert input port")
			return dberror.ErrDatabase.Err(errDb)
		}
	}

	outputQuery := `
		INSERT INTO output_ports (port_id, data_product_id, name, description, port_type, asset_type, asset_identifier, location, status, server, contains_pii, auto_approve, data_contract_id, links, custom, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	for i := range product.OutputPorts {
		p := &product.OutputPorts[i]
		if p.PortID == "" {
			p.PortID = uuid7.New().String()
		}
		p.DataProductID = product.ID
		_, errDb := tx.ExecContext(ctx, outputQuery,
			p.PortID, p.DataProductID, p.Name, p.Description, p.PortType,
			p.AssetType, p.AssetIdentifier, p.Location, p.Status, p.Server,
			p.ContainsPII, p.AutoApprove, p.DataContractID, p.Links, p.Custom, p.Tags)
		if errDb != nil {
			log.Ctx(ctx).Error().Err(errDb).Str("id", product.ID).Str("port", p.Name).Msg("failed to insert output port")
			return dberror.ErrDatabase.Err(errDb)
		}
	}

	return nil
}

// GetDataProduct retrieves a data product and its ports by ID.
func (mm *metadataManager) GetDataProduct(ctx context.Context, id string) (*models.DataProduct, apperrors.Error) {
	if id == "" {
		return nil, dberror.ErrInvalidInput.Msg("product ID cannot be empty")
	}

	query := `
		SELECT id, spec_version, version, product_type, title, owner, domain, description, status, archetype, maturity, tags, links, custom, created_at, updated_at
		FROM data_products
		WHERE id = $1;
	`
	row := mm.conn().QueryRowContext(ctx, query, id)

	var product models.DataProduct
	errDb := row.Scan(&product.ID, &product.SpecVersion, &product.Version, &product.ProductType,
		&product.Title, &product.Owner, &product.Domain, &product.Description,
		&product.Status, &product.Archetype, &product.Maturity,
		&product.Tags, &product.Links, &product.Custom,
		&product.CreatedAt, &product.UpdatedAt)
	if errDb != nil {
		if errDb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("id", id).Msg("data product not found")
			return nil, dberror.ErrNotFound.Msg("data product not found")
		}
		log.Ctx(ctx).Error().Err(errDb).Str("id", id).Msg("failed to retrieve data product")
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	if err := mm.loadPorts(ctx, &product); err != nil {
		return nil, err
	}

	return &product, nil
}

func (mm *metadataManager) loadPorts(ctx context.Context, product *models.DataProduct) apperrors.Error {
	inputQuery := `
		SELECT port_id, data_product_id, name, description, port_type, asset_type, asset_identifier, location, source_system_id, source_output_port_id, links, custom, tags
		FROM input_ports
		WHERE data_product_id = $1
		ORDER BY name;
	`
	rows, errDb := mm.conn().QueryContext(ctx, inputQuery, product.ID)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("id", product.ID).Msg("failed to retrieve input ports")
		return dberror.ErrDatabase.Err(errDb)
	}
	defer rows.Close()
	product.InputPorts = nil
	for rows.Next() {
		var p models.InputPort
		if errDb := rows.Scan(&p.PortID, &p.DataProductID, &p.Name, &p.Description, &p.PortType,
			&p.AssetType, &p.AssetIdentifier, &p.Location,
			&p.SourceSystemID, &p.SourceOutputPortID, &p.Links, &p.Custom, &p.Tags); errDb != nil {
			log.Ctx(ctx).Error().Err(errDb).Str("id", product.ID).Msg("failed to scan input port")
			return dberror.ErrDatabase.Err(errDb)
		}
		product.InputPorts = append(product.InputPorts, p)
	}
	if errDb := rows.Err(); errDb != nil {
		return dberror.ErrDatabase.Err(errDb)
	}

	outputQuery := `
		SELECT port_id, data_product_id, name, description, port_type, asset_type, asset_identifier, location, status, server, contains_pii, auto_approve, data_contract_id, links, custom, tags
		FROM output_ports
		WHERE data_product_id = $1
		ORDER BY name;
	`
	rows, errDb = mm.conn().QueryContext(ctx, outputQuery, product.ID)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("id", product.ID).Msg("failed to retrieve output ports")
		return dberror.ErrDatabase.Err(errDb)
	}
	defer rows.Close()
	product.OutputPorts = nil
	for rows.Next() {
		var p models.OutputPort
		if errDb := rows.Scan(&p.PortID, &p.DataProductID, &p.Name, &p.Description, &p.PortType,
			&p.AssetType, &p.AssetIdentifier, &p.Location, &p.Status, &p.Server,
			&p.ContainsPII, &p.AutoApprove, &p.DataContractID, &p.Links, &p.Custom, &p.Tags); errDb != nil {
			log.Ctx(ctx).Error().Err(errDb).Str("id", product.ID).Msg("failed to scan output port")
			return dberror.ErrDatabase.Err(errDb)
		}
		product.OutputPorts = append(product.OutputPorts, p)
	}
	if errDb := rows.Err(); errDb != nil {
		return dberror.ErrDatabase.Err(errDb)
	}

	return nil
}

// ListDataProducts retrieves all data products with their ports.
func (mm *metadataManager) ListDataProducts(ctx context.Context) ([]*models.DataProduct, apperrors.Error) {
	query := `
		SELECT id, spec_version, version, product_type, title, owner, domain, description, status, archetype, maturity, tags, links, custom, created_at, updated_at
		FROM data_products
		ORDER BY created_at;
	`
	rows, errDb := mm.conn().QueryContext(ctx, query)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to list data products")
		return nil, dberror.ErrDatabase.Err(errDb)
	}
	defer rows.Close()

	var products []*models.DataProduct
	for rows.Next() {
		var product models.DataProduct
		if errDb := rows.Scan(&product.ID, &product.SpecVersion, &product.Version, &product.ProductType,
			&product.Title, &product.Owner, &product.Domain, &product.Description,
			&product.Status, &product.Archetype, &product.Maturity,
			&product.Tags, &product.Links, &product.Custom,
			&product.CreatedAt, &product.UpdatedAt); errDb != nil {
			log.Ctx(ctx).Error().Err(errDb).Msg("failed to scan data product")
			return nil, dberror.ErrDatabase.Err(errDb)
		}
		products = append(products, &product)
	}
	if errDb := rows.Err(); errDb != nil {
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	for _, product := range products {
		if err := mm.loadPorts(ctx, product); err != nil {
			return nil, err
		}
	}

	return products, nil
}

// UpdateDataProduct replaces an existing data product and its ports in a
// single transaction. Ports are deleted and reinserted rather than diffed.
func (mm *metadataManager) UpdateDataProduct(ctx context.Context, product *models.DataProduct) (err apperrors.Error) {
	if product == nil || product.ID == "" {
		log.Ctx(ctx).Error().Msg("product ID must be provided")
		return dberror.ErrInvalidInput.Msg("product ID must be provided")
	}

	tx, errdb := mm.conn().BeginTx(ctx, &sql.TxOptions{})
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to start transaction")
		return dberror.ErrDatabase.Err(errdb)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				log.Ctx(ctx).Error().Err(rollbackErr).Msg("failed to rollback transaction")
			}
		}
	}()

	query := `
		UPDATE data_products
		SET spec_version = $2, version = $3, product_type = $4, title = $5, owner = $6, domain = $7, description = $8, status = $9, archetype = $10, maturity = $11, tags = $12, links = $13, custom = $14, updated_at = now()
		WHERE id = $1
		RETURNING id, created_at, updated_at;
	`
	row := tx.QueryRowContext(ctx, query,
		product.ID, product.SpecVersion, product.Version, product.ProductType,
		product.Title, product.Owner, product.Domain, product.Description,
		product.Status, product.Archetype, product.Maturity,
		product.Tags, product.Links, product.Custom)
	var updatedID string
	errDb := row.Scan(&updatedID, &product.CreatedAt, &product.UpdatedAt)
	if errDb != nil {
		if errDb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("id", product.ID).Msg("data product not found for update")
			err = dberror.ErrNotFound.Msg("data product not found for update")
			return err
		}
		log.Ctx(ctx).Error().Err(errDb).Str("id", product.ID).Msg("failed to update data product")
		err = dberror.ErrDatabase.Err(errDb)
		return err
	}

	for _, table := range []string{"input_ports", "output_ports"} {
		if _, errDb := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE data_product_id = $1;`, product.ID); errDb != nil {
			log.Ctx(ctx).Error().Err(errDb).Str("id", product.ID).Msg("failed to delete ports for update")
			err = dberror.ErrDatabase.Err(errDb)
			return err
		}
	}

	err = mm.insertPortsWithTransaction(ctx, tx, product)
	if err != nil {
		return err
	}

	if errdb := tx.Commit(); errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to commit transaction")
		err = dberror.ErrDatabase.Err(errdb)
		return err
	}

	return nil
}

// DeleteDataProduct deletes a data product. Ports and revisions are removed
// by the cascade on the foreign key.
func (mm *metadataManager) DeleteDataProduct(ctx context.Context, id string) apperrors.Error {
	if id == "" {
		return dberror.ErrInvalidInput.Msg("product ID cannot be empty")
	}

	query := `
		DELETE FROM data_products
		WHERE id = $1;
	`
	result, errDb := mm.conn().ExecContext(ctx, query, id)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("id", id).Msg("failed to delete data product")
		return dberror.ErrDatabase.Err(errDb)
	}
	rowsAffected, errDb := result.RowsAffected()
	if errDb != nil {
		return dberror.ErrDatabase.Err(errDb)
	}
	if rowsAffected == 0 {
		return dberror.ErrNotFound.Msg("data product not found")
	}

	return nil
}

// ListDataProductOwners retrieves the distinct non-empty owners across all
// data products.
func (mm *metadataManager) ListDataProductOwners(ctx context.Context) ([]string, apperrors.Error) {
	query := `
		SELECT DISTINCT owner FROM data_products
		WHERE owner <> ''
		ORDER BY owner;
	`
	rows, errDb := mm.conn().QueryContext(ctx, query)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to list data product owners")
		return nil, dberror.ErrDatabase.Err(errDb)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if errDb := rows.Scan(&owner); errDb != nil {
			return nil, dberror.ErrDatabase.Err(errDb)
		}
		owners = append(owners, owner)
	}
	if errDb := rows.Err(); errDb != nil {
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	return owners, nil
}

// ListDataProductStatuses retrieves the distinct non-empty statuses across
// products and their output ports.
func (mm *metadataManager) ListDataProductStatuses(ctx context.Context) ([]string, apperrors.Error) {
	query := `
		SELECT status FROM data_products WHERE status <> ''
		UNION
		SELECT status FROM output_ports WHERE status <> ''
		ORDER BY status;
	`
	return mm.listDistinctValues(ctx, query, "statuses")
}

// ListDataProductArchetypes retrieves the distinct non-empty archetypes
// across all data products.
func (mm *metadataManager) ListDataProductArchetypes(ctx context.Context) ([]string, apperrors.Error) {
	query := `
		SELECT DISTINCT archetype FROM data_products
		WHERE archetype <> ''
		ORDER BY archetype;
	`
	return mm.listDistinctValues(ctx, query, "archetypes")
}

func (mm *metadataManager) listDistinctValues(ctx context.Context, query string, what string) ([]string, apperrors.Error) {
	rows, errDb := mm.conn().QueryContext(ctx, query)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to list data product " + what)
		return nil, dberror.ErrDatabase.Err(errDb)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if errDb := rows.Scan(&v); errDb != nil {
			return nil, dberror.ErrDatabase.Err(errDb)
		}
		values = append(values, v)
	}
	if errDb := rows.Err(); errDb != nil {
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	return values, nil
}
