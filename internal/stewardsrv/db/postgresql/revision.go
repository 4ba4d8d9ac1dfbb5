package postgresql

import (
	"context"
	"database/sql"

	"github.com/golang/snappy"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/config"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/dberror"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/models"
)

// CreateRevision records an immutable snapshot of a product document. The
// sequence is assigned from the highest existing sequence for the product.
func (rm *revisionManager) CreateRevision(ctx context.Context, rev *models.ProductRevision) apperrors.Error {
	if rev.DataProductID == "" {
		return dberror.ErrInvalidInput.Msg("product ID cannot be empty")
	}
	if len(rev.Data) == 0 {
		return dberror.ErrInvalidInput.Msg("data cannot be nil")
	}

	// snappy compress the data
	var dataZ []byte
	if config.CompressRevisions() {
		dataZ = snappy.Encode(nil, rev.Data)
		log.Ctx(ctx).Debug().Msgf("raw: %d, compressed: %d", len(rev.Data), len(dataZ))
	} else {
		dataZ = rev.Data // No compression
		log.Ctx(ctx).Debug().Msg("compression is disabled, using raw data")
	}

	query := `
		INSERT INTO product_revisions (data_product_id, sequence, data, created_by)
		SELECT $1, COALESCE(MAX(sequence), 0) + 1, $2, $3
		FROM product_revisions
		WHERE data_product_id = $1
		RETURNING sequence, created_at;
	`
	row := rm.conn().QueryRowContext(ctx, query, rev.DataProductID, dataZ, rev.CreatedBy)
	errDb := row.Scan(&rev.Sequence, &rev.CreatedAt)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("id", rev.DataProductID).Msg("failed to insert product revision")
		return dberror.ErrDatabase.Err(errDb)
	}

	return nil
}

// GetRevision retrieves one revision of a product document. A sequence of 0
// retrieves the latest revision.
func (rm *revisionManager) GetRevision(ctx context.Context, productID string, sequence int) (*models.ProductRevision, apperrors.Error) {
	if productID == "" {
		return nil, dberror.ErrInvalidInput.Msg("product ID cannot be empty")
	}

	query := `
		SELECT data_product_id, sequence, data, created_by, created_at
		FROM product_revisions
		WHERE data_product_id = $1
	`
	var row *sql.Row
	if sequence > 0 {
		query += ` AND sequence = $2;`
		row = rm.conn().QueryRowContext(ctx, query, productID, sequence)
	} else {
		query += ` ORDER BY sequence DESC LIMIT 1;`
		row = rm.conn().QueryRowContext(ctx, query, productID)
	}

	var rev models.ProductRevision
	errDb := row.Scan(&rev.DataProductID, &rev.Sequence, &rev.Data, &rev.CreatedBy, &rev.CreatedAt)
	if errDb != nil {
		if errDb == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("product revision not found")
		}
		log.Ctx(ctx).Error().Err(errDb).Str("id", productID).Msg("failed to retrieve product revision")
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	// Uncompress the data
	if config.CompressRevisions() {
		rev.Data, errDb = snappy.Decode(nil, rev.Data)
		if errDb != nil {
			log.Ctx(ctx).Error().Err(errDb).Msg("failed to uncompress product revision data")
			return nil, dberror.ErrDatabase.Err(errDb)
		}
	}

	return &rev, nil
}

// ListRevisions retrieves all revisions of a product, oldest first, without
// the document payloads.
func (rm *revisionManager) ListRevisions(ctx context.Context, productID string) ([]*models.ProductRevision, apperrors.Error) {
	if productID == "" {
		return nil, dberror.ErrInvalidInput.Msg("product ID cannot be empty")
	}

	query := `
		SELECT data_product_id, sequence, created_by, created_at
		FROM product_revisions
		WHERE data_product_id = $1
		ORDER BY sequence;
	`
	rows, errDb := rm.conn().QueryContext(ctx, query, productID)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("id", productID).Msg("failed to list product revisions")
		return nil, dberror.ErrDatabase.Err(errDb)
	}
	defer rows.Close()

	var revs []*models.ProductRevision
	for rows.Next() {
		var rev models.ProductRevision
		if errDb := rows.Scan(&rev.DataProductID, &rev.Sequence, &rev.CreatedBy, &rev.CreatedAt); errDb != nil {
			log.Ctx(ctx).Error().Err(errDb).Msg("failed to scan product revision")
			return nil, dberror.ErrDatabase.Err(errDb)
		}
		revs = append(revs, &rev)
	}
	if errDb := rows.Err(); errDb != nil {
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	return revs, nil
}

// DeleteRevisions deletes all revisions of a product.
func (rm *revisionManager) DeleteRevisions(ctx context.Context, productID string) apperrors.Error {
	if productID == "" {
		return dberror.ErrInvalidInput.Msg("product ID cannot be empty")
	}

	query := `
		DELETE FROM product_revisions
		WHERE data_product_id = $1;
	`
	if _, errDb := rm.conn().ExecContext(ctx, query, productID); errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("id", productID).Msg("failed to delete product revisions")
		return dberror.ErrDatabase.Err(errDb)
	}

	return nil
}
