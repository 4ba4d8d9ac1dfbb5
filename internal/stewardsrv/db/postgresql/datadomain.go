package postgresql

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	"github.com/stewarddata/steward-internal/internal/common/uuid7"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/dberror"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/models"
)

// CreateDataDomain inserts a new data domain into the database.
// If the domain name already exists, it returns an error.
func (mm *metadataManager) CreateDataDomain(ctx context.Context, domain *models.DataDomain) apperrors.Error {
	if domain.Name == "" {
		return dberror.ErrInvalidInput.Msg("domain name cannot be empty")
	}
	domainID := domain.DomainID
	if domainID == uuid.Nil {
		domainID = uuid7.New()
	}

	query := `
		INSERT INTO data_domains (domain_id, name, description, owner_team_id, parent_id, tags, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO NOTHING
		RETURNING domain_id, created_at, updated_at;
	`
	row := mm.conn().QueryRowContext(ctx, query,
		domainID, domain.Name, domain.Description, domain.OwnerTeamID,
		domain.ParentID, domain.Tags, domain.CreatedBy)
	errDb := row.Scan(&domain.DomainID, &domain.CreatedAt, &domain.UpdatedAt)
	if errDb != nil {
		if errDb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("name", domain.Name).Msg("data domain already exists")
			return dberror.ErrAlreadyExists.Msg("data domain already exists")
		}
		if pgErr, ok := errDb.(*pgconn.PgError); ok {
			if pgErr.Code == "23503" && pgErr.ConstraintName == "data_domains_parent_id_fkey" {
				log.Ctx(ctx).Info().Str("name", domain.Name).Msg("parent domain does not exist")
				return dberror.ErrInvalidDomain.Msg("parent domain does not exist")
			}
			if pgErr.Code == "23503" && pgErr.ConstraintName == "data_domains_owner_team_id_fkey" {
				log.Ctx(ctx).Info().Str("name", domain.Name).Msg("owner team does not exist")
				return dberror.ErrInvalidDomain.Msg("owner team does not exist")
			}
		}
		log.Ctx(ctx).Error().Err(errDb).Str("name", domain.Name).Msg("failed to insert data domain")
		return dberror.ErrDatabase.Err(errDb)
	}

	return nil
}

// GetDataDomain retrieves a data domain from the database.
// If both domainID and name are provided, domainID takes precedence.
func (mm *metadataManager) GetDataDomain(ctx context.Context, domainID uuid.UUID, name string) (*models.DataDomain, apperrors.Error) {
	query := `
		SELECT domain_id, name, description, owner_team_id, parent_id, tags, created_by, created_at, updated_at
		FROM data_domains
		WHERE `

	var row *sql.Row
	if domainID != uuid.Nil {
		query += "domain_id = $1;"
		row = mm.conn().QueryRowContext(ctx, query, domainID)
	} else if name != "" {
		query += "name = $1;"
		row = mm.conn().QueryRowContext(ctx, query, name)
	} else {
		return nil, dberror.ErrInvalidInput.Msg("domainID or name must be provided")
	}

	var domain models.DataDomain
	errDb := row.Scan(&domain.DomainID, &domain.Name, &domain.Description, &domain.OwnerTeamID,
		&domain.ParentID, &domain.Tags, &domain.CreatedBy, &domain.CreatedAt, &domain.UpdatedAt)
	if errDb != nil {
		if errDb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("name", name).Str("domain_id", domainID.String()).Msg("data domain not found")
			return nil, dberror.ErrNotFound.Msg("data domain not found")
		}
		log.Ctx(ctx).Error().Err(errDb).Str("name", name).Str("domain_id", domainID.String()).Msg("failed to retrieve data domain")
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	return &domain, nil
}

func (mm *metadataManager) scanDomainRows(ctx context.Context, rows *sql.Rows) ([]*models.DataDomain, apperrors.Error) {
	var domains []*models.DataDomain
	for rows.Next() {
		var domain models.DataDomain
		if errDb := rows.Scan(&domain.DomainID, &domain.Name, &domain.Description, &domain.OwnerTeamID,
			&domain.ParentID, &domain.Tags, &domain.CreatedBy, &domain.CreatedAt, &domain.UpdatedAt); errDb != nil {
			log.Ctx(ctx).Error().Err(errDb).Msg("failed to scan data domain")
			return nil, dberror.ErrDatabase.Err(errDb)
		}
		domains = append(domains, &domain)
	}
	if errDb := rows.Err(); errDb != nil {
		return nil, dberror.ErrDatabase.Err(errDb)
	}
	return domains, nil
}

// ListDataDomains retrieves all data domains ordered by name.
func (mm *metadataManager) ListDataDomains(ctx context.Context) ([]*models.DataDomain, apperrors.Error) {
	query := `
		SELECT domain_id, name, description, owner_team_id, parent_id, tags, created_by, created_at, updated_at
		FROM data_domains
		ORDER BY name;
	`
	rows, errDb := mm.conn().QueryContext(ctx, query)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to list data domains")
		return nil, dberror.ErrDatabase.Err(errDb)
	}
	defer rows.Close()

	return mm.scanDomainRows(ctx, rows)
}

// ListChildDomains retrieves the direct children of a data domain.
func (mm *metadataManager) ListChildDomains(ctx context.Context, parentID uuid.UUID) ([]*models.DataDomain, apperrors.Error) {
	if parentID == uuid.Nil {
		return nil, dberror.ErrInvalidInput.Msg("parentID must be provided")
	}

	query := `
		SELECT domain_id, name, description, owner_team_id, parent_id, tags, created_by, created_at, updated_at
		FROM data_domains
		WHERE parent_id = $1
		ORDER BY name;
	`
	rows, errDb := mm.conn().QueryContext(ctx, query, parentID)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("parent_id", parentID.String()).Msg("failed to list child domains")
		return nil, dberror.ErrDatabase.Err(errDb)
	}
	defer rows.Close()

	return mm.scanDomainRows(ctx, rows)
}

// UpdateDataDomain updates an existing data domain in the database.
func (mm *metadataManager) UpdateDataDomain(ctx context.Context, domain *models.DataDomain) apperrors.Error {
	if domain == nil || domain.DomainID == uuid.Nil {
		log.Ctx(ctx).Error().Msg("domainID must be provided")
		return dberror.ErrInvalidInput.Msg("domainID must be provided")
	}
	if domain.ParentID.Valid && domain.ParentID.UUID == domain.DomainID {
		return dberror.ErrInvalidDomain.Msg("domain cannot be its own parent")
	}

	query := `
		UPDATE data_domains
		SET name = $2, description = $3, owner_team_id = $4, parent_id = $5, tags = $6, updated_at = now()
		WHERE domain_id = $1
		RETURNING domain_id, updated_at;
	`
	row := mm.conn().QueryRowContext(ctx, query,
		domain.DomainID, domain.Name, domain.Description, domain.OwnerTeamID,
		domain.ParentID, domain.Tags)
	var updatedID uuid.UUID
	errDb := row.Scan(&updatedID, &domain.UpdatedAt)
	if errDb != nil {
		if errDb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("domain_id", domain.DomainID.String()).Msg("data domain not found for update")
			return dberror.ErrNotFound.Msg("data domain not found for update")
		}
		if pgErr, ok := errDb.(*pgconn.PgError); ok {
			if pgErr.Code == "23505" && pgErr.ConstraintName == "data_domains_name_key" {
				log.Ctx(ctx).Info().Str("name", domain.Name).Msg("domain name already in use")
				return dberror.ErrAlreadyExists.Msg("domain name already in use")
			}
			if pgErr.Code == "23503" && pgErr.ConstraintName == "data_domains_parent_id_fkey" {
				log.Ctx(ctx).Info().Str("domain_id", domain.DomainID.String()).Msg("parent domain does not exist")
				return dberror.ErrInvalidDomain.Msg("parent domain does not exist")
			}
			if pgErr.Code == "23503" && pgErr.ConstraintName == "data_domains_owner_team_id_fkey" {
				log.Ctx(ctx).Info().Str("domain_id", domain.DomainID.String()).Msg("owner team does not exist")
				return dberror.ErrInvalidDomain.Msg("owner team does not exist")
			}
		}
		log.Ctx(ctx).Error().Err(errDb).Str("domain_id", domain.DomainID.String()).Msg("failed to update data domain")
		return dberror.ErrDatabase.Err(errDb)
	}

	return nil
}

// DeleteDataDomain deletes a data domain. A domain that still has child
// domains cannot be deleted.
func (mm *metadataManager) DeleteDataDomain(ctx context.Context, domainID uuid.UUID) apperrors.Error {
	if domainID == uuid.Nil {
		return dberror.ErrInvalidInput.Msg("domainID must be provided")
	}

	var childCount int
	countQuery := `
		SELECT COUNT(*) FROM data_domains WHERE parent_id = $1;
	`
	if errDb := mm.conn().QueryRowContext(ctx, countQuery, domainID).Scan(&childCount); errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("domain_id", domainID.String()).Msg("failed to count child domains")
		return dberror.ErrDatabase.Err(errDb)
	}
	if childCount > 0 {
		return dberror.ErrHasChildren.Msg("domain has child domains")
	}

	query := `
		DELETE FROM data_domains
		WHERE domain_id = $1;
	`
	result, errDb := mm.conn().ExecContext(ctx, query, domainID)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("domain_id", domainID.String()).Msg("failed to delete data domain")
		return dberror.ErrDatabase.Err(errDb)
	}
	rowsAffected, errDb := result.RowsAffected()
	if errDb != nil {
		return dberror.ErrDatabase.Err(errDb)
	}
	if rowsAffected == 0 {
		return dberror.ErrNotFound.Msg("data domain not found")
	}

	return nil
}
