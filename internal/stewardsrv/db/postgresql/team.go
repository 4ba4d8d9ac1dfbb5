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

// CreateTeam inserts a new team into the database.
// If the team name already exists, it returns an error.
func (mm *metadataManager) CreateTeam(ctx context.Context, team *models.Team) apperrors.Error {
	if team.Name == "" {
		return dberror.ErrInvalidInput.Msg("team name cannot be empty")
	}
	teamID := team.TeamID
	if teamID == uuid.Nil {
		teamID = uuid7.New()
	}

	query := `
		INSERT INTO teams (team_id, name, title, description, domain_id, members, tags, metadata, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (name) DO NOTHING
		RETURNING team_id, created_at, updated_at;
	`
	row := mm.conn().QueryRowContext(ctx, query,
		teamID, team.Name, team.Title, team.Description, team.DomainID,
		team.Members, team.Tags, team.Metadata, team.CreatedBy, team.UpdatedBy)
	errDb := row.Scan(&team.TeamID, &team.CreatedAt, &team.UpdatedAt)
	if errDb != nil {
		if errDb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("name", team.Name).Msg("team already exists")
			return dberror.ErrAlreadyExists.Msg("team already exists")
		}
		if pgErr, ok := errDb.(*pgconn.PgError); ok {
			if pgErr.Code == "23503" && pgErr.ConstraintName == "teams_domain_id_fkey" {
				log.Ctx(ctx).Info().Str("name", team.Name).Msg("referenced data domain does not exist")
				return dberror.ErrInvalidDomain.Msg("referenced data domain does not exist")
			}
		}
		log.Ctx(ctx).Error().Err(errDb).Str("name", team.Name).Msg("failed to insert team")
		return dberror.ErrDatabase.Err(errDb)
	}

	return nil
}

// GetTeam retrieves a team from the database.
// If both teamID and name are provided, teamID takes precedence.
func (mm *metadataManager) GetTeam(ctx context.Context, teamID uuid.UUID, name string) (*models.Team, apperrors.Error) {
	query := `
		SELECT team_id, name, title, description, domain_id, members, tags, metadata, created_by, updated_by, created_at, updated_at
		FROM teams
		WHERE `

	var row *sql.Row
	if teamID != uuid.Nil {
		query += "team_id = $1;"
		row = mm.conn().QueryRowContext(ctx, query, teamID)
	} else if name != "" {
		query += "name = $1;"
		row = mm.conn().QueryRowContext(ctx, query, name)
	} else {
		return nil, dberror.ErrInvalidInput.Msg("teamID or name must be provided")
	}

	var team models.Team
	errDb := row.Scan(&team.TeamID, &team.Name, &team.Title, &team.Description, &team.DomainID,
		&team.Members, &team.Tags, &team.Metadata, &team.CreatedBy, &team.UpdatedBy,
		&team.CreatedAt, &team.UpdatedAt)
	if errDb != nil {
		if errDb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("name", name).Str("team_id", teamID.String()).Msg("team not found")
			return nil, dberror.ErrNotFound.Msg("team not found")
		}
		log.Ctx(ctx).Error().Err(errDb).Str("name", name).Str("team_id", teamID.String()).Msg("failed to retrieve team")
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	return &team, nil
}

// ListTeams retrieves all teams ordered by name.
func (mm *metadataManager) ListTeams(ctx context.Context) ([]*models.Team, apperrors.Error) {
	query := `
		SELECT team_id, name, title, description, domain_id, members, tags, metadata, created_by, updated_by, created_at, updated_at
		FROM teams
		ORDER BY name;
	`
	rows, errDb := mm.conn().QueryContext(ctx, query)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to list teams")
		return nil, dberror.ErrDatabase.Err(errDb)
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		var team models.Team
		if errDb := rows.Scan(&team.TeamID, &team.Name, &team.Title, &team.Description, &team.DomainID,
			&team.Members, &team.Tags, &team.Metadata, &team.CreatedBy, &team.UpdatedBy,
			&team.CreatedAt, &team.UpdatedAt); errDb != nil {
			log.Ctx(ctx).Error().Err(errDb).Msg("failed to scan team")
			return nil, dberror.ErrDatabase.Err(errDb)
		}
		teams = append(teams, &team)
	}
	if errDb := rows.Err(); errDb != nil {
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	return teams, nil
}

// UpdateTeam updates an existing team in the database.
func (mm *metadataManager) UpdateTeam(ctx context.Context, team *models.Team) apperrors.Error {
	if team == nil || team.TeamID == uuid.Nil {
		log.Ctx(ctx).Error().Msg("teamID must be provided")
		return dberror.ErrInvalidInput.Msg("teamID must be provided")
	}

	query := `
		UPDATE teams
		SET name = $2, title = $3, description = $4, domain_id = $5, members = $6, tags = $7, metadata = $8, updated_by = $9, updated_at = now()
		WHERE team_id = $1
		RETURNING team_id, updated_at;
	`
	row := mm.conn().QueryRowContext(ctx, query,
		team.TeamID, team.Name, team.Title, team.Description, team.DomainID,
		team.Members, team.Tags, team.Metadata, team.UpdatedBy)
	var updatedID uuid.UUID
	errDb := row.Scan(&updatedID, &team.UpdatedAt)
	if errDb != nil {
		if errDb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("team_id", team.TeamID.String()).Msg("team not found for update")
			return dberror.ErrNotFound.Msg("team not found for update")
		}
		if pgErr, ok := errDb.(*pgconn.PgError); ok {
			if pgErr.Code == "23505" && pgErr.ConstraintName == "teams_name_key" {
				log.Ctx(ctx).Info().Str("name", team.Name).Msg("team name already in use")
				return dberror.ErrAlreadyExists.Msg("team name already in use")
			}
			if pgErr.Code == "23503" && pgErr.ConstraintName == "teams_domain_id_fkey" {
				log.Ctx(ctx).Info().Str("team_id", team.TeamID.String()).Msg("referenced data domain does not exist")
				return dberror.ErrInvalidDomain.Msg("referenced data domain does not exist")
			}
		}
		log.Ctx(ctx).Error().Err(errDb).Str("team_id", team.TeamID.String()).Msg("failed to update team")
		return dberror.ErrDatabase.Err(errDb)
	}

	return nil
}

// DeleteTeam deletes a team from the database.
func (mm *metadataManager) DeleteTeam(ctx context.Context, teamID uuid.UUID) apperrors.Error {
	if teamID == uuid.Nil {
		return dberror.ErrInvalidInput.Msg("teamID must be provided")
	}

	query := `
		DELETE FROM teams
		WHERE team_id = $1;
	`
	result, errDb := mm.conn().ExecContext(ctx, query, teamID)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("team_id", teamID.String()).Msg("failed to delete team")
		return dberror.ErrDatabase.Err(errDb)
	}
	rowsAffected, errDb := result.RowsAffected()
	if errDb != nil {
		return dberror.ErrDatabase.Err(errDb)
	}
	if rowsAffected == 0 {
		return dberror.ErrNotFound.Msg("team not found")
	}

	return nil
}
