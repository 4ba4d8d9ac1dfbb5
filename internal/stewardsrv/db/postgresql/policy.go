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

// CreateCompliancePolicy inserts a new compliance policy into the database.
// If a slug is set and already exists, it returns an error.
func (mm *metadataManager) CreateCompliancePolicy(ctx context.Context, policy *models.CompliancePolicy) apperrors.Error {
	if policy.Name == "" {
		return dberror.ErrInvalidInput.Msg("policy name cannot be empty")
	}
	if policy.Rule == "" {
		return dberror.ErrInvalidInput.Msg("policy rule cannot be empty")
	}
	policyID := policy.PolicyID
	if policyID == uuid.Nil {
		policyID = uuid7.New()
	}

	query := `
		INSERT INTO compliance_policies (policy_id, name, slug, description, rule, category, severity, is_active, compliance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (slug) WHERE slug <> '' DO NOTHING
		RETURNING policy_id, created_at, updated_at;
	`
	row := mm.conn().QueryRowContext(ctx, query,
		policyID, policy.Name, policy.Slug, policy.Description, policy.Rule,
		policy.Category, policy.Severity, policy.IsActive, policy.Compliance)
	errDb := row.Scan(&policy.PolicyID, &policy.CreatedAt, &policy.UpdatedAt)
	if errDb != nil {
		if errDb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("slug", policy.Slug).Msg("compliance policy already exists")
			return dberror.ErrAlreadyExists.Msg("compliance policy already exists")
		}
		log.Ctx(ctx).Error().Err(errDb).Str("name", policy.Name).Msg("failed to insert compliance policy")
		return dberror.ErrDatabase.Err(errDb)
	}

	return nil
}

// GetCompliancePolicy retrieves a compliance policy from the database.
// If both policyID and slug are provided, policyID takes precedence.
func (mm *metadataManager) GetCompliancePolicy(ctx context.Context, policyID uuid.UUID, slug string) (*models.CompliancePolicy, apperrors.Error) {
	query := `
		SELECT policy_id, name, slug, description, rule, category, severity, is_active, compliance, created_at, updated_at
		FROM compliance_policies
		WHERE `

	var row *sql.Row
	if policyID != uuid.Nil {
		query += "policy_id = $1;"
		row = mm.conn().QueryRowContext(ctx, query, policyID)
	} else if slug != "" {
		query += "slug = $1;"
		row = mm.conn().QueryRowContext(ctx, query, slug)
	} else {
		return nil, dberror.ErrInvalidInput.Msg("policyID or slug must be provided")
	}

	var policy models.CompliancePolicy
	errDb := row.Scan(&policy.PolicyID, &policy.Name, &policy.Slug, &policy.Description, &policy.Rule,
		&policy.Category, &policy.Severity, &policy.IsActive, &policy.Compliance,
		&policy.CreatedAt, &policy.UpdatedAt)
	if errDb != nil {
		if errDb == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("compliance policy not found")
		}
		log.Ctx(ctx).Error().Err(errDb).Str("policy_id", policyID.String()).Msg("failed to retrieve compliance policy")
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	return &policy, nil
}

// ListCompliancePolicies retrieves compliance policies ordered by name.
func (mm *metadataManager) ListCompliancePolicies(ctx context.Context, activeOnly bool) ([]*models.CompliancePolicy, apperrors.Error) {
	query := `
		SELECT policy_id, name, slug, description, rule, category, severity, is_active, compliance, created_at, updated_at
		FROM compliance_policies
	`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY name;`

	rows, errDb := mm.conn().QueryContext(ctx, query)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to list compliance policies")
		return nil, dberror.ErrDatabase.Err(errDb)
	}
	defer rows.Close()

	var policies []*models.CompliancePolicy
	for rows.Next() {
		var policy models.CompliancePolicy
		if errDb := rows.Scan(&policy.PolicyID, &policy.Name, &policy.Slug, &policy.Description, &policy.Rule,
			&policy.Category, &policy.Severity, &policy.IsActive, &policy.Compliance,
			&policy.CreatedAt, &policy.UpdatedAt); errDb != nil {
			log.Ctx(ctx).Error().Err(errDb).Msg("failed to scan compliance policy")
			return nil, dberror.ErrDatabase.Err(errDb)
		}
		policies = append(policies, &policy)
	}
	if errDb := rows.Err(); errDb != nil {
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	return policies, nil
}

// UpdateCompliancePolicy updates an existing compliance policy in the database.
func (mm *metadataManager) UpdateCompliancePolicy(ctx context.Context, policy *models.CompliancePolicy) apperrors.Error {
	if policy == nil || policy.PolicyID == uuid.Nil {
		log.Ctx(ctx).Error().Msg("policyID must be provided")
		return dberror.ErrInvalidInput.Msg("policyID must be provided")
	}

	query := `
		UPDATE compliance_policies
		SET name = $2, slug = $3, description = $4, rule = $5, category = $6, severity = $7, is_active = $8, updated_at = now()
		WHERE policy_id = $1
		RETURNING policy_id, updated_at;
	`
	row := mm.conn().QueryRowContext(ctx, query,
		policy.PolicyID, policy.Name, policy.Slug, policy.Description, policy.Rule,
		policy.Category, policy.Severity, policy.IsActive)
	var updatedID uuid.UUID
	errDb := row.Scan(&updatedID, &policy.UpdatedAt)
	if errDb != nil {
		if errDb == sql.ErrNoRows {
			return dberror.ErrNotFound.Msg("compliance policy not found for update")
		}
		log.Ctx(ctx).Error().Err(errDb).Str("policy_id", policy.PolicyID.String()).Msg("failed to update compliance policy")
		return dberror.ErrDatabase.Err(errDb)
	}

	return nil
}

// UpdatePolicyCompliance records the pass percentage from the most recent run.
func (mm *metadataManager) UpdatePolicyCompliance(ctx context.Context, policyID uuid.UUID, compliance float64) apperrors.Error {
	if policyID == uuid.Nil {
		return dberror.ErrInvalidInput.Msg("policyID must be provided")
	}

	query := `
		UPDATE compliance_policies
		SET compliance = $2, updated_at = now()
		WHERE policy_id = $1;
	`
	result, errDb := mm.conn().ExecContext(ctx, query, policyID, compliance)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("policy_id", policyID.String()).Msg("failed to update policy compliance")
		return dberror.ErrDatabase.Err(errDb)
	}
	rowsAffected, errDb := result.RowsAffected()
	if errDb != nil {
		return dberror.ErrDatabase.Err(errDb)
	}
	if rowsAffected == 0 {
		return dberror.ErrNotFound.Msg("compliance policy not found")
	}

	return nil
}

// DeleteCompliancePolicy deletes a compliance policy. Runs are removed by
// the cascade on the foreign key.
func (mm *metadataManager) DeleteCompliancePolicy(ctx context.Context, policyID uuid.UUID) apperrors.Error {
	if policyID == uuid.Nil {
		return dberror.ErrInvalidInput.Msg("policyID must be provided")
	}

	query := `
		DELETE FROM compliance_policies
		WHERE policy_id = $1;
	`
	result, errDb := mm.conn().ExecContext(ctx, query, policyID)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("policy_id", policyID.String()).Msg("failed to delete compliance policy")
		return dberror.ErrDatabase.Err(errDb)
	}
	rowsAffected, errDb := result.RowsAffected()
	if errDb != nil {
		return dberror.ErrDatabase.Err(errDb)
	}
	if rowsAffected == 0 {
		return dberror.ErrNotFound.Msg("compliance policy not found")
	}

	return nil
}

// CreateComplianceRun inserts a new compliance run into the database.
func (mm *metadataManager) CreateComplianceRun(ctx context.Context, run *models.ComplianceRun) apperrors.Error {
	if run.PolicyID == uuid.Nil {
		return dberror.ErrInvalidInput.Msg("policyID must be provided")
	}
	runID := run.RunID
	if runID == uuid.Nil {
		runID = uuid7.New()
	}
	if run.Status == "" {
		run.Status = "queued"
	}

	query := `
		INSERT INTO compliance_runs (run_id, policy_id, status, success_count, failure_count, score, error_message, results)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING run_id, started_at;
	`
	row := mm.conn().QueryRowContext(ctx, query,
		runID, run.PolicyID, run.Status, run.SuccessCount, run.FailureCount,
		run.Score, run.ErrorMessage, run.Results)
	errDb := row.Scan(&run.RunID, &run.StartedAt)
	if errDb != nil {
		if pgErr, ok := errDb.(*pgconn.PgError); ok {
			if pgErr.Code == "23503" && pgErr.ConstraintName == "compliance_runs_policy_id_fkey" {
				log.Ctx(ctx).Info().Str("policy_id", run.PolicyID.String()).Msg("policy no longer exists")
				return dberror.ErrNotFound.Msg("compliance policy not found")
			}
		}
		log.Ctx(ctx).Error().Err(errDb).Str("policy_id", run.PolicyID.String()).Msg("failed to insert compliance run")
		return dberror.ErrDatabase.Err(errDb)
	}

	return nil
}

// UpdateComplianceRun updates the status and results of a compliance run.
func (mm *metadataManager) UpdateComplianceRun(ctx context.Context, run *models.ComplianceRun) apperrors.Error {
	if run == nil || run.RunID == uuid.Nil {
		return dberror.ErrInvalidInput.Msg("runID must be provided")
	}

	query := `
		UPDATE compliance_runs
		SET status = $2, finished_at = $3, success_count = $4, failure_count = $5, score = $6, error_message = $7, results = $8
		WHERE run_id = $1;
	`
	result, errDb := mm.conn().ExecContext(ctx, query,
		run.RunID, run.Status, run.FinishedAt, run.SuccessCount, run.FailureCount,
		run.Score, run.ErrorMessage, run.Results)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("run_id", run.RunID.String()).Msg("failed to update compliance run")
		return dberror.ErrDatabase.Err(errDb)
	}
	rowsAffected, errDb := result.RowsAffected()
	if errDb != nil {
		return dberror.ErrDatabase.Err(errDb)
	}
	if rowsAffected == 0 {
		return dberror.ErrNotFound.Msg("compliance run not found")
	}

	return nil
}

// GetComplianceRun retrieves a compliance run by ID.
func (mm *metadataManager) GetComplianceRun(ctx context.Context, runID uuid.UUID) (*models.ComplianceRun, apperrors.Error) {
	if runID == uuid.Nil {
		return nil, dberror.ErrInvalidInput.Msg("runID must be provided")
	}

	query := `
		SELECT run_id, policy_id, status, started_at, finished_at, success_count, failure_count, score, error_message, results
		FROM compliance_runs
		WHERE run_id = $1;
	`
	row := mm.conn().QueryRowContext(ctx, query, runID)

	var run models.ComplianceRun
	errDb := row.Scan(&run.RunID, &run.PolicyID, &run.Status, &run.StartedAt, &run.FinishedAt,
		&run.SuccessCount, &run.FailureCount, &run.Score, &run.ErrorMessage, &run.Results)
	if errDb != nil {
		if errDb == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("compliance run not found")
		}
		log.Ctx(ctx).Error().Err(errDb).Str("run_id", runID.String()).Msg("failed to retrieve compliance run")
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	return &run, nil
}

// ListComplianceRuns retrieves runs for a policy, newest first. A limit of 0
// returns all runs.
func (mm *metadataManager) ListComplianceRuns(ctx context.Context, policyID uuid.UUID, limit int) ([]*models.ComplianceRun, apperrors.Error) {
	if policyID == uuid.Nil {
		return nil, dberror.ErrInvalidInput.Msg("policyID must be provided")
	}

	query := `
		SELECT run_id, policy_id, status, started_at, finished_at, success_count, failure_count, score, error_message, results
		FROM compliance_runs
		WHERE policy_id = $1
		ORDER BY started_at DESC
	`
	var rows *sql.Rows
	var errDb error
	if limit > 0 {
		query += ` LIMIT $2;`
		rows, errDb = mm.conn().QueryContext(ctx, query, policyID, limit)
	} else {
		query += `;`
		rows, errDb = mm.conn().QueryContext(ctx, query, policyID)
	}
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("policy_id", policyID.String()).Msg("failed to list compliance runs")
		return nil, dberror.ErrDatabase.Err(errDb)
	}
	defer rows.Close()

	var runs []*models.ComplianceRun
	for rows.Next() {
		var run models.ComplianceRun
		if errDb := rows.Scan(&run.RunID, &run.PolicyID, &run.Status, &run.StartedAt, &run.FinishedAt,
			&run.SuccessCount, &run.FailureCount, &run.Score, &run.ErrorMessage, &run.Results); errDb != nil {
			log.Ctx(ctx).Error().Err(errDb).Msg("failed to scan compliance run")
			return nil, dberror.ErrDatabase.Err(errDb)
		}
		runs = append(runs, &run)
	}
	if errDb := rows.Err(); errDb != nil {
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	return runs, nil
}
