// Package compliance manages governance policies and their evaluation runs.
// A policy carries a JS predicate over the data product document; a run
// applies the predicate to every product and records per-object outcomes
// plus a pass-percentage score that feeds the dashboard.
package compliance

import (
	"context"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	schemaerr "github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager/schema/errors"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager/schema/schemavalidator"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/dberror"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/models"
	"github.com/stewarddata/steward-internal/pkg/types"
)

// historyRuns caps how many past run scores a policy document reports.
const historyRuns = 30

// criticalThreshold is the score below which an active critical-severity
// policy counts as a critical issue.
const criticalThreshold = 70

// policySchema is the wire form of a policy create or replace request.
type policySchema struct {
	ID          string               `json:"id,omitempty"`
	Name        string               `json:"name" validate:"required"`
	Slug        string               `json:"slug,omitempty" validate:"omitempty,noSpaces"`
	Description string               `json:"description,omitempty"`
	Rule        string               `json:"rule" validate:"required"`
	Category    string               `json:"category,omitempty"`
	Severity    types.PolicySeverity `json:"severity,omitempty" validate:"omitempty,severityValidator"`
	IsActive    *bool                `json:"is_active,omitempty"`
}

// policyReadSchema is the read form. History holds the scores of recent
// completed runs, oldest first.
type policyReadSchema struct {
	ID          uuid.UUID            `json:"id"`
	Name        string               `json:"name"`
	Slug        string               `json:"slug,omitempty"`
	Description string               `json:"description,omitempty"`
	Rule        string               `json:"rule"`
	Category    string               `json:"category"`
	Severity    types.PolicySeverity `json:"severity"`
	IsActive    bool                 `json:"is_active"`
	Compliance  float64              `json:"compliance"`
	History     []float64            `json:"history"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func (ps *policySchema) Validate() schemaerr.ValidationErrors {
	var validationErrors schemaerr.ValidationErrors

	err := schemavalidator.V().Struct(ps)
	if err == nil {
		return validationErrors
	}

	validatorErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return append(validationErrors, schemaerr.ErrInvalidSchema)
	}

	value := reflect.ValueOf(ps).Elem()
	typeOfSchema := value.Type()

	for _, e := range validatorErrors {
		jsonFieldName := schemavalidator.GetJSONFieldPath(value, typeOfSchema, e.StructField())

		switch e.Tag() {
		case "required":
			validationErrors = append(validationErrors, schemaerr.ErrMissingRequiredAttribute(jsonFieldName))
		case "noSpaces":
			val, _ := e.Value().(string)
			validationErrors = append(validationErrors, schemaerr.ErrInvalidNameFormat(jsonFieldName, val))
		case "severityValidator":
			val, _ := e.Value().(string)
			validationErrors = append(validationErrors, schemaerr.ErrInvalidValue(jsonFieldName, val))
		default:
			validationErrors = append(validationErrors, schemaerr.ErrValidationFailed(jsonFieldName))
		}
	}

	return validationErrors
}

func (ps *policySchema) applyDefaults() {
	if ps.Category == "" {
		ps.Category = "general"
	}
	if ps.Severity == "" {
		ps.Severity = types.SeverityMedium
	}
}

func (ps *policySchema) toModel() (*models.CompliancePolicy, apperrors.Error) {
	policy := &models.CompliancePolicy{
		Name:        ps.Name,
		Slug:        ps.Slug,
		Description: ps.Description,
		Rule:        ps.Rule,
		Category:    ps.Category,
		Severity:    ps.Severity,
		IsActive:    true,
	}
	if ps.IsActive != nil {
		policy.IsActive = *ps.IsActive
	}
	if ps.ID != "" {
		id, err := uuid.Parse(ps.ID)
		if err != nil {
			return nil, ErrInvalidRequest.Msg("policy ID must be a UUID")
		}
		policy.PolicyID = id
	}
	return policy, nil
}

func policyDocument(p *models.CompliancePolicy, history []float64) *policyReadSchema {
	if history == nil {
		history = []float64{}
	}
	return &policyReadSchema{
		ID:          p.PolicyID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Rule:        p.Rule,
		Category:    p.Category,
		Severity:    p.Severity,
		IsActive:    p.IsActive,
		Compliance:  p.Compliance,
		History:     history,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// policyHistory returns the scores of recent completed runs, oldest first.
// History is decoration on the read model, so failures degrade to an empty
// list instead of failing the read.
func policyHistory(ctx context.Context, policyID uuid.UUID) []float64 {
	runs, err := db.DB(ctx).ListComplianceRuns(ctx, policyID, historyRuns)
	if err != nil {
		log.Ctx(ctx).Warn().Str("policy_id", policyID.String()).Msg("could not load run history")
		return []float64{}
	}
	history := []float64{}
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].Status != runSucceeded {
			continue
		}
		history = append(history, runs[i].Score)
	}
	return history
}

// loadPolicy resolves a policy by UUID or, failing that, by slug.
func loadPolicy(ctx context.Context, idOrSlug string) (*models.CompliancePolicy, apperrors.Error) {
	policyID := uuid.Nil
	slug := ""
	if id, err := uuid.Parse(idOrSlug); err == nil {
		policyID = id
	} else {
		slug = idOrSlug
	}

	policy, err := db.DB(ctx).GetCompliancePolicy(ctx, policyID, slug)
	if err != nil {
		if err.Is(dberror.ErrNotFound) {
			return nil, ErrPolicyNotFound
		}
		return nil, err
	}
	return policy, nil
}

// CreatePolicy validates and stores a new policy and returns its document.
// The rule must compile before anything is written.
func CreatePolicy(ctx context.Context, policyJSON []byte) ([]byte, apperrors.Error) {
	if len(policyJSON) == 0 {
		return nil, ErrInvalidPolicy
	}
	schema := &policySchema{}
	if err := json.Unmarshal(policyJSON, schema); err != nil {
		return nil, ErrInvalidPolicy.Err(err)
	}
	schema.applyDefaults()
	if validationErrs := schema.Validate(); validationErrs != nil {
		log.Ctx(ctx).Error().Str("error", validationErrs.Error()).Msg("compliance policy validation failed")
		return nil, ErrInvalidPolicy.Msg(validationErrs.Error())
	}
	if _, err := CompileRule(schema.Rule); err != nil {
		return nil, err
	}

	policy, err := schema.toModel()
	if err != nil {
		return nil, err
	}
	if policy.PolicyID != uuid.Nil {
		if _, getErr := db.DB(ctx).GetCompliancePolicy(ctx, policy.PolicyID, ""); getErr == nil {
			return nil, ErrPolicyAlreadyExists.Msg("Compliance policy with ID '" + policy.PolicyID.String() + "' already exists.")
		}
	}

	if dbErr := db.DB(ctx).CreateCompliancePolicy(ctx, policy); dbErr != nil {
		if dbErr.Is(dberror.ErrAlreadyExists) {
			return nil, ErrPolicyAlreadyExists.Msg("Compliance policy with slug '" + policy.Slug + "' already exists.")
		}
		return nil, dbErr
	}
	log.Ctx(ctx).Info().Str("name", policy.Name).Str("policy_id", policy.PolicyID.String()).Msg("created compliance policy")

	doc, errJson := json.Marshal(policyDocument(policy, []float64{}))
	if errJson != nil {
		log.Ctx(ctx).Error().Err(errJson).Msg("failed to marshal compliance policy")
		return nil, ErrComplianceError
	}
	return doc, nil
}

// GetPolicy returns one policy with its run history.
func GetPolicy(ctx context.Context, idOrSlug string) ([]byte, apperrors.Error) {
	policy, err := loadPolicy(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	doc, errJson := json.Marshal(policyDocument(policy, policyHistory(ctx, policy.PolicyID)))
	if errJson != nil {
		log.Ctx(ctx).Error().Err(errJson).Msg("failed to marshal compliance policy")
		return nil, ErrComplianceError
	}
	return doc, nil
}

// ListPolicies returns all policies, active or not, with their histories.
func ListPolicies(ctx context.Context) ([]byte, apperrors.Error) {
	policies, err := db.DB(ctx).ListCompliancePolicies(ctx, false)
	if err != nil {
		return nil, err
	}

	docs := make([]*policyReadSchema, 0, len(policies))
	for _, p := range policies {
		docs = append(docs, policyDocument(p, policyHistory(ctx, p.PolicyID)))
	}

	doc, errJson := json.Marshal(docs)
	if errJson != nil {
		log.Ctx(ctx).Error().Err(errJson).Msg("failed to marshal compliance policies")
		return nil, ErrComplianceError
	}
	return doc, nil
}

// UpdatePolicy replaces a stored policy with the given document. The score
// is owned by runs and survives the replace untouched.
func UpdatePolicy(ctx context.Context, idOrSlug string, policyJSON []byte) ([]byte, apperrors.Error) {
	existing, err := loadPolicy(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	if len(policyJSON) == 0 {
		return nil, ErrInvalidPolicy
	}
	schema := &policySchema{}
	if errJson := json.Unmarshal(policyJSON, schema); errJson != nil {
		return nil, ErrInvalidPolicy.Err(errJson)
	}
	schema.applyDefaults()
	if validationErrs := schema.Validate(); validationErrs != nil {
		log.Ctx(ctx).Error().Str("error", validationErrs.Error()).Msg("compliance policy validation failed")
		return nil, ErrInvalidPolicy.Msg(validationErrs.Error())
	}
	if _, err := CompileRule(schema.Rule); err != nil {
		return nil, err
	}
	if schema.ID != "" && schema.ID != existing.PolicyID.String() {
		return nil, ErrInvalidRequest.Msg("ID in path does not match ID in request body")
	}

	if schema.Slug != "" && schema.Slug != existing.Slug {
		if other, getErr := db.DB(ctx).GetCompliancePolicy(ctx, uuid.Nil, schema.Slug); getErr == nil && other.PolicyID != existing.PolicyID {
			return nil, ErrPolicyAlreadyExists.Msg("Compliance policy with slug '" + schema.Slug + "' already exists.")
		}
	}

	policy, err := schema.toModel()
	if err != nil {
		return nil, err
	}
	policy.PolicyID = existing.PolicyID
	policy.CreatedAt = existing.CreatedAt
	policy.Compliance = existing.Compliance

	if dbErr := db.DB(ctx).UpdateCompliancePolicy(ctx, policy); dbErr != nil {
		if dbErr.Is(dberror.ErrNotFound) {
			return nil, ErrPolicyNotFound
		}
		return nil, dbErr
	}
	log.Ctx(ctx).Info().Str("name", policy.Name).Str("policy_id", policy.PolicyID.String()).Msg("updated compliance policy")

	doc, errJson := json.Marshal(policyDocument(policy, policyHistory(ctx, policy.PolicyID)))
	if errJson != nil {
		log.Ctx(ctx).Error().Err(errJson).Msg("failed to marshal compliance policy")
		return nil, ErrComplianceError
	}
	return doc, nil
}

// DeletePolicy removes a policy and, through the cascade, its runs.
func DeletePolicy(ctx context.Context, idOrSlug string) apperrors.Error {
	policy, err := loadPolicy(ctx, idOrSlug)
	if err != nil {
		return err
	}

	if dbErr := db.DB(ctx).DeleteCompliancePolicy(ctx, policy.PolicyID); dbErr != nil {
		if dbErr.Is(dberror.ErrNotFound) {
			return ErrPolicyNotFound
		}
		return dbErr
	}
	log.Ctx(ctx).Info().Str("name", policy.Name).Str("policy_id", policy.PolicyID.String()).Msg("deleted compliance policy")
	return nil
}

// statsSchema summarizes active policies the way the dashboard shows them.
type statsSchema struct {
	OverallCompliance float64 `json:"overall_compliance"`
	ActivePolicies    int     `json:"active_policies"`
	CriticalIssues    int     `json:"critical_issues"`
}

// Stats aggregates the current scores of active policies. The overall score
// is a plain average; critical issues are active critical-severity policies
// scoring below the threshold.
func Stats(ctx context.Context) ([]byte, apperrors.Error) {
	policies, err := db.DB(ctx).ListCompliancePolicies(ctx, true)
	if err != nil {
		return nil, err
	}

	stats := statsSchema{ActivePolicies: len(policies)}
	total := 0.0
	for _, p := range policies {
		total += p.Compliance
		if p.Severity == types.SeverityCritical && p.Compliance < criticalThreshold {
			stats.CriticalIssues++
		}
	}
	if len(policies) > 0 {
		stats.OverallCompliance = total / float64(len(policies))
	}

	doc, errJson := json.Marshal(stats)
	if errJson != nil {
		log.Ctx(ctx).Error().Err(errJson).Msg("failed to marshal compliance stats")
		return nil, ErrComplianceError
	}
	return doc, nil
}
