package compliance

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	json "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/config"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/dberror"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/models"
)

// Run statuses as stored on compliance_runs.
const (
	runRunning   = "running"
	runSucceeded = "succeeded"
	runFailed    = "failed"
)

const defaultRunListLimit = 50

// runResult is the stored outcome for one object in a run.
type runResult struct {
	ObjectType string `json:"object_type"`
	ObjectID   string `json:"object_id"`
	ObjectName string `json:"object_name,omitempty"`
	Passed     bool   `json:"passed"`
	Message    string `json:"message,omitempty"`
}

// runReadSchema is the read form of a run.
type runReadSchema struct {
	ID           uuid.UUID   `json:"id"`
	PolicyID     uuid.UUID   `json:"policy_id"`
	Status       string      `json:"status"`
	StartedAt    time.Time   `json:"started_at"`
	FinishedAt   *time.Time  `json:"finished_at,omitempty"`
	SuccessCount int         `json:"success_count"`
	FailureCount int         `json:"failure_count"`
	Score        float64     `json:"score"`
	ErrorMessage string      `json:"error_message,omitempty"`
	Results      []runResult `json:"results"`
}

func runDocument(run *models.ComplianceRun, includeResults bool) *runReadSchema {
	doc := &runReadSchema{
		ID:           run.RunID,
		PolicyID:     run.PolicyID,
		Status:       run.Status,
		StartedAt:    run.StartedAt,
		SuccessCount: run.SuccessCount,
		FailureCount: run.FailureCount,
		Score:        run.Score,
		ErrorMessage: run.ErrorMessage,
		Results:      []runResult{},
	}
	if run.FinishedAt.Valid {
		finishedAt := run.FinishedAt.Time
		doc.FinishedAt = &finishedAt
	}
	if includeResults && run.Results.Status == pgtype.Present && len(run.Results.Bytes) > 0 && string(run.Results.Bytes) != "null" {
		_ = json.Unmarshal(run.Results.Bytes, &doc.Results)
	}
	return doc
}

func resultsJSONB(results []runResult) pgtype.JSONB {
	j := pgtype.JSONB{}
	if err := j.Set(results); err != nil {
		j = pgtype.JSONB{Status: pgtype.Null}
	}
	return j
}

// RunPolicy evaluates a policy against every data product, records the run,
// and refreshes the policy's score. Rules that throw, time out, or return a
// non-boolean fail the object they were evaluating, never the run. The
// returned document includes the per-object results.
func RunPolicy(ctx context.Context, idOrSlug string) ([]byte, apperrors.Error) {
	policy, err := loadPolicy(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	rule, err := CompileRule(policy.Rule)
	if err != nil {
		return nil, err
	}

	run := &models.ComplianceRun{
		PolicyID: policy.PolicyID,
		Status:   runRunning,
		Results:  pgtype.JSONB{Status: pgtype.Null},
	}
	if dbErr := db.DB(ctx).CreateComplianceRun(ctx, run); dbErr != nil {
		return nil, dbErr
	}

	records, listErr := assetmanager.ListProductRecords(ctx)
	if listErr != nil {
		run.Status = runFailed
		run.ErrorMessage = "failed to list data products"
		run.FinishedAt = sql.NullTime{Time: time.Now(), Valid: true}
		if dbErr := db.DB(ctx).UpdateComplianceRun(ctx, run); dbErr != nil {
			log.Ctx(ctx).Error().Err(dbErr).Str("run_id", run.RunID.String()).Msg("failed to record failed compliance run")
		}
		return nil, ErrRunFailed.Err(listErr)
	}

	timeout := config.Config().RuleTimeout()
	results := make([]runResult, 0, len(records))
	success := 0
	for _, record := range records {
		passed, message := rule.Eval(ctx, record.Doc, timeout)
		if passed {
			success++
		}
		results = append(results, runResult{
			ObjectType: "data_product",
			ObjectID:   record.ID,
			ObjectName: record.Title,
			Passed:     passed,
			Message:    message,
		})
	}

	// With nothing to evaluate there is nothing out of compliance.
	score := 100.0
	if len(records) > 0 {
		score = float64(success) / float64(len(records)) * 100
	}

	run.Status = runSucceeded
	run.FinishedAt = sql.NullTime{Time: time.Now(), Valid: true}
	run.SuccessCount = success
	run.FailureCount = len(records) - success
	run.Score = score
	run.Results = resultsJSONB(results)
	if dbErr := db.DB(ctx).UpdateComplianceRun(ctx, run); dbErr != nil {
		return nil, dbErr
	}
	if dbErr := db.DB(ctx).UpdatePolicyCompliance(ctx, policy.PolicyID, score); dbErr != nil {
		return nil, dbErr
	}

	log.Ctx(ctx).Info().
		Str("policy", policy.Name).
		Int("evaluated", len(records)).
		Int("failed", run.FailureCount).
		Float64("score", score).
		Msg("compliance run completed")

	doc, errJson := json.Marshal(runDocument(run, true))
	if errJson != nil {
		log.Ctx(ctx).Error().Err(errJson).Msg("failed to marshal compliance run")
		return nil, ErrComplianceError
	}
	return doc, nil
}

// GetRun returns one run with its full per-object results.
func GetRun(ctx context.Context, runID uuid.UUID) ([]byte, apperrors.Error) {
	run, err := db.DB(ctx).GetComplianceRun(ctx, runID)
	if err != nil {
		if err.Is(dberror.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	doc, errJson := json.Marshal(runDocument(run, true))
	if errJson != nil {
		log.Ctx(ctx).Error().Err(errJson).Msg("failed to marshal compliance run")
		return nil, ErrComplianceError
	}
	return doc, nil
}

// ListPolicyRuns returns a policy's recent runs, newest first. Per-object
// results are omitted; fetch a single run for those.
func ListPolicyRuns(ctx context.Context, idOrSlug string, limit int) ([]byte, apperrors.Error) {
	policy, err := loadPolicy(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRunListLimit
	}

	runs, dbErr := db.DB(ctx).ListComplianceRuns(ctx, policy.PolicyID, limit)
	if dbErr != nil {
		return nil, dbErr
	}

	docs := make([]*runReadSchema, 0, len(runs))
	for _, run := range runs {
		docs = append(docs, runDocument(run, false))
	}

	doc, errJson := json.Marshal(docs)
	if errJson != nil {
		log.Ctx(ctx).Error().Err(errJson).Msg("failed to marshal compliance runs")
		return nil, ErrComplianceError
	}
	return doc, nil
}
