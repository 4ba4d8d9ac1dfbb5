package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/stewarddata/steward-internal/pkg/types"
)

/*
   Column    |           Type           | Collation | Nullable |      Default
-------------+--------------------------+-----------+----------+--------------------
 policy_id   | uuid                     |           | not null | uuid_generate_v4()
 name        | character varying(256)   |           | not null |
 slug        | character varying(128)   |           |          | unique where slug <> ''
 description | text                     |           |          |
 rule        | text                     |           | not null |
 category    | character varying(64)    |           |          |
 severity    | character varying(32)    |           |          |
 is_active   | boolean                  |           | not null | true
 compliance  | double precision         |           | not null | 0
 created_at  | timestamp with time zone |           | not null | now()
 updated_at  | timestamp with time zone |           | not null | now()
*/

// CompliancePolicy model definition. Rule holds a JS predicate evaluated
// over each data product document; compliance is the pass percentage from
// the most recent run.
type CompliancePolicy struct {
	PolicyID    uuid.UUID            `db:"policy_id"`
	Name        string               `db:"name"`
	Slug        string               `db:"slug"`
	Description string               `db:"description"`
	Rule        string               `db:"rule"`
	Category    string               `db:"category"`
	Severity    types.PolicySeverity `db:"severity"`
	IsActive    bool                 `db:"is_active"`
	Compliance  float64              `db:"compliance"`
	CreatedAt   time.Time            `db:"created_at"`
	UpdatedAt   time.Time            `db:"updated_at"`
}

/*
    Column     |           Type           | Collation | Nullable |      Default
---------------+--------------------------+-----------+----------+--------------------
 run_id        | uuid                     |           | not null | uuid_generate_v4()
 policy_id     | uuid                     |           | not null | references compliance_policies(policy_id) on delete cascade
 status        | character varying(32)    |           | not null | 'queued'
 started_at    | timestamp with time zone |           | not null | now()
 finished_at   | timestamp with time zone |           |          |
 success_count | integer                  |           | not null | 0
 failure_count | integer                  |           | not null | 0
 score         | double precision         |           | not null | 0
 error_message | text                     |           |          |
 results       | jsonb                    |           |          |
*/

// ComplianceRun model definition. Results is a jsonb array of
// {object_type, object_id, object_name, passed, message} objects.
type ComplianceRun struct {
	RunID        uuid.UUID    `db:"run_id"`
	PolicyID     uuid.UUID    `db:"policy_id"`
	Status       string       `db:"status"`
	StartedAt    time.Time    `db:"started_at"`
	FinishedAt   sql.NullTime `db:"finished_at"`
	SuccessCount int          `db:"success_count"`
	FailureCount int          `db:"failure_count"`
	Score        float64      `db:"score"`
	ErrorMessage string       `db:"error_message"`
	Results      pgtype.JSONB `db:"results"`
}
