package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
)

/*
    Column    |           Type           | Collation | Nullable |      Default
--------------+--------------------------+-----------+----------+--------------------
 domain_id    | uuid                     |           | not null | uuid_generate_v4()
 name         | character varying(128)   |           | not null | unique
 description  | text                     |           |          |
 owner_team_id| uuid                     |           |          | references teams(team_id)
 parent_id    | uuid                     |           |          | references data_domains(domain_id)
 tags         | jsonb                    |           |          |
 created_by   | character varying(256)   |           | not null |
 created_at   | timestamp with time zone |           | not null | now()
 updated_at   | timestamp with time zone |           | not null | now()
*/

// DataDomain model definition
type DataDomain struct {
	DomainID    uuid.UUID     `db:"domain_id"`
	Name        string        `db:"name"`
	Description string        `db:"description"`
	OwnerTeamID uuid.NullUUID `db:"owner_team_id"`
	ParentID    uuid.NullUUID `db:"parent_id"`
	Tags        pgtype.JSONB  `db:"tags"`
	CreatedBy   string        `db:"created_by"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}
