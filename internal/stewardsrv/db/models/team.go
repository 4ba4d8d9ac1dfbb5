package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
)

/*
   Column    |           Type           | Collation | Nullable |      Default
-------------+--------------------------+-----------+----------+--------------------
 team_id     | uuid                     |           | not null | uuid_generate_v4()
 name        | character varying(128)   |           | not null | unique
 title       | character varying(256)   |           |          |
 description | text                     |           |          |
 domain_id   | uuid                     |           |          | references data_domains(domain_id)
 members     | jsonb                    |           |          |
 tags        | jsonb                    |           |          |
 metadata    | jsonb                    |           |          |
 created_by  | character varying(256)   |           | not null |
 updated_by  | character varying(256)   |           | not null |
 created_at  | timestamp with time zone |           | not null | now()
 updated_at  | timestamp with time zone |           | not null | now()
*/

// Team model definition. Members is a jsonb array of
// {member_type, member_identifier, app_role_override} objects.
type Team struct {
	TeamID      uuid.UUID     `db:"team_id"`
	Name        string        `db:"name"`
	Title       string        `db:"title"`
	Description string        `db:"description"`
	DomainID    uuid.NullUUID `db:"domain_id"`
	Members     pgtype.JSONB  `db:"members"`
	Tags        pgtype.JSONB  `db:"tags"`
	Metadata    pgtype.JSONB  `db:"metadata"`
	CreatedBy   string        `db:"created_by"`
	UpdatedBy   string        `db:"updated_by"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}
