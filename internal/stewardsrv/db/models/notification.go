package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/stewarddata/steward-internal/pkg/types"
)

/*
     Column      |           Type           | Collation | Nullable |      Default
-----------------+--------------------------+-----------+----------+--------------------
 notification_id | uuid                     |           | not null | uuid_generate_v4()
 type            | character varying(32)    |           | not null |
 title           | character varying(256)   |           | not null |
 subtitle        | character varying(256)   |           |          |
 description     | text                     |           |          |
 link            | character varying(512)   |           |          |
 recipient       | character varying(256)   |           |          |
 read            | boolean                  |           | not null | false
 can_delete      | boolean                  |           | not null | true
 action_type     | character varying(64)    |           |          |
 action_payload  | jsonb                    |           |          |
 created_at      | timestamp with time zone |           | not null | now()
*/

// Notification model definition
type Notification struct {
	NotificationID uuid.UUID              `db:"notification_id"`
	Type           types.NotificationType `db:"type"`
	Title          string                 `db:"title"`
	Subtitle       string                 `db:"subtitle"`
	Description    string                 `db:"description"`
	Link           string                 `db:"link"`
	Recipient      string                 `db:"recipient"`
	Read           bool                   `db:"read"`
	CanDelete      bool                   `db:"can_delete"`
	ActionType     string                 `db:"action_type"`
	ActionPayload  pgtype.JSONB           `db:"action_payload"`
	CreatedAt      time.Time              `db:"created_at"`
}
