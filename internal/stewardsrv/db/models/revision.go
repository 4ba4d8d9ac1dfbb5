package models

import "time"

/*
     Column      |           Type           | Collation | Nullable |      Default
-----------------+--------------------------+-----------+----------+--------------------
 data_product_id | character varying(128)   |           | not null | references data_products(id) on delete cascade
 sequence        | integer                  |           | not null |
 data            | bytea                    |           | not null |
 created_by      | character varying(256)   |           | not null |
 created_at      | timestamp with time zone |           | not null | now()
*/

// ProductRevision model definition. Data holds the canonical JSON document
// of the product at the time of the revision, snappy compressed at rest
// when compression is enabled.
type ProductRevision struct {
	DataProductID string    `db:"data_product_id"`
	Sequence      int       `db:"sequence"`
	Data          []byte    `db:"data"`
	CreatedBy     string    `db:"created_by"`
	CreatedAt     time.Time `db:"created_at"`
}
