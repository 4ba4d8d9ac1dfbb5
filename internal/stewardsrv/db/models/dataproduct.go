package models

import (
	"time"

	"github.com/jackc/pgtype"
)

/*
     Column      |           Type           | Collation | Nullable |      Default
-----------------+--------------------------+-----------+----------+--------------------
 id              | character varying(128)   |           | not null |
 spec_version    | character varying(16)    |           | not null | '0.0.1'
 version         | character varying(32)    |           | not null | '1.0.0'
 product_type    | character varying(64)    |           |          |
 title           | character varying(256)   |           | not null |
 owner           | character varying(256)   |           |          |
 domain          | character varying(256)   |           |          |
 description     | text                     |           |          |
 status          | character varying(32)    |           |          |
 archetype       | character varying(64)    |           |          |
 maturity        | character varying(32)    |           |          |
 tags            | jsonb                    |           |          |
 links           | jsonb                    |           |          |
 custom          | jsonb                    |           |          |
 created_at      | timestamp with time zone |           | not null | now()
 updated_at      | timestamp with time zone |           | not null | now()
*/

// DataProduct model definition. The ID is taken from the product document
// when one is supplied and generated otherwise, so it is a string rather
// than a native uuid column.
type DataProduct struct {
	ID          string       `db:"id"`
	SpecVersion string       `db:"spec_version"`
	Version     string       `db:"version"`
	ProductType string       `db:"product_type"`
	Title       string       `db:"title"`
	Owner       string       `db:"owner"`
	Domain      string       `db:"domain"`
	Description string       `db:"description"`
	Status      string       `db:"status"`
	Archetype   string       `db:"archetype"`
	Maturity    string       `db:"maturity"`
	Tags        pgtype.JSONB `db:"tags"`
	Links       pgtype.JSONB `db:"links"`
	Custom      pgtype.JSONB `db:"custom"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`

	InputPorts  []InputPort  `db:"-"`
	OutputPorts []OutputPort `db:"-"`
}

/*
        Column        |          Type          | Collation | Nullable |      Default
----------------------+------------------------+-----------+----------+--------------------
 port_id              | character varying(128) |           | not null |
 data_product_id      | character varying(128) |           | not null | references data_products(id) on delete cascade
 name                 | character varying(256) |           | not null |
 description          | text                   |           |          |
 port_type            | character varying(64)  |           |          |
 asset_type           | character varying(64)  |           |          |
 asset_identifier     | character varying(512) |           |          |
 location             | character varying(512) |           |          |
 source_system_id     | character varying(256) |           | not null |
 source_output_port_id| character varying(128) |           |          |
 links                | jsonb                  |           |          |
 custom               | jsonb                  |           |          |
 tags                 | jsonb                  |           |          |

 primary key (data_product_id, port_id)
*/

// InputPort model definition. Port IDs come from the product document and
// are generated when the document omits them.
type InputPort struct {
	PortID             string       `db:"port_id"`
	DataProductID      string       `db:"data_product_id"`
	Name               string       `db:"name"`
	Description        string       `db:"description"`
	PortType           string       `db:"port_type"`
	AssetType          string       `db:"asset_type"`
	AssetIdentifier    string       `db:"asset_identifier"`
	Location           string       `db:"location"`
	SourceSystemID     string       `db:"source_system_id"`
	SourceOutputPortID string       `db:"source_output_port_id"`
	Links              pgtype.JSONB `db:"links"`
	Custom             pgtype.JSONB `db:"custom"`
	Tags               pgtype.JSONB `db:"tags"`
}

/*
      Column      |          Type          | Collation | Nullable |      Default
------------------+------------------------+-----------+----------+--------------------
 port_id          | character varying(128) |           | not null |
 data_product_id  | character varying(128) |           | not null | references data_products(id) on delete cascade
 name             | character varying(256) |           | not null |
 description      | text                   |           |          |
 port_type        | character varying(64)  |           |          |
 asset_type       | character varying(64)  |           |          |
 asset_identifier | character varying(512) |           |          |
 location         | character varying(512) |           |          |
 status           | character varying(32)  |           |          |
 server           | jsonb                  |           |          |
 contains_pii     | boolean                |           | not null | false
 auto_approve     | boolean                |           | not null | false
 data_contract_id | character varying(128) |           |          |
 links            | jsonb                  |           |          |
 custom           | jsonb                  |           |          |
 tags             | jsonb                  |           |          |

 primary key (data_product_id, port_id)
*/

// OutputPort model definition
type OutputPort struct {
	PortID          string       `db:"port_id"`
	DataProductID   string       `db:"data_product_id"`
	Name            string       `db:"name"`
	Description     string       `db:"description"`
	PortType        string       `db:"port_type"`
	AssetType       string       `db:"asset_type"`
	AssetIdentifier string       `db:"asset_identifier"`
	Location        string       `db:"location"`
	Status          string       `db:"status"`
	Server          pgtype.JSONB `db:"server"`
	ContainsPII     bool         `db:"contains_pii"`
	AutoApprove     bool         `db:"auto_approve"`
	DataContractID  string       `db:"data_contract_id"`
	Links           pgtype.JSONB `db:"links"`
	Custom          pgtype.JSONB `db:"custom"`
	Tags            pgtype.JSONB `db:"tags"`
}
