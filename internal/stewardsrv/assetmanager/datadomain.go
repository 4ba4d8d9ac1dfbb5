package assetmanager

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	json "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	schemaerr "github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager/schema/errors"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager/schema/schemavalidator"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager/schemamanager"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/dberror"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/models"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/stewcommon"
	"github.com/tidwall/gjson"
)

// domainSchema is the wire form of a data domain create request.
type domainSchema struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description,omitempty"`
	OwnerTeamID *uuid.UUID `json:"owner_team_id,omitempty"`
	Tags        []string   `json:"tags,omitempty" validate:"omitempty,dive,notBlank"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
}

// domainUpdateSchema carries a partial update. Absent fields keep their
// stored values; parent_id and owner_team_id may be set to JSON null to
// clear the association.
type domainUpdateSchema struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	OwnerTeamID *uuid.UUID  `json:"owner_team_id,omitempty"`
	Tags        *[]string   `json:"tags,omitempty"`
	ParentID    *uuid.UUID  `json:"parent_id,omitempty"`
}

// domainBasicInfo is the id and name pair embedded in hierarchy summaries.
type domainBasicInfo struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// domainReadSchema is the read form of a data domain. Parent and children
// summaries are computed at read time, never stored.
type domainReadSchema struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	OwnerTeamID   *uuid.UUID        `json:"owner_team_id,omitempty"`
	Tags          []string          `json:"tags"`
	ParentID      *uuid.UUID        `json:"parent_id,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	CreatedBy     string            `json:"created_by"`
	ParentName    string            `json:"parent_name,omitempty"`
	ChildrenCount int               `json:"children_count"`
	ParentInfo    *domainBasicInfo  `json:"parent_info,omitempty"`
	ChildrenInfo  []domainBasicInfo `json:"children_info"`
}

func (ds *domainSchema) Validate() schemaerr.ValidationErrors {
	var validationErrors schemaerr.ValidationErrors

	err := schemavalidator.V().Struct(ds)
	if err == nil {
		return validationErrors
	}

	validatorErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return append(validationErrors, schemaerr.ErrInvalidSchema)
	}

	value := reflect.ValueOf(ds).Elem()
	typeOfSchema := value.Type()

	for _, e := range validatorErrors {
		jsonFieldName := schemavalidator.GetJSONFieldPath(value, typeOfSchema, e.StructField())

		switch e.Tag() {
		case "required":
			validationErrors = append(validationErrors, schemaerr.ErrMissingRequiredAttribute(jsonFieldName))
		case "notBlank":
			val, _ := e.Value().(string)
			validationErrors = append(validationErrors, schemaerr.ErrInvalidValue(jsonFieldName, val))
		default:
			validationErrors = append(validationErrors, schemaerr.ErrValidationFailed(jsonFieldName))
		}
	}

	return validationErrors
}

// decodeTagList decodes a stored tag list, tolerating legacy rows where the
// list was persisted as a stringified Python-style literal such as
// "['a', 'b']". Single quotes are swapped for double quotes and the result
// JSON-decoded; anything unparsable yields an empty list with a logged
// warning rather than a read failure.
func decodeTagList(ctx context.Context, j pgtype.JSONB) []string {
	if j.Status != pgtype.Present || len(j.Bytes) == 0 || string(j.Bytes) == "null" {
		return []string{}
	}

	var tags []string
	if err := json.Unmarshal(j.Bytes, &tags); err == nil {
		if tags == nil {
			tags = []string{}
		}
		return tags
	}

	var literal string
	if err := json.Unmarshal(j.Bytes, &literal); err == nil {
		normalized := strings.ReplaceAll(literal, "'", `"`)
		if err := json.Unmarshal([]byte(normalized), &tags); err == nil && tags != nil {
			return tags
		}
		log.Ctx(ctx).Warn().Str("value", literal).Msg("could not parse stored tag list, returning empty list")
		return []string{}
	}

	log.Ctx(ctx).Warn().Str("value", string(j.Bytes)).Msg("unexpected type for stored tag list, returning empty list")
	return []string{}
}

func (ds *domainSchema) toModel() *models.DataDomain {
	tags := ds.Tags
	if tags == nil {
		tags = []string{}
	}
	domain := &models.DataDomain{
		Name:        ds.Name,
		Description: ds.Description,
		Tags:        jsonbFrom(tags),
	}
	if ds.OwnerTeamID != nil {
		domain.OwnerTeamID = uuid.NullUUID{UUID: *ds.OwnerTeamID, Valid: true}
	}
	if ds.ParentID != nil {
		domain.ParentID = uuid.NullUUID{UUID: *ds.ParentID, Valid: true}
	}
	return domain
}

func domainSchemaFromModel(ctx context.Context, m *models.DataDomain) *domainSchema {
	schema := &domainSchema{
		Name:        m.Name,
		Description: m.Description,
		Tags:        decodeTagList(ctx, m.Tags),
	}
	if m.OwnerTeamID.Valid {
		id := m.OwnerTeamID.UUID
		schema.OwnerTeamID = &id
	}
	if m.ParentID.Valid {
		id := m.ParentID.UUID
		schema.ParentID = &id
	}
	return schema
}

// domainDocument builds the read form from a stored domain and its already
// resolved hierarchy context.
func domainDocument(ctx context.Context, m *models.DataDomain, parent *models.DataDomain, children []*models.DataDomain) *domainReadSchema {
	doc := &domainReadSchema{
		ID:           m.DomainID,
		Name:         m.Name,
		Description:  m.Description,
		Tags:         decodeTagList(ctx, m.Tags),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		CreatedBy:    m.CreatedBy,
		ChildrenInfo: []domainBasicInfo{},
	}
	if m.OwnerTeamID.Valid {
		id := m.OwnerTeamID.UUID
		doc.OwnerTeamID = &id
	}
	if m.ParentID.Valid {
		id := m.ParentID.UUID
		doc.ParentID = &id
	}
	if parent != nil {
		doc.ParentName = parent.Name
		doc.ParentInfo = &domainBasicInfo{ID: parent.DomainID, Name: parent.Name}
	}
	for _, child := range children {
		doc.ChildrenInfo = append(doc.ChildrenInfo, domainBasicInfo{ID: child.DomainID, Name: child.Name})
	}
	doc.ChildrenCount = len(doc.ChildrenInfo)
	return doc
}

// loadDomainDocument builds the read form for one domain, fetching its
// parent and direct children.
func loadDomainDocument(ctx context.Context, m *models.DataDomain) (*domainReadSchema, apperrors.Error) {
	var parent *models.DataDomain
	if m.ParentID.Valid {
		p, err := db.DB(ctx).GetDataDomain(ctx, m.ParentID.UUID, "")
		if err != nil {
			if !err.Is(dberror.ErrNotFound) {
				return nil, err
			}
			log.Ctx(ctx).Warn().Str("parent_id", m.ParentID.UUID.String()).Msg("parent domain missing, omitting parent info")
		} else {
			parent = p
		}
	}
	children, err := db.DB(ctx).ListChildDomains(ctx, m.DomainID)
	if err != nil {
		return nil, err
	}
	return domainDocument(ctx, m, parent, children), nil
}

// dataDomainManager manages a single data domain
type dataDomainManager struct {
	domain models.DataDomain
}

func (dm *dataDomainManager) ID() uuid.UUID {
	return dm.domain.DomainID
}

func (dm *dataDomainManager) Name() string {
	return dm.domain.Name
}

func (dm *dataDomainManager) Save(ctx context.Context) apperrors.Error {
	err := db.DB(ctx).CreateDataDomain(ctx, &dm.domain)
	if err != nil {
		if err.Is(dberror.ErrAlreadyExists) {
			return ErrAlreadyExists.Msg("Data domain with name '" + dm.domain.Name + "' already exists.")
		}
		return err
	}
	log.Ctx(ctx).Info().Str("name", dm.domain.Name).Str("domain_id", dm.domain.DomainID.String()).Msg("created data domain")
	return nil
}

func (dm *dataDomainManager) ToJson(ctx context.Context) ([]byte, apperrors.Error) {
	doc, err := loadDomainDocument(ctx, &dm.domain)
	if err != nil {
		return nil, err
	}
	jsonData, errJson := json.Marshal(doc)
	if errJson != nil {
		log.Ctx(ctx).Error().Err(errJson).Msg("failed to marshal data domain to JSON")
		return nil, ErrUnableToLoadObject
	}
	return jsonData, nil
}

// NewDataDomainManager creates a data domain manager from a JSON document.
func NewDataDomainManager(ctx context.Context, resourceJSON []byte) (schemamanager.DataDomainManager, apperrors.Error) {
	if len(resourceJSON) == 0 {
		return nil, ErrInvalidSchema
	}

	schema := &domainSchema{}
	if err := json.Unmarshal(resourceJSON, schema); err != nil {
		return nil, ErrInvalidSchema.Err(err)
	}

	validationErrors := schema.Validate()
	if validationErrors != nil {
		return nil, ErrInvalidSchema.Err(validationErrors)
	}

	domain := schema.toModel()
	domain.CreatedBy = stewcommon.UserContextFromContext(ctx).DisplayName()

	return &dataDomainManager{domain: *domain}, nil
}

// LoadDataDomainManager loads an existing data domain by id or name.
func LoadDataDomainManager(ctx context.Context, id uuid.UUID, name string) (schemamanager.DataDomainManager, apperrors.Error) {
	domain, err := db.DB(ctx).GetDataDomain(ctx, id, name)
	if err != nil {
		if err.Is(dberror.ErrNotFound) {
			return nil, ErrDomainNotFound
		}
		return nil, err
	}
	return &dataDomainManager{domain: *domain}, nil
}

// dataDomainResource implements the KindHandler interface for data domains
type dataDomainResource struct {
	requestContext RequestContext
	manager        schemamanager.DataDomainManager
}

func (dr *dataDomainResource) Location() string {
	id := dr.requestContext.ObjectID
	if dr.manager != nil {
		id = dr.manager.ID()
	}
	return "/data-domains/" + id.String()
}

func (dr *dataDomainResource) Create(ctx context.Context, resourceJSON []byte) (string, apperrors.Error) {
	manager, err := NewDataDomainManager(ctx, resourceJSON)
	if err != nil {
		return "", err
	}

	if err := manager.Save(ctx); err != nil {
		return "", err
	}

	dr.manager = manager
	dr.requestContext.ObjectID = manager.ID()
	return dr.Location(), nil
}

func (dr *dataDomainResource) Get(ctx context.Context) ([]byte, apperrors.Error) {
	manager, err := LoadDataDomainManager(ctx, dr.requestContext.ObjectID, dr.requestContext.ObjectName)
	if err != nil {
		return nil, err
	}
	return manager.ToJson(ctx)
}

// List returns all domains with their hierarchy context. The parent and
// children summaries are resolved from the listing itself rather than one
// query per domain.
func (dr *dataDomainResource) List(ctx context.Context) ([]byte, apperrors.Error) {
	domains, err := db.DB(ctx).ListDataDomains(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list data domains")
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.DataDomain, len(domains))
	childrenOf := make(map[uuid.UUID][]*models.DataDomain)
	for _, d := range domains {
		byID[d.DomainID] = d
	}
	for _, d := range domains {
		if d.ParentID.Valid {
			childrenOf[d.ParentID.UUID] = append(childrenOf[d.ParentID.UUID], d)
		}
	}

	docs := make([]*domainReadSchema, 0, len(domains))
	for _, d := range domains {
		var parent *models.DataDomain
		if d.ParentID.Valid {
			parent = byID[d.ParentID.UUID]
		}
		docs = append(docs, domainDocument(ctx, d, parent, childrenOf[d.DomainID]))
	}

	jsonData, errJson := json.Marshal(docs)
	if errJson != nil {
		log.Ctx(ctx).Error().Err(errJson).Msg("failed to marshal data domains to JSON")
		return nil, ErrUnableToLoadObject
	}
	return jsonData, nil
}

// Update applies a partial update to an existing domain. The stored state
// is loaded, the supplied fields overlaid, and the merged form validated
// before writing.
func (dr *dataDomainResource) Update(ctx context.Context, resourceJSON []byte) apperrors.Error {
	existing, dbErr := db.DB(ctx).GetDataDomain(ctx, dr.requestContext.ObjectID, dr.requestContext.ObjectName)
	if dbErr != nil {
		if dbErr.Is(dberror.ErrNotFound) {
			return ErrDomainNotFound
		}
		return dbErr
	}

	update := &domainUpdateSchema{}
	if err := json.Unmarshal(resourceJSON, update); err != nil {
		return ErrInvalidSchema.Err(err)
	}

	merged := domainSchemaFromModel(ctx, existing)
	if update.Name != nil {
		merged.Name = *update.Name
	}
	if update.Description != nil {
		merged.Description = *update.Description
	}
	if update.Tags != nil {
		merged.Tags = *update.Tags
	}
	if update.OwnerTeamID != nil {
		merged.OwnerTeamID = update.OwnerTeamID
	} else if jsonFieldIsNull(resourceJSON, "owner_team_id") {
		merged.OwnerTeamID = nil
	}
	if update.ParentID != nil {
		merged.ParentID = update.ParentID
	} else if jsonFieldIsNull(resourceJSON, "parent_id") {
		merged.ParentID = nil
	}

	validationErrors := merged.Validate()
	if validationErrors != nil {
		return ErrInvalidSchema.Err(validationErrors)
	}

	if merged.Name != existing.Name {
		if other, err := db.DB(ctx).GetDataDomain(ctx, uuid.Nil, merged.Name); err == nil && other.DomainID != existing.DomainID {
			return ErrAlreadyExists.Msg("Data domain name '" + merged.Name + "' is already in use by another domain.")
		}
	}
	if merged.ParentID != nil && (!existing.ParentID.Valid || *merged.ParentID != existing.ParentID.UUID) {
		if _, err := db.DB(ctx).GetDataDomain(ctx, *merged.ParentID, ""); err != nil {
			if err.Is(dberror.ErrNotFound) {
				return ErrInvalidRequest.Msg("parent domain does not exist")
			}
			return err
		}
	}

	domain := merged.toModel()
	domain.DomainID = existing.DomainID
	domain.CreatedBy = existing.CreatedBy
	domain.CreatedAt = existing.CreatedAt

	if err := db.DB(ctx).UpdateDataDomain(ctx, domain); err != nil {
		if err.Is(dberror.ErrNotFound) {
			return ErrDomainNotFound
		}
		return err
	}

	log.Ctx(ctx).Info().Str("name", domain.Name).Str("domain_id", domain.DomainID.String()).Msg("updated data domain")
	dr.manager = &dataDomainManager{domain: *domain}
	// The name in the request path may no longer match after a rename.
	dr.requestContext.ObjectID = domain.DomainID
	dr.requestContext.ObjectName = ""
	return nil
}

func (dr *dataDomainResource) Delete(ctx context.Context) apperrors.Error {
	domainID := dr.requestContext.ObjectID
	if domainID == uuid.Nil {
		existing, dbErr := db.DB(ctx).GetDataDomain(ctx, uuid.Nil, dr.requestContext.ObjectName)
		if dbErr != nil {
			if dbErr.Is(dberror.ErrNotFound) {
				return ErrDomainNotFound
			}
			return dbErr
		}
		domainID = existing.DomainID
	}
	err := db.DB(ctx).DeleteDataDomain(ctx, domainID)
	if err != nil {
		if err.Is(dberror.ErrNotFound) {
			return ErrDomainNotFound
		}
		if err.Is(dberror.ErrHasChildren) {
			return ErrHasChildDomains.Msg("Cannot delete domain with child domains. Delete or reassign the children first.")
		}
		return err
	}
	log.Ctx(ctx).Info().Str("domain_id", domainID.String()).Msg("deleted data domain")
	return nil
}

func jsonFieldIsNull(resourceJSON []byte, field string) bool {
	r := gjson.GetBytes(resourceJSON, field)
	return r.Exists() && r.Type == gjson.Null
}

// NewDataDomainHandler creates a KindHandler for data domains
func NewDataDomainHandler(ctx context.Context, requestContext RequestContext) (schemamanager.KindHandler, apperrors.Error) {
	return &dataDomainResource{
		requestContext: requestContext,
	}, nil
}
