package assetmanager

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgtype"
	json "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	"github.com/stewarddata/steward-internal/internal/common/uuid7"
	schemaerr "github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager/schema/errors"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager/schema/schemavalidator"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager/schemamanager"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/dberror"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/models"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/stewcommon"
	"github.com/stewarddata/steward-internal/pkg/types"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const defaultProductVersion = "1.0.0"

// productSchema is the data product document accepted and served by the API.
// Field names follow the data product specification, so multi-word names are
// camel cased on the wire.
type productSchema struct {
	DataProductSpecification string             `json:"dataProductSpecification" validate:"required,requireSpecVersion"`
	ID                       string             `json:"id" validate:"required,noSpaces"`
	Version                  string             `json:"version"`
	ProductType              string             `json:"productType,omitempty"`
	Info                     productInfo        `json:"info"`
	InputPorts               []inputPortSchema  `json:"inputPorts" validate:"dive"`
	OutputPorts              []outputPortSchema `json:"outputPorts" validate:"dive"`
	Links                    map[string]string  `json:"links"`
	Custom                   map[string]any     `json:"custom"`
	Tags                     []string           `json:"tags"`
	CreatedAt                *time.Time         `json:"created_at,omitempty"`
	UpdatedAt                *time.Time         `json:"updated_at,omitempty"`
}

// productInfo describes ownership and lifecycle of a data product. Status is
// deliberately free form; the UI offers the values already in use.
type productInfo struct {
	Title       string `json:"title" validate:"required"`
	Owner       string `json:"owner" validate:"required"`
	Domain      string `json:"domain,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Archetype   string `json:"archetype,omitempty"`
	Maturity    string `json:"maturity,omitempty"`
}

// portSchema carries the attributes common to input and output ports. The
// port ID is a technical identifier chosen by the document author, e.g.
// "kafka_search_topic".
type portSchema struct {
	ID              string            `json:"id" validate:"required"`
	Name            string            `json:"name" validate:"required"`
	Description     string            `json:"description,omitempty"`
	Type            string            `json:"type,omitempty"`
	AssetType       string            `json:"assetType,omitempty" validate:"omitempty,assetTypeValidator"`
	AssetIdentifier string            `json:"assetIdentifier,omitempty"`
	Location        string            `json:"location,omitempty"`
	Links           map[string]string `json:"links"`
	Custom          map[string]any    `json:"custom"`
	Tags            []string          `json:"tags"`
}

type inputPortSchema struct {
	portSchema
	SourceSystemID     string `json:"sourceSystemId" validate:"required"`
	SourceOutputPortID string `json:"sourceOutputPortId,omitempty"`
}

type outputPortSchema struct {
	portSchema
	Status         string         `json:"status,omitempty"`
	Server         map[string]any `json:"server,omitempty"`
	ContainsPII    bool           `json:"containsPii"`
	AutoApprove    bool           `json:"autoApprove"`
	DataContractID string         `json:"dataContractId,omitempty"`
}

// dataProductManager implements the schemamanager.DataProductManager interface
type dataProductManager struct {
	product models.DataProduct
}

var _ schemamanager.DataProductManager = (*dataProductManager)(nil)

// Validate performs validation on the data product document
func (ps *productSchema) Validate() schemaerr.ValidationErrors {
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
		case "requireSpecVersion":
			validationErrors = append(validationErrors, schemaerr.ErrInvalidVersion(jsonFieldName))
		case "assetTypeValidator":
			val, _ := e.Value().(string)
			validationErrors = append(validationErrors, schemaerr.ErrInvalidValue(jsonFieldName, val))
		default:
			validationErrors = append(validationErrors, schemaerr.ErrValidationFailed(jsonFieldName))
		}
	}

	return validationErrors
}

// applyDefaults fills the specification defaults so stored documents round
// trip with empty collections rather than nulls.
func (ps *productSchema) applyDefaults() {
	if ps.DataProductSpecification == "" {
		ps.DataProductSpecification = types.SpecVersion
	}
	if ps.Version == "" {
		ps.Version = defaultProductVersion
	}
	if ps.Links == nil {
		ps.Links = map[string]string{}
	}
	if ps.Custom == nil {
		ps.Custom = map[string]any{}
	}
	if ps.Tags == nil {
		ps.Tags = []string{}
	}
	for i := range ps.InputPorts {
		ps.InputPorts[i].applyDefaults()
	}
	for i := range ps.OutputPorts {
		ps.OutputPorts[i].applyDefaults()
	}
}

func (p *portSchema) applyDefaults() {
	if p.Links == nil {
		p.Links = map[string]string{}
	}
	if p.Custom == nil {
		p.Custom = map[string]any{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}

func jsonbFrom(v any) pgtype.JSONB {
	j := pgtype.JSONB{}
	if err := j.Set(v); err != nil {
		j = pgtype.JSONB{Status: pgtype.Null}
	}
	return j
}

func unmarshalJSONB(j pgtype.JSONB, out any) {
	if j.Status != pgtype.Present || len(j.Bytes) == 0 || string(j.Bytes) == "null" {
		return
	}
	_ = json.Unmarshal(j.Bytes, out)
}

// toModel converts the document to its storage model
func (ps *productSchema) toModel() *models.DataProduct {
	product := &models.DataProduct{
		ID:          ps.ID,
		SpecVersion: ps.DataProductSpecification,
		Version:     ps.Version,
		ProductType: ps.ProductType,
		Title:       ps.Info.Title,
		Owner:       ps.Info.Owner,
		Domain:      ps.Info.Domain,
		Description: ps.Info.Description,
		Status:      ps.Info.Status,
		Archetype:   ps.Info.Archetype,
		Maturity:    ps.Info.Maturity,
		Tags:        jsonbFrom(ps.Tags),
		Links:       jsonbFrom(ps.Links),
		Custom:      jsonbFrom(ps.Custom),
	}

	for i := range ps.InputPorts {
		in := &ps.InputPorts[i]
		product.InputPorts = append(product.InputPorts, models.InputPort{
			PortID:             in.ID,
			Name:               in.Name,
			Description:        in.Description,
			PortType:           in.Type,
			AssetType:          in.AssetType,
			AssetIdentifier:    in.AssetIdentifier,
			Location:           in.Location,
			SourceSystemID:     in.SourceSystemID,
			SourceOutputPortID: in.SourceOutputPortID,
			Links:              jsonbFrom(in.Links),
			Custom:             jsonbFrom(in.Custom),
			Tags:               jsonbFrom(in.Tags),
		})
	}

	for i := range ps.OutputPorts {
		out := &ps.OutputPorts[i]
		server := pgtype.JSONB{Status: pgtype.Null}
		if out.Server != nil {
			server = jsonbFrom(out.Server)
		}
		product.OutputPorts = append(product.OutputPorts, models.OutputPort{
			PortID:          out.ID,
			Name:            out.Name,
			Description:     out.Description,
			PortType:        out.Type,
			AssetType:       out.AssetType,
			AssetIdentifier: out.AssetIdentifier,
			Location:        out.Location,
			Status:          out.Status,
			Server:          server,
			ContainsPII:     out.ContainsPII,
			AutoApprove:     out.AutoApprove,
			DataContractID:  out.DataContractID,
			Links:           jsonbFrom(out.Links),
			Custom:          jsonbFrom(out.Custom),
			Tags:            jsonbFrom(out.Tags),
		})
	}

	return product
}

// productDocument converts a storage model back to the document form.
func productDocument(product *models.DataProduct, includeTimestamps bool) *productSchema {
	ps := &productSchema{
		DataProductSpecification: product.SpecVersion,
		ID:                       product.ID,
		Version:                  product.Version,
		ProductType:              product.ProductType,
		Info: productInfo{
			Title:       product.Title,
			Owner:       product.Owner,
			Domain:      product.Domain,
			Description: product.Description,
			Status:      product.Status,
			Archetype:   product.Archetype,
			Maturity:    product.Maturity,
		},
		InputPorts:  []inputPortSchema{},
		OutputPorts: []outputPortSchema{},
	}
	unmarshalJSONB(product.Tags, &ps.Tags)
	unmarshalJSONB(product.Links, &ps.Links)
	unmarshalJSONB(product.Custom, &ps.Custom)

	for i := range product.InputPorts {
		ps.InputPorts = append(ps.InputPorts, inputPortDocument(&product.InputPorts[i]))
	}
	for i := range product.OutputPorts {
		ps.OutputPorts = append(ps.OutputPorts, outputPortDocument(&product.OutputPorts[i]))
	}
	ps.applyDefaults()

	if includeTimestamps {
		createdAt := product.CreatedAt
		updatedAt := product.UpdatedAt
		ps.CreatedAt = &createdAt
		ps.UpdatedAt = &updatedAt
	}
	return ps
}

func inputPortDocument(p *models.InputPort) inputPortSchema {
	in := inputPortSchema{
		portSchema: portSchema{
			ID:              p.PortID,
			Name:            p.Name,
			Description:     p.Description,
			Type:            p.PortType,
			AssetType:       p.AssetType,
			AssetIdentifier: p.AssetIdentifier,
			Location:        p.Location,
		},
		SourceSystemID:     p.SourceSystemID,
		SourceOutputPortID: p.SourceOutputPortID,
	}
	unmarshalJSONB(p.Links, &in.Links)
	unmarshalJSONB(p.Custom, &in.Custom)
	unmarshalJSONB(p.Tags, &in.Tags)
	return in
}

func outputPortDocument(p *models.OutputPort) outputPortSchema {
	out := outputPortSchema{
		portSchema: portSchema{
			ID:              p.PortID,
			Name:            p.Name,
			Description:     p.Description,
			Type:            p.PortType,
			AssetType:       p.AssetType,
			AssetIdentifier: p.AssetIdentifier,
			Location:        p.Location,
		},
		Status:         p.Status,
		ContainsPII:    p.ContainsPII,
		AutoApprove:    p.AutoApprove,
		DataContractID: p.DataContractID,
	}
	unmarshalJSONB(p.Server, &out.Server)
	unmarshalJSONB(p.Links, &out.Links)
	unmarshalJSONB(p.Custom, &out.Custom)
	unmarshalJSONB(p.Tags, &out.Tags)
	return out
}

// NewDataProductManager creates a new data product manager from JSON input.
// A missing ID is generated before validation so documents without one are
// still accepted.
func NewDataProductManager(ctx context.Context, resourceJSON []byte) (schemamanager.DataProductManager, apperrors.Error) {
	if len(resourceJSON) == 0 {
		return nil, ErrInvalidSchema
	}

	schema := &productSchema{}
	if err := json.Unmarshal(resourceJSON, schema); err != nil {
		return nil, ErrInvalidSchema.Err(err)
	}

	if schema.ID == "" {
		schema.ID = uuid7.New().String()
		log.Ctx(ctx).Info().Str("id", schema.ID).Msg("generated ID for new data product")
	}
	schema.applyDefaults()

	validationErrors := schema.Validate()
	if validationErrors != nil {
		return nil, ErrInvalidSchema.Err(validationErrors)
	}

	return &dataProductManager{
		product: *schema.toModel(),
	}, nil
}

// LoadDataProductManager loads a data product manager by the product's ID
func LoadDataProductManager(ctx context.Context, id string) (schemamanager.DataProductManager, apperrors.Error) {
	product, err := db.DB(ctx).GetDataProduct(ctx, id)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		log.Ctx(ctx).Error().Err(err).Str("id", id).Msg("failed to load data product")
		return nil, err
	}
	return &dataProductManager{
		product: *product,
	}, nil
}

// ID returns the product's document identifier
func (pm *dataProductManager) ID() string {
	return pm.product.ID
}

// Title returns the product's display title
func (pm *dataProductManager) Title() string {
	return pm.product.Title
}

// Save persists the data product and records its first revision
func (pm *dataProductManager) Save(ctx context.Context) apperrors.Error {
	err := db.DB(ctx).CreateDataProduct(ctx, &pm.product)
	if err != nil {
		if errors.Is(err, dberror.ErrAlreadyExists) {
			return ErrAlreadyExists.Msg("data product with ID " + pm.product.ID + " already exists")
		}
		log.Ctx(ctx).Error().Err(err).Msg("failed to create data product")
		return err
	}
	return pm.snapshotRevision(ctx)
}

// Update replaces the stored document, ports included, and records the next
// revision
func (pm *dataProductManager) Update(ctx context.Context) apperrors.Error {
	err := db.DB(ctx).UpdateDataProduct(ctx, &pm.product)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return ErrProductNotFound
		}
		log.Ctx(ctx).Error().Err(err).Msg("failed to update data product")
		return err
	}
	return pm.snapshotRevision(ctx)
}

func (pm *dataProductManager) snapshotRevision(ctx context.Context) apperrors.Error {
	doc, err := pm.ToJson(ctx)
	if err != nil {
		return err
	}
	rev := &models.ProductRevision{
		DataProductID: pm.product.ID,
		Data:          doc,
		CreatedBy:     stewcommon.UserContextFromContext(ctx).DisplayName(),
	}
	if err := db.DB(ctx).CreateRevision(ctx, rev); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("id", pm.product.ID).Msg("failed to record product revision")
		return err
	}
	return nil
}

// ToJson converts the data product to its canonical JSON document
func (pm *dataProductManager) ToJson(ctx context.Context) ([]byte, apperrors.Error) {
	jsonData, err := json.Marshal(productDocument(&pm.product, true))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to marshal data product to JSON")
		return nil, ErrUnableToLoadObject
	}
	return jsonData, nil
}

// dataProductResource implements the KindHandler interface for data products
type dataProductResource struct {
	requestContext RequestContext
	manager        schemamanager.DataProductManager
}

// Location returns the resource location
func (dr *dataProductResource) Location() string {
	id := dr.requestContext.ProductID
	if dr.manager != nil {
		id = dr.manager.ID()
	}
	return "/data-products/" + id
}

// Create creates a new data product from the given document
func (dr *dataProductResource) Create(ctx context.Context, resourceJSON []byte) (string, apperrors.Error) {
	if id := gjson.GetBytes(resourceJSON, "id").String(); id != "" {
		if _, err := db.DB(ctx).GetDataProduct(ctx, id); err == nil {
			return "", ErrAlreadyExists.Msg("data product with ID " + id + " already exists")
		}
	}

	product, err := NewDataProductManager(ctx, resourceJSON)
	if err != nil {
		return "", err
	}

	err = product.Save(ctx)
	if err != nil {
		return "", err
	}

	dr.manager = product
	dr.requestContext.ProductID = product.ID()
	return dr.Location(), nil
}

// Get retrieves a single data product. Storage timestamps are not part of
// the single-object form.
func (dr *dataProductResource) Get(ctx context.Context) ([]byte, apperrors.Error) {
	product, err := LoadDataProductManager(ctx, dr.requestContext.ProductID)
	if err != nil {
		return nil, err
	}
	doc, err := product.ToJson(ctx)
	if err != nil {
		return nil, err
	}
	doc, _ = sjson.DeleteBytes(doc, "created_at")
	doc, _ = sjson.DeleteBytes(doc, "updated_at")
	return doc, nil
}

// List returns all data products, timestamps included
func (dr *dataProductResource) List(ctx context.Context) ([]byte, apperrors.Error) {
	products, err := db.DB(ctx).ListDataProducts(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list data products")
		return nil, err
	}

	docs := make([]*productSchema, 0, len(products))
	for _, p := range products {
		docs = append(docs, productDocument(p, true))
	}

	jsonData, errJson := json.Marshal(docs)
	if errJson != nil {
		log.Ctx(ctx).Error().Err(errJson).Msg("failed to marshal data products to JSON")
		return nil, ErrUnableToLoadObject
	}
	return jsonData, nil
}

// Update replaces an existing data product with the given document
func (dr *dataProductResource) Update(ctx context.Context, resourceJSON []byte) apperrors.Error {
	schema := &productSchema{}
	if err := json.Unmarshal(resourceJSON, schema); err != nil {
		return ErrInvalidSchema.Err(err)
	}
	schema.applyDefaults()

	validationErrors := schema.Validate()
	if validationErrors != nil {
		return ErrInvalidSchema.Err(validationErrors)
	}

	if schema.ID != dr.requestContext.ProductID {
		return ErrIDMismatch.Msg("Product ID in path does not match ID in request body.")
	}

	product := &dataProductManager{product: *schema.toModel()}
	err := product.Update(ctx)
	if err != nil {
		return err
	}

	dr.manager = product
	return nil
}

// Delete removes a data product. Ports and revisions go with it.
func (dr *dataProductResource) Delete(ctx context.Context) apperrors.Error {
	err := db.DB(ctx).DeleteDataProduct(ctx, dr.requestContext.ProductID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return ErrProductNotFound
		}
		log.Ctx(ctx).Error().Err(err).Str("id", dr.requestContext.ProductID).Msg("failed to delete data product")
		return err
	}
	return nil
}

// NewDataProductHandler creates a new KindHandler for data products
func NewDataProductHandler(ctx context.Context, requestContext RequestContext) (schemamanager.KindHandler, apperrors.Error) {
	return &dataProductResource{
		requestContext: requestContext,
	}, nil
}

// ListProductStatuses returns the distinct statuses in use across products
// and their output ports.
func ListProductStatuses(ctx context.Context) ([]string, apperrors.Error) {
	return db.DB(ctx).ListDataProductStatuses(ctx)
}

// ListProductArchetypes returns the distinct archetypes in use.
func ListProductArchetypes(ctx context.Context) ([]string, apperrors.Error) {
	return db.DB(ctx).ListDataProductArchetypes(ctx)
}

// ListProductOwners returns the distinct owners in use.
func ListProductOwners(ctx context.Context) ([]string, apperrors.Error) {
	return db.DB(ctx).ListDataProductOwners(ctx)
}

// ProductRecord pairs a product's identity with its decoded document, for
// callers that scan the whole catalog rather than serve single requests.
type ProductRecord struct {
	ID    string
	Title string
	Doc   map[string]any
}

// ListProductRecords returns every data product as a decoded document.
func ListProductRecords(ctx context.Context) ([]ProductRecord, apperrors.Error) {
	products, err := db.DB(ctx).ListDataProducts(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list data products")
		return nil, err
	}

	records := make([]ProductRecord, 0, len(products))
	for _, p := range products {
		raw, errJson := json.Marshal(productDocument(p, false))
		if errJson != nil {
			log.Ctx(ctx).Error().Err(errJson).Str("product_id", p.ID).Msg("failed to marshal data product document")
			return nil, ErrUnableToLoadObject
		}
		var doc map[string]any
		if errJson := json.Unmarshal(raw, &doc); errJson != nil {
			log.Ctx(ctx).Error().Err(errJson).Str("product_id", p.ID).Msg("failed to decode data product document")
			return nil, ErrUnableToLoadObject
		}
		records = append(records, ProductRecord{ID: p.ID, Title: p.Title, Doc: doc})
	}
	return records, nil
}

// RevisionInfo describes one recorded product snapshot without its payload.
type RevisionInfo struct {
	Sequence  int       `json:"sequence"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// revisionReadSchema is the full form of one snapshot, payload included.
type revisionReadSchema struct {
	Sequence  int             `json:"sequence"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
	Document  json.RawMessage `json:"document"`
}

// ListProductRevisions returns the audit trail of a product, oldest first,
// without the snapshot payloads.
func ListProductRevisions(ctx context.Context, productID string) ([]byte, apperrors.Error) {
	if _, err := db.DB(ctx).GetDataProduct(ctx, productID); err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	revs, err := db.DB(ctx).ListRevisions(ctx, productID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("id", productID).Msg("failed to list product revisions")
		return nil, err
	}

	infos := make([]RevisionInfo, 0, len(revs))
	for _, rev := range revs {
		infos = append(infos, RevisionInfo{Sequence: rev.Sequence, CreatedBy: rev.CreatedBy, CreatedAt: rev.CreatedAt})
	}
	jsonData, errJson := json.Marshal(infos)
	if errJson != nil {
		return nil, ErrUnableToLoadObject
	}
	return jsonData, nil
}

// GetProductRevision returns one recorded snapshot, document included. A
// sequence of 0 returns the latest snapshot.
func GetProductRevision(ctx context.Context, productID string, sequence int) ([]byte, apperrors.Error) {
	rev, err := db.DB(ctx).GetRevision(ctx, productID, sequence)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrObjectNotFound.Msg("product revision not found")
		}
		return nil, err
	}

	jsonData, errJson := json.Marshal(&revisionReadSchema{
		Sequence:  rev.Sequence,
		CreatedBy: rev.CreatedBy,
		CreatedAt: rev.CreatedAt,
		Document:  json.RawMessage(rev.Data),
	})
	if errJson != nil {
		return nil, ErrUnableToLoadObject
	}
	return jsonData, nil
}
