package assetmanager

import (
	"context"
	"strings"

	json "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	"github.com/stewarddata/steward-internal/internal/common/uuid7"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager/schema/schemavalidator"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/stewcommon"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"sigs.k8s.io/yaml"
)

// UploadError reports why one item of an uploaded file was skipped.
type UploadError struct {
	ID    string          `json:"id,omitempty"`
	Error string          `json:"error"`
	Item  json.RawMessage `json:"item,omitempty"`
}

// UploadResult is the outcome of processing an uploaded file. Items are
// processed independently, so a batch can create some products and report
// errors for the rest.
type UploadResult struct {
	Created []json.RawMessage
	Errors  []UploadError
}

// UploadDataProducts ingests a YAML or JSON file holding a single data
// product document or a list of them. The returned error covers file-level
// failures only; per-item failures are collected in the result.
func UploadDataProducts(ctx context.Context, filename string, content []byte) (*UploadResult, apperrors.Error) {
	ctx = log.Ctx(ctx).With().Str("batch", stewcommon.NewBatchId()).Logger().WithContext(ctx)

	var doc []byte
	switch {
	case strings.HasSuffix(filename, ".yaml"):
		jsonData, err := yaml.YAMLToJSON(content)
		if err != nil {
			return nil, ErrInvalidUpload.Msg("Invalid YAML format: " + err.Error())
		}
		doc = jsonData
	case strings.HasSuffix(filename, ".json"):
		if !gjson.ValidBytes(content) {
			return nil, ErrInvalidUpload.Msg("Invalid JSON format")
		}
		doc = content
	default:
		return nil, ErrInvalidUpload.Msg("Invalid file type. Please upload a YAML or JSON file.")
	}

	parsed := gjson.ParseBytes(doc)
	var items []gjson.Result
	switch {
	case parsed.IsObject():
		items = []gjson.Result{parsed}
	case parsed.IsArray():
		items = parsed.Array()
	default:
		return nil, ErrInvalidUpload.Msg("File must contain a JSON object/array or a YAML mapping/list of data product objects.")
	}

	result := &UploadResult{}
	for _, item := range items {
		if !item.IsObject() {
			result.Errors = append(result.Errors, UploadError{
				Error: "Skipping non-dictionary item within list/array.",
				Item:  json.RawMessage(item.Raw),
			})
			continue
		}

		itemJSON := []byte(item.Raw)
		id := item.Get("id").String()
		if id == "" {
			id = uuid7.New().String()
			itemJSON, _ = sjson.SetBytes(itemJSON, "id", id)
			log.Ctx(ctx).Info().Str("id", id).Msg("generated ID for uploaded product lacking one")
		}

		if _, err := db.DB(ctx).GetDataProduct(ctx, id); err == nil {
			result.Errors = append(result.Errors, UploadError{
				ID:    id,
				Error: "Product with this ID already exists. Skipping.",
			})
			continue
		}

		if err := schemavalidator.ValidateProductDocument(itemJSON); err != nil {
			result.Errors = append(result.Errors, UploadError{
				ID:    id,
				Error: "Validation failed: " + err.Error(),
			})
			continue
		}

		product, err := NewDataProductManager(ctx, itemJSON)
		if err != nil {
			result.Errors = append(result.Errors, UploadError{
				ID:    id,
				Error: "Validation failed: " + err.Error(),
			})
			continue
		}

		if err := product.Save(ctx); err != nil {
			result.Errors = append(result.Errors, UploadError{
				ID:    id,
				Error: "Creation failed: " + err.Error(),
			})
			continue
		}

		created, err := product.ToJson(ctx)
		if err != nil {
			result.Errors = append(result.Errors, UploadError{
				ID:    id,
				Error: "Creation failed: " + err.Error(),
			})
			continue
		}
		result.Created = append(result.Created, json.RawMessage(created))
	}

	if len(result.Errors) > 0 {
		log.Ctx(ctx).Warn().Str("file", filename).Int("created", len(result.Created)).
			Int("errors", len(result.Errors)).Msg("upload processed with errors")
	} else {
		log.Ctx(ctx).Info().Str("file", filename).Int("created", len(result.Created)).
			Msg("upload processed")
	}
	return result, nil
}
