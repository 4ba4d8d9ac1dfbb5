package schemavalidator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

// productDocumentSchema is the structural gate raw upload documents pass
// before the typed validation runs. It mirrors the data product
// specification: required id and info.title/info.owner, ports as arrays
// of objects, free form links/custom/tags.
const productDocumentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "info"],
  "properties": {
    "dataProductSpecification": { "type": "string" },
    "id": { "type": "string", "minLength": 1 },
    "version": { "type": "string" },
    "productType": { "type": "string" },
    "info": {
      "type": "object",
      "required": ["title", "owner"],
      "properties": {
        "title": { "type": "string", "minLength": 1 },
        "owner": { "type": "string", "minLength": 1 },
        "domain": { "type": "string" },
        "description": { "type": ["string", "null"] },
        "status": { "type": ["string", "null"] },
        "archetype": { "type": ["string", "null"] },
        "maturity": { "type": ["string", "null"] }
      }
    },
    "inputPorts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "sourceSystemId"],
        "properties": {
          "id": { "type": "string", "minLength": 1 },
          "name": { "type": "string", "minLength": 1 },
          "sourceSystemId": { "type": "string", "minLength": 1 },
          "sourceOutputPortId": { "type": ["string", "null"] },
          "tags": { "type": "array", "items": { "type": "string" } }
        }
      }
    },
    "outputPorts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name"],
        "properties": {
          "id": { "type": "string", "minLength": 1 },
          "name": { "type": "string", "minLength": 1 },
          "status": { "type": ["string", "null"] },
          "server": { "type": ["object", "null"] },
          "containsPii": { "type": "boolean" },
          "autoApprove": { "type": "boolean" },
          "dataContractId": { "type": ["string", "null"] },
          "tags": { "type": "array", "items": { "type": "string" } }
        }
      }
    },
    "links": { "type": ["object", "null"] },
    "custom": { "type": ["object", "null"] },
    "tags": { "type": "array", "items": { "type": "string" } }
  }
}`

var (
	productSchemaOnce sync.Once
	productSchema     *jsonschema.Schema
	productSchemaErr  error
)

// ProductDocumentSchema returns the compiled data product document schema.
func ProductDocumentSchema() (*jsonschema.Schema, error) {
	productSchemaOnce.Do(func() {
		productSchema, productSchemaErr = CompileSchema(productDocumentSchema)
	})
	return productSchema, productSchemaErr
}

// ValidateProductDocument checks a raw JSON document against the data
// product document schema.
func ValidateProductDocument(doc []byte) error {
	s, err := ProductDocumentSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("invalid JSON document: %w", err)
	}
	return s.Validate(v)
}

// CompileSchema compiles a JSON schema from its string representation.
func CompileSchema(schema string) (*jsonschema.Schema, error) {
	// First validate that the schema is valid JSON using gjson
	if !gjson.Valid(schema) {
		return nil, fmt.Errorf("invalid JSON schema")
	}

	compiler := jsonschema.NewCompiler()
	// Allow schemas with $id to refer to themselves
	compiler.LoadURL = func(url string) (io.ReadCloser, error) {
		if url == "inline://schema" {
			return io.NopCloser(bytes.NewReader([]byte(schema))), nil
		}
		return nil, fmt.Errorf("unsupported schema ref: %s", url)
	}
	err := compiler.AddResource("inline://schema", bytes.NewReader([]byte(schema)))
	if err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	compiledSchema, err := compiler.Compile("inline://schema")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return compiledSchema, nil
}
