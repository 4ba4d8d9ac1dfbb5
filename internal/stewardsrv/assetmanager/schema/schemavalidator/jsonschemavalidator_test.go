package schemavalidator

import (
	"strings"
	"testing"
)

func TestValidateProductDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		isValid bool
	}{
		{
			name: "complete document",
			doc: `{
				"dataProductSpecification": "0.0.1",
				"id": "search-queries-all",
				"info": {"title": "Search Queries", "owner": "search-team"},
				"inputPorts": [{"id": "kafka_in", "name": "Kafka In", "sourceSystemId": "kafka-prod"}],
				"outputPorts": [{"id": "s3_out", "name": "S3 Out", "containsPii": false}],
				"tags": ["search"]
			}`,
			isValid: true,
		},
		{
			name:    "minimal document",
			doc:     `{"id": "p1", "info": {"title": "P1", "owner": "team"}}`,
			isValid: true,
		},
		{
			name:    "missing id",
			doc:     `{"info": {"title": "P1", "owner": "team"}}`,
			isValid: false,
		},
		{
			name:    "empty id",
			doc:     `{"id": "", "info": {"title": "P1", "owner": "team"}}`,
			isValid: false,
		},
		{
			name:    "missing info",
			doc:     `{"id": "p1"}`,
			isValid: false,
		},
		{
			name:    "info missing owner",
			doc:     `{"id": "p1", "info": {"title": "P1"}}`,
			isValid: false,
		},
		{
			name:    "input port missing sourceSystemId",
			doc:     `{"id": "p1", "info": {"title": "P1", "owner": "team"}, "inputPorts": [{"id": "in", "name": "In"}]}`,
			isValid: false,
		},
		{
			name:    "output port missing name",
			doc:     `{"id": "p1", "info": {"title": "P1", "owner": "team"}, "outputPorts": [{"id": "out"}]}`,
			isValid: false,
		},
		{
			name:    "tags must be strings",
			doc:     `{"id": "p1", "info": {"title": "P1", "owner": "team"}, "tags": [1, 2]}`,
			isValid: false,
		},
		{
			name:    "document must be an object",
			doc:     `["p1"]`,
			isValid: false,
		},
		{
			name:    "null description allowed",
			doc:     `{"id": "p1", "info": {"title": "P1", "owner": "team", "description": null}}`,
			isValid: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := ValidateProductDocument([]byte(test.doc))
			if (err == nil) != test.isValid {
				t.Errorf("Expected valid=%v, but got err=%v", test.isValid, err)
			}
		})
	}
}

func TestValidateProductDocumentBadJSON(t *testing.T) {
	err := ValidateProductDocument([]byte(`{"id": "p1",`))
	if err == nil {
		t.Fatal("Expected an error for truncated JSON")
	}
	if !strings.Contains(err.Error(), "invalid JSON document") {
		t.Errorf("Expected a JSON parse error, got %v", err)
	}
}

func TestCompileSchema(t *testing.T) {
	s, err := CompileSchema(`{"type": "object", "required": ["name"]}`)
	if err != nil {
		t.Fatalf("Expected schema to compile, got %v", err)
	}
	if err := s.Validate(map[string]any{"name": "x"}); err != nil {
		t.Errorf("Expected document to pass, got %v", err)
	}
	if err := s.Validate(map[string]any{}); err == nil {
		t.Error("Expected missing required property to fail")
	}
}

func TestCompileSchemaNotJSON(t *testing.T) {
	_, err := CompileSchema(`{"type": "object"`)
	if err == nil {
		t.Fatal("Expected an error for malformed schema text")
	}
	if !strings.Contains(err.Error(), "invalid JSON schema") {
		t.Errorf("Expected the JSON gate to reject it, got %v", err)
	}
}

func TestCompileSchemaInvalidSchema(t *testing.T) {
	_, err := CompileSchema(`{"type": 42}`)
	if err == nil {
		t.Fatal("Expected an error for a schema with a non-string type")
	}
}
