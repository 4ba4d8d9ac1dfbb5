package schemavalidator

import (
	"reflect"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestResourceNameValidator(t *testing.T) {
	validate := validator.New()
	validate.RegisterValidation("resourceNameValidator", resourceNameValidator)

	tests := []struct {
		input   string
		isValid bool
	}{
		{"valid-name", true},
		{"validname", true},
		{"valid123", true},
		{"123valid", true},
		{"a", true},
		{"my-data-product", true},
		{"Invalid-Name", false}, // uppercase
		{"invalid_name", false}, // underscore
		{"-invalid", false},     // leading hyphen
		{"invalid-", false},     // trailing hyphen
		{"invalid name", false}, // space
		{"invalid.name", false}, // dot
		{"", false},
		{strings.Repeat("a", 63), true},
		{strings.Repeat("a", 64), false}, // over length cap
	}

	for _, test := range tests {
		err := validate.Var(test.input, "resourceNameValidator")
		if (err == nil) != test.isValid {
			t.Errorf("Expected %v for input '%s', but got %v", test.isValid, test.input, err == nil)
		}
	}
}

func TestNoSpacesValidator(t *testing.T) {
	validate := validator.New()
	validate.RegisterValidation("noSpaces", noSpacesValidator)

	tests := []struct {
		input   string
		isValid bool
	}{
		{"search-queries-all", true},
		{"queries all", false},
		{"queries\tall", false},
		{"queries\nall", false},
		{"", false},
	}

	for _, test := range tests {
		err := validate.Var(test.input, "noSpaces")
		if (err == nil) != test.isValid {
			t.Errorf("Expected %v for input '%s', but got %v", test.isValid, test.input, err == nil)
		}
	}
}

func TestNotBlankValidator(t *testing.T) {
	validate := validator.New()
	validate.RegisterValidation("notBlank", notBlankValidator)

	tests := []struct {
		input   string
		isValid bool
	}{
		{"finance", true},
		{" padded ", true},
		{"", false},
		{"   ", false},
		{"\t\n", false},
	}

	for _, test := range tests {
		err := validate.Var(test.input, "notBlank")
		if (err == nil) != test.isValid {
			t.Errorf("Expected %v for input '%s', but got %v", test.isValid, test.input, err == nil)
		}
	}
}

func TestRequireSpecVersion(t *testing.T) {
	validate := validator.New()
	validate.RegisterValidation("requireSpecVersion", requireSpecVersion)

	tests := []struct {
		input   string
		isValid bool
	}{
		{"0.0.1", true},
		{"0.0.2", false},
		{"1.0.0", false},
		{"", false},
	}

	for _, test := range tests {
		err := validate.Var(test.input, "requireSpecVersion")
		if (err == nil) != test.isValid {
			t.Errorf("Expected %v for input '%s', but got %v", test.isValid, test.input, err == nil)
		}
	}
}

func TestAssetTypeValidator(t *testing.T) {
	validate := validator.New()
	validate.RegisterValidation("assetTypeValidator", assetTypeValidator)

	tests := []struct {
		input   string
		isValid bool
	}{
		{"table", true},
		{"view", true},
		{"streaming_table", true},
		{"materialized_view", true},
		{"dashboard", true},
		{"", true}, // optional field, empty is fine
		{"spreadsheet", false},
		{"TABLE", false},
	}

	for _, test := range tests {
		err := validate.Var(test.input, "assetTypeValidator")
		if (err == nil) != test.isValid {
			t.Errorf("Expected %v for input '%s', but got %v", test.isValid, test.input, err == nil)
		}
	}
}

func TestSeverityValidator(t *testing.T) {
	validate := validator.New()
	validate.RegisterValidation("severityValidator", severityValidator)

	tests := []struct {
		input   string
		isValid bool
	}{
		{"low", true},
		{"medium", true},
		{"high", true},
		{"critical", true},
		{"", true}, // defaulted later
		{"urgent", false},
		{"High", false},
	}

	for _, test := range tests {
		err := validate.Var(test.input, "severityValidator")
		if (err == nil) != test.isValid {
			t.Errorf("Expected %v for input '%s', but got %v", test.isValid, test.input, err == nil)
		}
	}
}

func TestNotificationTypeValidator(t *testing.T) {
	validate := validator.New()
	validate.RegisterValidation("notificationTypeValidator", notificationTypeValidator)

	tests := []struct {
		input   string
		isValid bool
	}{
		{"info", true},
		{"success", true},
		{"warning", true},
		{"error", true},
		{"action_required", true},
		{"", false},
		{"fatal", false},
	}

	for _, test := range tests {
		err := validate.Var(test.input, "notificationTypeValidator")
		if (err == nil) != test.isValid {
			t.Errorf("Expected %v for input '%s', but got %v", test.isValid, test.input, err == nil)
		}
	}
}

func TestMemberTypeValidator(t *testing.T) {
	validate := validator.New()
	validate.RegisterValidation("memberTypeValidator", memberTypeValidator)

	tests := []struct {
		input   string
		isValid bool
	}{
		{"user", true},
		{"group", true},
		{"", false},
		{"robot", false},
		{"User", false},
	}

	for _, test := range tests {
		err := validate.Var(test.input, "memberTypeValidator")
		if (err == nil) != test.isValid {
			t.Errorf("Expected %v for input '%s', but got %v", test.isValid, test.input, err == nil)
		}
	}
}

type pathTestContact struct {
	Email string `json:"email"`
}

type pathTestInfo struct {
	Title string `json:"title"`
	Owner string `json:"owner"`
}

type pathTestPort struct {
	ID             string `json:"id"`
	SourceSystemID string `json:"sourceSystemId"`
}

type pathTestMeta struct {
	SpecVersion string `json:"specVersion"`
}

type pathTestDoc struct {
	pathTestMeta
	Name       string           `json:"name"`
	Info       pathTestInfo     `json:"info"`
	Contact    *pathTestContact `json:"contact"`
	InputPorts []pathTestPort   `json:"inputPorts"`
	Untagged   string
}

func TestGetJSONFieldPath(t *testing.T) {
	doc := pathTestDoc{}
	docType := reflect.TypeOf(doc)

	tests := []struct {
		structField string
		expected    string
	}{
		{"Name", "name"},
		{"Title", "info.title"},
		{"Owner", "info.owner"},
		{"Email", "contact.email"},
		{"ID", "inputPorts.id"},
		{"SourceSystemID", "inputPorts.sourceSystemId"},
		{"SpecVersion", "specVersion"}, // embedded field promotes to top level
		{"Untagged", "Untagged"},
		{"NoSuchField", "nosuchfield"}, // fallback when field is unknown
	}

	for _, test := range tests {
		got := GetJSONFieldPath(reflect.ValueOf(doc), docType, test.structField)
		if got != test.expected {
			t.Errorf("Expected '%s' for field '%s', but got '%s'", test.expected, test.structField, got)
		}
	}
}

func TestGetJSONFieldPathPointerType(t *testing.T) {
	doc := &pathTestDoc{}
	got := GetJSONFieldPath(reflect.ValueOf(doc), reflect.TypeOf(doc), "Owner")
	if got != "info.owner" {
		t.Errorf("Expected 'info.owner' through pointer type, but got '%s'", got)
	}
}
