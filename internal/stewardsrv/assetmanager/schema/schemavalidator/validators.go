package schemavalidator

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/stewarddata/steward-internal/pkg/types"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// V returns the shared validator instance with all custom validations
// registered.
func V() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// GetJSONFieldPath resolves a struct field name reported by the validator to
// the json tag path clients see in their documents.
func GetJSONFieldPath(value reflect.Value, typeOfSchema reflect.Type, structField string) string {
	if path, ok := findJSONPath(typeOfSchema, structField); ok {
		return path
	}
	return strings.ToLower(structField)
}

func findJSONPath(t reflect.Type, structField string) (string, bool) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return "", false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			// embedded fields promote into the enclosing document
			if sub, ok := findJSONPath(f.Type, structField); ok {
				return sub, true
			}
			continue
		}
		tag := strings.Split(f.Tag.Get("json"), ",")[0]
		if tag == "" {
			tag = f.Name
		}
		if f.Name == structField {
			return tag, true
		}
		ft := f.Type
		if ft.Kind() == reflect.Slice || ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			if sub, ok := findJSONPath(ft, structField); ok {
				return tag + "." + sub, true
			}
		}
	}
	return "", false
}

const resourceNameRegex = `^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`
const resourceNameMaxLength = 63

// resourceNameValidator checks if the given name follows our convention.
func resourceNameValidator(fl validator.FieldLevel) bool {
	str := fl.Field().String()

	// Check the length of the name
	if len(str) > resourceNameMaxLength {
		return false
	}

	re := regexp.MustCompile(resourceNameRegex)
	return re.MatchString(str)
}

func noSpacesValidator(fl validator.FieldLevel) bool {
	re := regexp.MustCompile(`^[^\s]+$`)
	return re.MatchString(fl.Field().String())
}

// notBlankValidator rejects strings that are empty after trimming. Used on
// list items where whitespace-only entries carry no information.
func notBlankValidator(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func requireSpecVersion(fl validator.FieldLevel) bool {
	return fl.Field().String() == types.SpecVersion
}

func assetTypeValidator(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	return types.AssetType(s).IsValid()
}

func severityValidator(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	return types.PolicySeverity(s).IsValid()
}

func notificationTypeValidator(fl validator.FieldLevel) bool {
	return types.NotificationType(fl.Field().String()).IsValid()
}

func memberTypeValidator(fl validator.FieldLevel) bool {
	return types.MemberType(fl.Field().String()).IsValid()
}

func init() {
	V().RegisterValidation("resourceNameValidator", resourceNameValidator)
	V().RegisterValidation("noSpaces", noSpacesValidator)
	V().RegisterValidation("notBlank", notBlankValidator)
	V().RegisterValidation("requireSpecVersion", requireSpecVersion)
	V().RegisterValidation("assetTypeValidator", assetTypeValidator)
	V().RegisterValidation("severityValidator", severityValidator)
	V().RegisterValidation("notificationTypeValidator", notificationTypeValidator)
	V().RegisterValidation("memberTypeValidator", memberTypeValidator)
}
