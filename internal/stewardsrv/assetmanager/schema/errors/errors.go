package errors

import "strings"

// ValidationError describes a single failed attribute check.
type ValidationError struct {
	Field  string
	ErrStr string
	Value  string
}

func (v ValidationError) Error() string {
	s := v.ErrStr
	if v.Field != "" {
		s = s + ": " + v.Field
	}
	if v.Value != "" {
		s = s + " (" + v.Value + ")"
	}
	return s
}

// ValidationErrors is the set of failed checks for one document.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	errs := make([]string, 0, len(v))
	for _, e := range v {
		errs = append(errs, e.Error())
	}
	return strings.Join(errs, "; ")
}

var ErrInvalidSchema = ValidationError{ErrStr: "invalid schema"}

func ErrMissingRequiredAttribute(field string) ValidationError {
	return ValidationError{Field: field, ErrStr: "missing required attribute"}
}

func ErrInvalidNameFormat(field string, value ...string) ValidationError {
	v := ValidationError{Field: field, ErrStr: "invalid name format"}
	if len(value) > 0 {
		v.Value = value[0]
	}
	return v
}

func ErrUnsupportedKind(field string) ValidationError {
	return ValidationError{Field: field, ErrStr: "unsupported kind"}
}

func ErrInvalidVersion(field string) ValidationError {
	return ValidationError{Field: field, ErrStr: "invalid specification version"}
}

func ErrInvalidValue(field string, value ...string) ValidationError {
	v := ValidationError{Field: field, ErrStr: "invalid value"}
	if len(value) > 0 {
		v.Value = value[0]
	}
	return v
}

func ErrValidationFailed(field string) ValidationError {
	return ValidationError{Field: field, ErrStr: "validation failed for attribute"}
}
