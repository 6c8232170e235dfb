// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

// Package validation provides struct validation using go-playground/validator v10.
//
// A thread-safe singleton validator reports field names by their JSON tag, so
// messages match request payloads. Besides the built-in tags it knows:
//   - role: a name accepted by models.ParseRole
//   - enum tags registered at runtime with RegisterEnum (report_type,
//     report_format, frequency are registered by internal/report)
//
// Example usage:
//
//	type CreateRequest struct {
//	    Name   string `json:"name" validate:"required,max=200"`
//	    Format string `json:"format" validate:"required,report_format"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    ...
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/orderdesk/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	// enumValues holds the allowed values of each RegisterEnum tag, for messages.
	enumMu     sync.RWMutex
	enumValues = map[string][]string{}
)

// ValidationError is one failed field check.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field is the JSON name of the offending field.
func (e *ValidationError) Field() string { return e.field }

// Tag is the failed validation tag, e.g. "required" or "report_type".
func (e *ValidationError) Tag() string { return e.tag }

// Param is the tag parameter, "200" for max=200.
func (e *ValidationError) Param() string { return e.param }

// Value is the rejected value, when known.
func (e *ValidationError) Value() interface{} { return e.value }

func (e *ValidationError) Error() string { return e.message }

// RequestValidationError collects the failed checks of one request.
type RequestValidationError struct {
	errors []ValidationError
}

// NewRequestValidationError builds a single-field error for checks that
// cannot be expressed as struct tags.
func NewRequestValidationError(field, tag, message string) *RequestValidationError {
	return &RequestValidationError{errors: []ValidationError{{field: field, tag: tag, message: message}}}
}

// Errors returns the individual field errors in declaration order.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	switch len(ve.errors) {
	case 0:
		return "validation failed"
	case 1:
		return ve.errors[0].message
	}
	parts := make([]string, len(ve.errors))
	for i := range ve.errors {
		parts[i] = ve.errors[i].message
	}
	return strings.Join(parts, "; ")
}

// APIError mirrors api.APIError to avoid an import cycle.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

const apiErrorCode = "VALIDATION_ERROR"

// ToAPIError shapes the errors for the response envelope. A single error
// is flattened into field/tag/value details; several are listed under
// "fields".
func (ve *RequestValidationError) ToAPIError() *APIError {
	switch len(ve.errors) {
	case 0:
		return &APIError{Code: apiErrorCode, Message: "Validation failed"}
	case 1:
		e := ve.errors[0]
		return &APIError{
			Code:    apiErrorCode,
			Message: e.message,
			Details: map[string]interface{}{"field": e.field, "tag": e.tag, "value": e.value},
		}
	}

	fields := make([]map[string]interface{}, 0, len(ve.errors))
	summary := make([]string, 0, len(ve.errors))
	for _, e := range ve.errors {
		fields = append(fields, map[string]interface{}{"field": e.field, "tag": e.tag, "message": e.message})
		summary = append(summary, e.field+": "+e.message)
	}
	return &APIError{
		Code:    apiErrorCode,
		Message: strings.Join(summary, "; "),
		Details: map[string]interface{}{"fields": fields},
	}
}

// GetValidator returns the process-wide validator. Field names in errors
// are JSON names.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonFieldName)
		//nolint:errcheck // static tag
		v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			_, err := models.ParseRole(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

// RegisterEnum registers tag as a validator accepting exactly values.
// Registering the same tag again replaces its values.
func RegisterEnum(tag string, values ...string) error {
	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[v] = struct{}{}
	}

	enumMu.Lock()
	enumValues[tag] = slices.Clone(values)
	enumMu.Unlock()

	return GetValidator().RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		_, ok := allowed[fl.Field().String()]
		return ok
	})
}

// ValidateStruct runs the struct tags of s. It returns nil on success.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewRequestValidationError("unknown", "unknown", err.Error())
	}

	out := &RequestValidationError{errors: make([]ValidationError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.errors = append(out.errors, ValidationError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   fe.Param(),
			value:   fe.Value(),
			message: message(fe),
		})
	}
	return out
}

// message renders a FieldError for API clients.
func message(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "role":
		return field + " must be a known role"
	case "datetime":
		return field + " must be a valid date/time in RFC3339 format"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", field, param)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, param)
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	}

	enumMu.RLock()
	values, ok := enumValues[fe.Tag()]
	enumMu.RUnlock()
	if ok {
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(values, " "))
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
