// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/tomtom215/orderdesk/internal/models"
	"github.com/tomtom215/orderdesk/internal/validation"
)

var registerOnce sync.Once

// registerValidators installs the report enum tags on the shared validator.
func registerValidators() {
	registerOnce.Do(func() {
		types := make([]string, len(Types))
		for i, t := range Types {
			types[i] = string(t)
		}
		formats := make([]string, len(Formats))
		for i, f := range Formats {
			formats[i] = string(f)
		}
		freqs := make([]string, len(Frequencies))
		for i, f := range Frequencies {
			freqs[i] = string(f)
		}
		//nolint:errcheck // tags are static
		validation.RegisterEnum("report_type", types...)
		//nolint:errcheck // tags are static
		validation.RegisterEnum("report_format", formats...)
		//nolint:errcheck // tags are static
		validation.RegisterEnum("frequency", freqs...)
	})
}

// validationError wraps a field error so callers can match both
// ErrValidation and *validation.RequestValidationError.
func validationError(verr *validation.RequestValidationError) error {
	return fmt.Errorf("%w: %w", ErrValidation, verr)
}

// ValidateCreate checks a create payload: struct tags first, then the
// cross-field rules tags cannot express.
func ValidateCreate(req *CreateRequest) error {
	registerValidators()

	if verr := validation.ValidateStruct(req); verr != nil {
		return validationError(verr)
	}
	if req.IsRecurring && req.Frequency == "" {
		return validationError(validation.NewRequestValidationError("frequency", "required_if", "frequency is required when isRecurring is true"))
	}
	if !req.IsRecurring && req.Frequency != "" {
		return validationError(validation.NewRequestValidationError("frequency", "excluded_unless", "frequency is only allowed when isRecurring is true"))
	}
	if raw := bytes.TrimSpace(req.Parameters); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) && raw[0] != '{' {
		return validationError(validation.NewRequestValidationError("parameters", "object", "parameters must be a JSON object"))
	}
	if _, err := ParseParameters(req.Parameters); err != nil {
		return validationError(validation.NewRequestValidationError("parameters", "parameters", err.Error()))
	}
	if req.AccessControl != nil {
		if _, err := normalizeAccess(req.AccessControl.Roles, req.AccessControl.Users, req.AccessControl.IsPublic); err != nil {
			return err
		}
	}
	return nil
}

// normalizeAccess canonicalizes role names and drops duplicates.
func normalizeAccess[R ~string](roles []R, users []string, isPublic bool) (AccessControl, error) {
	ac := AccessControl{Roles: []models.Role{}, Users: []string{}, IsPublic: isPublic}
	seenRole := make(map[models.Role]bool)
	for _, name := range roles {
		role, err := models.ParseRole(string(name))
		if err != nil {
			return ac, validationError(validation.NewRequestValidationError("roles", "role", fmt.Sprintf("unknown role %q", name)))
		}
		if !seenRole[role] {
			seenRole[role] = true
			ac.Roles = append(ac.Roles, role)
		}
	}
	seenUser := make(map[string]bool)
	for _, id := range users {
		if id == "" {
			return ac, validationError(validation.NewRequestValidationError("users", "required", "user ids must not be empty"))
		}
		if !seenUser[id] {
			seenUser[id] = true
			ac.Users = append(ac.Users, id)
		}
	}
	return ac, nil
}
