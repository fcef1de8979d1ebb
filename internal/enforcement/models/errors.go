package models

import dErrors "trustgate/pkg/domain-errors"

// Domain errors returned by the enforcement components. errors.Is matches
// on code, so wrapped variants with other messages compare equal.
var (
	ErrDuplicateRule    = dErrors.New(dErrors.CodeConflict, "rule_id already exists for tenant")
	ErrTokenNotFound    = dErrors.New(dErrors.CodeNotFound, "confirmation token not found")
	ErrTokenExpired     = dErrors.New(dErrors.CodeTokenExpired, "confirmation token has expired")
	ErrTokenAlreadyUsed = dErrors.New(dErrors.CodeTokenAlreadyUsed, "confirmation token has already been used")
	ErrOverrideRequired = dErrors.New(dErrors.CodeValidation, "override_reason is required")
	ErrTenantRequired   = dErrors.New(dErrors.CodeValidation, "tenant_id is required")
)
