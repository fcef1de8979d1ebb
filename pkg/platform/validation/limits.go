package validation

import (
	"fmt"

	dErrors "trustgate/pkg/domain-errors"
)

// String element length limits
const (
	// MaxActionTypeLength bounds action_type and entity_type.
	MaxActionTypeLength = 100

	// MaxEntityIDLength is the maximum length of a proposed action's entity id.
	MaxEntityIDLength = 256

	// MaxReasonLength bounds override reasons, kill switch reasons and rule descriptions.
	MaxReasonLength = 500

	// MaxConfirmationTokenLength is comfortably above the 47 characters of an issued token.
	MaxConfirmationTokenLength = 128
)

// MaxPayloadKeys is the maximum number of keys in proposed_value,
// current_value or metrics.
const MaxPayloadKeys = 100

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// CheckMapSize validates that a map does not exceed the maximum number of keys.
func CheckMapSize(fieldName string, m map[string]any, max int) error {
	if len(m) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many keys in %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckRequired validates that a string is non-empty.
func CheckRequired(fieldName, value string) error {
	if value == "" {
		return dErrors.New(dErrors.CodeValidation, fieldName+" is required")
	}
	return nil
}
