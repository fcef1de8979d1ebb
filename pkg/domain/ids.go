// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"regexp"

	dErrors "trustgate/pkg/domain-errors"
)

// maxIDLength bounds externally supplied identifiers so they stay usable as
// storage keys, log attributes and Redis key suffixes.
const maxIDLength = 128

var validID = regexp.MustCompile(`^[A-Za-z0-9._:-]+$`)

// Distinct ID types - compiler prevents passing a RuleID where a TenantID is expected.
type (
	TenantID string
	RuleID   string
)

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseTenantID(s string) (TenantID, error) {
	v, err := parseID(s, "tenant ID")
	return TenantID(v), err
}

func ParseRuleID(s string) (RuleID, error) {
	v, err := parseID(s, "rule ID")
	return RuleID(v), err
}

// String methods - for logging and debugging.

func (id TenantID) String() string { return string(id) }
func (id RuleID) String() string   { return string(id) }

// IsNil checks - used for service-layer validation.

func (id TenantID) IsNil() bool { return id == "" }
func (id RuleID) IsNil() bool   { return id == "" }

func parseID(s, label string) (string, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	if len(s) > maxIDLength || !validID.MatchString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return s, nil
}
