package models

import (
	"strings"

	dErrors "trustgate/pkg/domain-errors"
)

// Mode is the enforcement strength applied to an action.
type Mode string

const (
	ModeAdvisory  Mode = "advisory"
	ModeSoftBlock Mode = "soft_block"
	ModeHardBlock Mode = "hard_block"
)

// ParseMode validates and parses a mode string.
//
// Errors: returns CodeValidation for unknown modes.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "mode must be one of advisory, soft_block, hard_block")
	}
	return m, nil
}

func (m Mode) IsValid() bool {
	switch m {
	case ModeAdvisory, ModeSoftBlock, ModeHardBlock:
		return true
	}
	return false
}

func (m Mode) String() string { return string(m) }

// Severity orders modes from least (0) to most (2) restrictive. Unknown
// modes rank below advisory.
func (m Mode) Severity() int {
	switch m {
	case ModeAdvisory:
		return 0
	case ModeSoftBlock:
		return 1
	case ModeHardBlock:
		return 2
	}
	return -1
}

// Strictest returns the most restrictive of the given modes and false when
// no valid mode was supplied.
func Strictest(modes ...Mode) (Mode, bool) {
	var best Mode
	found := false
	for _, m := range modes {
		if !m.IsValid() {
			continue
		}
		if !found || m.Severity() > best.Severity() {
			best = m
			found = true
		}
	}
	return best, found
}
