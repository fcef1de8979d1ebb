package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "trustgate/pkg/domain-errors"
)

// LimitsSuite tests the validation helper functions.
//
// These are trust-boundary validators: "max must pass" and "max+1 must fail".
type LimitsSuite struct {
	suite.Suite
}

func TestLimitsSuite(t *testing.T) {
	suite.Run(t, new(LimitsSuite))
}

func (s *LimitsSuite) TestCheckStringLength() {
	s.Run("passes at max", func() {
		s.NoError(CheckStringLength("override_reason", strings.Repeat("a", MaxReasonLength), MaxReasonLength))
	})

	s.Run("fails above max", func() {
		err := CheckStringLength("override_reason", strings.Repeat("a", MaxReasonLength+1), MaxReasonLength)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "override_reason exceeds max length of 500")
	})
}

func (s *LimitsSuite) TestCheckMapSize() {
	small := map[string]any{"roas": 1.2, "spend": 10}
	s.NoError(CheckMapSize("metrics", small, 2))

	err := CheckMapSize("metrics", small, 1)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	s.NoError(CheckMapSize("metrics", nil, 0))
}

func (s *LimitsSuite) TestCheckRequired() {
	s.NoError(CheckRequired("entity_id", "cmp_1"))

	err := CheckRequired("entity_id", "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Equal("entity_id is required", err.Error())
}
