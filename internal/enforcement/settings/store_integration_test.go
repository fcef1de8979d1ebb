//go:build integration

package settings

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"trustgate/internal/enforcement/models"
	"trustgate/pkg/testutil"
	"trustgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg      *containers.PostgresContainer
	service *Service
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.service = New(NewPostgres(s.pg.DB))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "enforcement_settings"))
}

func (s *PostgresStoreSuite) TestDefaultsForUnknownTenant() {
	got, err := s.service.Get(context.Background(), testutil.TestIDs.TenantID1)
	s.Require().NoError(err)
	s.Equal(models.ModeAdvisory, got.DefaultMode)
	s.Nil(got.MaxCampaignBudget)
	s.True(got.MinROASThreshold.IsZero())
}

func (s *PostgresStoreSuite) TestPartialUpdatesMerge() {
	ctx := context.Background()
	tenantID := testutil.TestIDs.TenantID1
	budget := decimal.RequireFromString("5000.25")
	mode := models.ModeSoftBlock

	_, err := s.service.Update(ctx, tenantID, models.SettingsPatch{MaxCampaignBudget: &budget}, "ops")
	s.Require().NoError(err)
	_, err = s.service.Update(ctx, tenantID, models.SettingsPatch{DefaultMode: &mode}, "ops")
	s.Require().NoError(err)

	got, err := s.service.Get(ctx, tenantID)
	s.Require().NoError(err)
	s.Require().NotNil(got.MaxCampaignBudget)
	s.True(budget.Equal(*got.MaxCampaignBudget))
	s.Equal(models.ModeSoftBlock, got.DefaultMode)
	s.Equal("ops", got.UpdatedBy)
	s.NotNil(got.UpdatedAt)

	_, err = s.service.Update(ctx, tenantID, models.SettingsPatch{ClearMaxCampaignBudget: true}, "ops")
	s.Require().NoError(err)
	got, err = s.service.Get(ctx, tenantID)
	s.Require().NoError(err)
	s.Nil(got.MaxCampaignBudget)
	s.Equal(models.ModeSoftBlock, got.DefaultMode)

	other, err := s.service.Get(ctx, testutil.TestIDs.TenantID2)
	s.Require().NoError(err)
	s.Equal(models.ModeAdvisory, other.DefaultMode)
}

func (s *PostgresStoreSuite) TestConcurrentPatchesAreNotLost() {
	ctx := context.Background()
	tenantID := testutil.TestIDs.TenantID1
	roas := decimal.RequireFromString("1.5")
	mode := models.ModeHardBlock

	var wg sync.WaitGroup
	wg.Go(func() {
		_, err := s.service.Update(ctx, tenantID, models.SettingsPatch{MinROASThreshold: &roas}, "a")
		s.NoError(err)
	})
	wg.Go(func() {
		_, err := s.service.Update(ctx, tenantID, models.SettingsPatch{DefaultMode: &mode}, "b")
		s.NoError(err)
	})
	wg.Wait()

	got, err := s.service.Get(ctx, tenantID)
	s.Require().NoError(err)
	s.True(roas.Equal(got.MinROASThreshold))
	s.Equal(models.ModeHardBlock, got.DefaultMode)
}

func (s *PostgresStoreSuite) TestDecimalsRoundTripExactly() {
	ctx := context.Background()
	tenantID := testutil.TestIDs.TenantID1
	roas := decimal.RequireFromString("1.23456")
	tiny := decimal.RequireFromString("0.00001")

	updated, err := s.service.Update(ctx, tenantID, models.SettingsPatch{MinROASThreshold: &roas, MaxCampaignBudget: &tiny}, "ops")
	s.Require().NoError(err)

	got, err := s.service.Get(ctx, tenantID)
	s.Require().NoError(err)
	s.True(roas.Equal(got.MinROASThreshold), "got %s", got.MinROASThreshold)
	s.Require().NotNil(got.MaxCampaignBudget)
	s.True(tiny.Equal(*got.MaxCampaignBudget), "got %s", got.MaxCampaignBudget)
	s.True(updated.MinROASThreshold.Equal(got.MinROASThreshold))

	huge := decimal.RequireFromString("12345678901234567890.125")
	_, err = s.service.Update(ctx, tenantID, models.SettingsPatch{MaxCampaignBudget: &huge}, "ops")
	s.Require().NoError(err)
	got, err = s.service.Get(ctx, tenantID)
	s.Require().NoError(err)
	s.True(huge.Equal(*got.MaxCampaignBudget), "got %s", got.MaxCampaignBudget)
}
