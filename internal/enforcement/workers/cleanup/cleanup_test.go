package cleanup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"trustgate/internal/enforcement/metrics"
	"trustgate/internal/enforcement/models"
	"trustgate/internal/enforcement/tokens"
)

type mockPurger struct {
	calls      atomic.Int32
	lastNow    time.Time
	toReturn   int
	errToReturn error
}

func (m *mockPurger) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	m.calls.Add(1)
	m.lastNow = now
	return m.toReturn, m.errToReturn
}

type TokenCleanupSuite struct {
	suite.Suite
	purger  *mockPurger
	metrics *metrics.Metrics
	now     time.Time
	service *TokenCleanupService
}

func TestTokenCleanupSuite(t *testing.T) {
	suite.Run(t, new(TokenCleanupSuite))
}

func (s *TokenCleanupSuite) SetupTest() {
	s.purger = &mockPurger{}
	s.metrics = metrics.New(nil)
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.service = New(s.purger,
		WithMetrics(s.metrics),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *TokenCleanupSuite) TestRunOncePassesClockAndCountsPurged() {
	s.purger.toReturn = 4

	res, err := s.service.RunOnce(context.Background())

	s.Require().NoError(err)
	s.Equal(4, res.TokensDeleted)
	s.Equal(s.now, s.purger.lastNow)
	s.Equal(float64(4), testutil.ToFloat64(s.metrics.TokensPurged))
}

func (s *TokenCleanupSuite) TestRunOncePropagatesError() {
	s.purger.errToReturn = errors.New("db down")

	res, err := s.service.RunOnce(context.Background())

	s.Require().Error(err)
	s.Nil(res)
	s.Equal(float64(0), testutil.ToFloat64(s.metrics.TokensPurged))
}

func (s *TokenCleanupSuite) TestStartRejectsInvalidSchedule() {
	svc := New(s.purger, WithSchedule("not a schedule"))

	err := svc.Start(context.Background())

	s.Require().Error(err)
	s.Contains(err.Error(), "invalid token cleanup schedule")
	s.False(svc.IsRunning())
}

func (s *TokenCleanupSuite) TestStartRunsOnScheduleUntilCancelled() {
	svc := New(s.purger, WithSchedule("@every 1s"))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	s.Eventually(func() bool { return s.purger.calls.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
	s.True(svc.IsRunning())

	cancel()
	select {
	case err := <-done:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(5 * time.Second):
		s.Fail("worker did not stop after cancellation")
	}
	s.False(svc.IsRunning())
}

// The worker drives the real vault: tokens past expiry plus retention are
// removed, fresh ones survive.
func (s *TokenCleanupSuite) TestPurgesVaultTokensPastRetention() {
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	vault := tokens.NewVault(tokens.NewInMemoryStore(),
		tokens.WithClock(func() time.Time { return clock }),
	)
	action := models.ProposedAction{ActionType: "budget_change", EntityID: "cmp_1"}

	_, err := vault.Issue(context.Background(), "acme", action)
	s.Require().NoError(err)

	clock = clock.Add(tokens.DefaultTTL + tokens.DefaultRetention + time.Minute)
	fresh, err := vault.Issue(context.Background(), "acme", action)
	s.Require().NoError(err)

	svc := New(vault, WithClock(func() time.Time { return clock }))
	res, err := svc.RunOnce(context.Background())
	s.Require().NoError(err)
	s.Equal(1, res.TokensDeleted)

	_, err = vault.Consume(context.Background(), "acme", fresh.Token, "still valid")
	s.NoError(err)
}
