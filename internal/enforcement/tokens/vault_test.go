package tokens

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trustgate/internal/enforcement/models"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/testutil"
)

type VaultSuite struct {
	suite.Suite
	store *InMemoryStore
	vault *Vault
	clock *fakeClock
	ctx   context.Context
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestVaultSuite(t *testing.T) {
	suite.Run(t, new(VaultSuite))
}

func (s *VaultSuite) SetupTest() {
	s.clock = &fakeClock{now: time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)}
	s.store = NewInMemoryStore()
	s.vault = NewVault(s.store, WithClock(s.clock.Now))
	s.ctx = context.Background()
}

func snapshot() models.ProposedAction {
	return models.ProposedAction{
		ActionType:    "budget_change",
		EntityType:    "campaign",
		EntityID:      "cmp_42",
		ProposedValue: map[string]any{"budget": 7500},
		CurrentValue:  map[string]any{"budget": 5000},
	}
}

func (s *VaultSuite) issue() *models.ConfirmationToken {
	tok, err := s.vault.Issue(s.ctx, "acme", snapshot())
	s.Require().NoError(err)
	return tok
}

func (s *VaultSuite) TestIssue_TokenShapeAndExpiry() {
	tok := s.issue()

	s.True(strings.HasPrefix(tok.Token, TokenPrefix))
	s.Greater(len(tok.Token), len(TokenPrefix)+40)
	s.Equal(s.clock.Now(), tok.IssuedAt)
	s.Equal(s.clock.Now().Add(15*time.Minute), tok.ExpiresAt)
	s.False(tok.Used)
	s.Equal("cmp_42", tok.ActionSnapshot.EntityID)
}

func (s *VaultSuite) TestIssue_TokensAreUnique() {
	seen := make(map[string]struct{})
	for range 100 {
		tok := s.issue()
		_, dup := seen[tok.Token]
		s.False(dup)
		seen[tok.Token] = struct{}{}
	}
}

func (s *VaultSuite) TestIssue_SnapshotIsIsolatedFromCaller() {
	action := snapshot()
	tok, err := s.vault.Issue(s.ctx, "acme", action)
	s.Require().NoError(err)

	action.ProposedValue["budget"] = 999999

	res, err := s.vault.Consume(s.ctx, "acme", tok.Token, "approved by ops")
	s.Require().NoError(err)
	s.Equal(7500, res.ActionSnapshot.ProposedValue["budget"])
}

func (s *VaultSuite) TestIssue_RejectsInvalidSnapshot() {
	_, err := s.vault.Issue(s.ctx, "acme", models.ProposedAction{ActionType: "pause"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *VaultSuite) TestIssue_GeneratorFailureIsInternal() {
	vault := NewVault(s.store, WithGenerator(func() (string, error) { return "", errors.New("entropy exhausted") }))
	_, err := vault.Issue(s.ctx, "acme", snapshot())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *VaultSuite) TestConsume_Success() {
	tok := s.issue()
	s.clock.Advance(5 * time.Minute)

	res, err := s.vault.Consume(s.ctx, "acme", tok.Token, "  seasonal push  ")
	s.Require().NoError(err)

	s.True(res.Token.Used)
	s.Require().NotNil(res.Token.UsedAt)
	s.Equal(s.clock.Now(), *res.Token.UsedAt)
	s.Equal("seasonal push", res.Token.OverrideReason)
	s.Equal("budget_change", res.ActionSnapshot.ActionType)

	stored, err := s.store.Find(s.ctx, tok.Token)
	s.Require().NoError(err)
	s.True(stored.Used)
}

func (s *VaultSuite) TestConsume_SecondUseFails() {
	tok := s.issue()
	_, err := s.vault.Consume(s.ctx, "acme", tok.Token, "first")
	s.Require().NoError(err)

	_, err = s.vault.Consume(s.ctx, "acme", tok.Token, "second")
	s.ErrorIs(err, models.ErrTokenAlreadyUsed)
	s.True(dErrors.HasCode(err, dErrors.CodeTokenAlreadyUsed))
}

func (s *VaultSuite) TestConsume_Expired() {
	tok := s.issue()
	s.clock.Advance(16 * time.Minute)

	_, err := s.vault.Consume(s.ctx, "acme", tok.Token, "too late")
	s.ErrorIs(err, models.ErrTokenExpired)

	stored, err := s.store.Find(s.ctx, tok.Token)
	s.Require().NoError(err)
	s.False(stored.Used, "expired token must not be marked used")
}

func (s *VaultSuite) TestConsume_ExpiryBoundaryIsExclusive() {
	tok := s.issue()
	s.clock.Advance(15 * time.Minute)

	_, err := s.vault.Consume(s.ctx, "acme", tok.Token, "at expiry")
	s.ErrorIs(err, models.ErrTokenExpired)
}

func (s *VaultSuite) TestConsume_ExpiryCheckedBeforeUsedFlag() {
	tok := s.issue()
	_, err := s.vault.Consume(s.ctx, "acme", tok.Token, "first")
	s.Require().NoError(err)
	s.clock.Advance(20 * time.Minute)

	_, err = s.vault.Consume(s.ctx, "acme", tok.Token, "replay")
	s.ErrorIs(err, models.ErrTokenExpired)
}

func (s *VaultSuite) TestConsume_OtherTenantSeesNotFound() {
	tok := s.issue()

	_, err := s.vault.Consume(s.ctx, "globex", tok.Token, "cross tenant")
	s.ErrorIs(err, models.ErrTokenNotFound)

	res, err := s.vault.Consume(s.ctx, "acme", tok.Token, "owner")
	s.Require().NoError(err)
	s.True(res.Token.Used)
}

func (s *VaultSuite) TestConsume_UnknownToken() {
	_, err := s.vault.Consume(s.ctx, "acme", "cft_does-not-exist", "why")
	s.ErrorIs(err, models.ErrTokenNotFound)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.vault.Consume(s.ctx, "acme", "", "why")
	s.ErrorIs(err, models.ErrTokenNotFound)
}

func (s *VaultSuite) TestConsume_RequiresOverrideReason() {
	tok := s.issue()

	_, err := s.vault.Consume(s.ctx, "acme", tok.Token, "   ")
	s.ErrorIs(err, models.ErrOverrideRequired)

	stored, err := s.store.Find(s.ctx, tok.Token)
	s.Require().NoError(err)
	s.False(stored.Used)
}

func (s *VaultSuite) TestConsume_ConcurrentExactlyOneSucceeds() {
	tok := s.issue()

	result := testutil.RunConcurrent(50, func(int) error {
		_, err := s.vault.Consume(s.ctx, "acme", tok.Token, "race")
		return err
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(49), result.Conflicts)
	s.Zero(result.Errors)
}

func (s *VaultSuite) TestDeleteExpired_KeepsRetentionWindow() {
	live := s.issue()
	s.clock.Advance(-2 * time.Hour)
	old := s.issue()
	s.clock.Advance(2 * time.Hour)

	deleted, err := s.vault.DeleteExpired(s.ctx, s.clock.Now())
	s.Require().NoError(err)
	s.Equal(1, deleted)

	_, err = s.store.Find(s.ctx, old.Token)
	s.Error(err)
	_, err = s.store.Find(s.ctx, live.Token)
	s.NoError(err)
}

func (s *VaultSuite) TestWithTTL() {
	vault := NewVault(s.store, WithClock(s.clock.Now), WithTTL(2*time.Minute))
	tok, err := vault.Issue(s.ctx, "acme", snapshot())
	s.Require().NoError(err)
	s.Equal(2*time.Minute, tok.ExpiresAt.Sub(tok.IssuedAt))
	s.Equal(2*time.Minute, vault.TTL())
}
