//go:build integration

package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"trustgate/internal/enforcement/models"
	"trustgate/internal/platform/kafka/producer"
	"trustgate/pkg/requestcontext"
	"trustgate/pkg/testutil"
	"trustgate/pkg/testutil/containers"
)

const auditTopic = "trustgate.enforcement.audit.test"

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	kafka *containers.KafkaContainer
	clock time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.pg = mgr.GetPostgres(s.T())
	s.kafka = mgr.GetKafka(s.T())
	s.Require().NoError(s.kafka.CreateTopic(context.Background(), auditTopic, 1, 1))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "enforcement_audit_log"))
	s.clock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

// tick advances the clock one second per call so entries order predictably.
func (s *PostgresStoreSuite) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *PostgresStoreSuite) newLog(opts ...Option) *Log {
	return New(NewPostgres(s.pg.DB), append([]Option{WithClock(s.tick)}, opts...)...)
}

func (s *PostgresStoreSuite) TestQueryNewestFirstWithinWindow() {
	ctx := requestcontext.WithActor(context.Background(), "ops@acme.test")
	log := s.newLog()
	tenantID := testutil.TestIDs.TenantID1

	events := []models.AuditEvent{models.EventSettingsUpdated, models.EventDecisionMade, models.EventOverrideConfirmed}
	for _, event := range events {
		_, err := log.Append(ctx, models.AuditEntry{TenantID: tenantID, Event: event})
		s.Require().NoError(err)
	}
	_, err := log.Append(ctx, models.AuditEntry{TenantID: testutil.TestIDs.TenantID2, Event: models.EventRuleAdded})
	s.Require().NoError(err)

	entries, err := log.Query(ctx, tenantID, time.Time{}, s.clock, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(models.EventOverrideConfirmed, entries[0].Event)
	s.Equal(models.EventSettingsUpdated, entries[2].Event)
	s.Equal("ops@acme.test", entries[0].Actor)

	limited, err := log.Query(ctx, tenantID, time.Time{}, s.clock, 2)
	s.Require().NoError(err)
	s.Len(limited, 2)

	windowStart := s.clock.Add(-time.Second)
	windowed, err := log.Query(ctx, tenantID, windowStart, s.clock, 0)
	s.Require().NoError(err)
	s.Require().Len(windowed, 1)
	s.Equal(models.EventOverrideConfirmed, windowed[0].Event)
}

func (s *PostgresStoreSuite) TestDecisionSnapshotRoundTrip() {
	ctx := context.Background()
	log := s.newLog()
	tenantID := testutil.TestIDs.TenantID1
	reason := "approved"
	action := testutil.NewActionBuilder().WithProposedBudget(700).Build()
	decision := models.Decision{
		Allowed:      true,
		ModeApplied:  models.ModeSoftBlock,
		Reason:       models.Reason{Code: models.ReasonOverrideConfirmed, Message: "override confirmed: approved"},
		MatchedRules: []models.RuleOutcome{},
		Action:       &action,
		EvaluatedAt:  s.clock,
	}

	_, err := log.Append(ctx, models.AuditEntry{
		TenantID:       tenantID,
		Event:          models.EventOverrideConfirmed,
		ActionType:     action.ActionType,
		EntityID:       action.EntityID,
		Decision:       &decision,
		OverrideReason: &reason,
	})
	s.Require().NoError(err)

	entries, err := log.Query(ctx, tenantID, time.Time{}, s.clock, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	got := entries[0]
	s.Equal(action.EntityID, got.EntityID)
	s.Require().NotNil(got.OverrideReason)
	s.Equal(reason, *got.OverrideReason)
	s.Require().NotNil(got.Decision)
	s.Equal(models.ReasonOverrideConfirmed, got.Decision.Reason.Code)
	s.Require().NotNil(got.Decision.Action)
	s.Equal(action.EntityID, got.Decision.Action.EntityID)
}

func (s *PostgresStoreSuite) TestEntriesArePublished() {
	ctx := requestcontext.WithRequestID(context.Background(), "req-kafka-1")
	p, err := producer.New(producer.DefaultConfig(s.kafka.Brokers), slog.Default())
	s.Require().NoError(err)
	defer p.Close() //nolint:errcheck // test cleanup

	log := s.newLog(WithPublisher(p, auditTopic))
	entry, err := log.Append(ctx, models.AuditEntry{
		TenantID: testutil.TestIDs.TenantID1,
		Event:    models.EventKillSwitchToggled,
		Detail:   "enabled",
	})
	s.Require().NoError(err)

	consumer, err := s.kafka.NewConsumer(auditTopic)
	s.Require().NoError(err)
	defer consumer.Close()

	record := s.kafka.WaitForRecord(ctx, consumer, 30*time.Second, func(r *kgo.Record) bool {
		var got models.AuditEntry
		return json.Unmarshal(r.Value, &got) == nil && got.ID == entry.ID
	})
	s.Require().NotNil(record, "audit entry was not published")
	s.Equal(testutil.TestIDs.TenantID1.String(), string(record.Key))

	headers := map[string]string{}
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	s.Equal(string(models.EventKillSwitchToggled), headers["event"])
	s.Equal("req-kafka-1", headers["request_id"])
}
