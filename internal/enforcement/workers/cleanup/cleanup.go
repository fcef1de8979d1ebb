package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"trustgate/internal/enforcement/metrics"
)

// DefaultSchedule purges expired confirmation tokens every five minutes.
const DefaultSchedule = "@every 5m"

// CleanupResult contains the results of a cleanup run.
type CleanupResult struct {
	TokensDeleted int
	Duration      time.Duration
}

// TokenPurger deletes confirmation tokens whose retention has lapsed at now.
type TokenPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type Option func(*TokenCleanupService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *TokenCleanupService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSchedule sets the cron expression. Descriptors such as "@every 1m"
// and standard five-field expressions are accepted.
func WithSchedule(schedule string) Option {
	return func(s *TokenCleanupService) {
		if schedule != "" {
			s.schedule = schedule
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *TokenCleanupService) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *TokenCleanupService) {
		if now != nil {
			s.now = now
		}
	}
}

type TokenCleanupService struct {
	purger   TokenPurger
	logger   *slog.Logger
	schedule string
	metrics  *metrics.Metrics
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func New(purger TokenPurger, opts ...Option) *TokenCleanupService {
	service := &TokenCleanupService{
		purger:   purger,
		logger:   slog.Default(),
		schedule: DefaultSchedule,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Start schedules cleanup runs and blocks until ctx is cancelled. It
// returns an error only for an invalid schedule.
func (s *TokenCleanupService) Start(ctx context.Context) error {
	s.mu.Lock()
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() { s.run(ctx) }); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("invalid token cleanup schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c
	s.running = true
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "token cleanup worker started", "schedule", s.schedule)

	<-ctx.Done()
	s.stop()
	s.logger.Info("token cleanup worker stopping", "reason", ctx.Err())
	return ctx.Err()
}

// IsRunning reports whether the cron scheduler is active.
func (s *TokenCleanupService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *TokenCleanupService) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil && s.running {
		// Wait for an in-flight run to finish.
		<-s.cron.Stop().Done()
		s.running = false
	}
}

func (s *TokenCleanupService) run(ctx context.Context) {
	res, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "token_cleanup_failed", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "token_cleanup_completed",
		"tokens_deleted", res.TokensDeleted,
		"duration_ms", res.Duration.Milliseconds(),
	)
}

// RunOnce executes a single cleanup run. Logging is handled by the caller.
func (s *TokenCleanupService) RunOnce(ctx context.Context) (*CleanupResult, error) {
	start := time.Now()
	deleted, err := s.purger.DeleteExpired(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.AddTokensPurged(deleted)
	}
	return &CleanupResult{TokensDeleted: deleted, Duration: time.Since(start)}, nil
}
