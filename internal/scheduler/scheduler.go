// Package scheduler periodically refreshes a fixed set of entity ids.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/observability"
)

// DefaultTimeout bounds one refresh run per kind.
const DefaultTimeout = 2 * time.Minute

// Refresher re-fetches ids of one kind. *coordinator.Coordinator satisfies it.
type Refresher interface {
	Kind() domain.EntityKind
	Refresh(ctx context.Context, ids []string, periods []domain.Period) error
}

// Job pairs a refresher with the ids it keeps fresh.
type Job struct {
	Refresher Refresher
	IDs       []string
}

// Scheduler manages the refresh cron task.
type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	periods []domain.Period
	timeout time.Duration
	logger  *zap.Logger
	ctx     context.Context
}

// Option configures Scheduler.
type Option func(*Scheduler)

// WithPeriods sets the periods fetched on every refresh.
func WithPeriods(periods []domain.Period) Option {
	return func(s *Scheduler) {
		if len(periods) > 0 {
			s.periods = periods
		}
	}
}

// WithTimeout bounds each refresh run.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a scheduler for jobs. Jobs without ids are dropped.
func New(ctx context.Context, jobs []Job, opts ...Option) *Scheduler {
	s := &Scheduler{
		periods: domain.DefaultPeriods,
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
		ctx:     ctx,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, j := range jobs {
		if j.Refresher != nil && len(j.IDs) > 0 {
			s.jobs = append(s.jobs, j)
		}
	}

	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	cl := cronLogger{s.logger.Sugar()}
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return s
}

// Register schedules the refresh task on spec. Accepts 5 or 6 field
// expressions and descriptors such as "@every 5m".
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.refreshAll); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Jobs returns the number of jobs with ids.
func (s *Scheduler) Jobs() int {
	return len(s.jobs)
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunNow runs every job immediately and returns the first error.
func (s *Scheduler) RunNow() error {
	var first error
	for _, j := range s.jobs {
		if err := s.refresh(j); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (s *Scheduler) refreshAll() {
	_ = s.RunNow()
}

func (s *Scheduler) refresh(j Job) error {
	kind := j.Refresher.Kind()
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := j.Refresher.Refresh(ctx, j.IDs, s.periods)
	observability.RecordRefreshRun(kind.String(), err)
	if err != nil {
		s.logger.Error("refresh failed",
			zap.String("kind", kind.String()),
			zap.Int("ids", len(j.IDs)),
			zap.Error(err),
		)
		return fmt.Errorf("refresh %s: %w", kind, err)
	}

	s.logger.Info("refresh complete",
		zap.String("kind", kind.String()),
		zap.Int("ids", len(j.IDs)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
