package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storepulse/backend/internal/domain/commerce"
	"github.com/storepulse/backend/internal/domain/snapshot"
)

// OrganizationProvider lists the organizations the daily rebuild covers
type OrganizationProvider interface {
	ListActiveOrganizations(ctx context.Context) ([]commerce.Organization, error)
}

// CronSchedulerConfig holds configuration for the daily snapshot rebuild
type CronSchedulerConfig struct {
	Enabled           bool
	CronHour          int
	CronMinute        int
	DailyCronSchedule string // "minute hour * * *"
	JobTimeout        time.Duration
	MaxConcurrentJobs int
	RetryAttempts     int
	RetryDelay        time.Duration
}

// DefaultCronSchedulerConfig returns default cron scheduler configuration.
// Defaults to running at 3:00 AM daily.
func DefaultCronSchedulerConfig() CronSchedulerConfig {
	return CronSchedulerConfig{
		Enabled:           true,
		CronHour:          3,
		CronMinute:        0,
		DailyCronSchedule: "0 3 * * *",
		JobTimeout:        30 * time.Minute,
		MaxConcurrentJobs: 3,
		RetryAttempts:     3,
		RetryDelay:        5 * time.Minute,
	}
}

// ParseCronSchedule extracts hour and minute from "minute hour * * *".
// An empty expression yields 3:00.
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	hour, minute = 3, 0

	parts := strings.Fields(cronExpr)
	if len(parts) < 2 {
		return hour, minute, nil
	}

	if parts[0] != "*" {
		if minute, err = strconv.Atoi(parts[0]); err != nil {
			return 3, 0, fmt.Errorf("%w: minute %q", ErrInvalidConfig, parts[0])
		}
	}
	if parts[1] != "*" {
		if hour, err = strconv.Atoi(parts[1]); err != nil {
			return 3, 0, fmt.Errorf("%w: hour %q", ErrInvalidConfig, parts[1])
		}
	}

	if minute < 0 || minute > 59 {
		return 3, 0, fmt.Errorf("%w: minute must be 0-59, got %d", ErrInvalidConfig, minute)
	}
	if hour < 0 || hour > 23 {
		return 3, 0, fmt.Errorf("%w: hour must be 0-23, got %d", ErrInvalidConfig, hour)
	}
	return hour, minute, nil
}

// CronScheduler rebuilds every snapshot of every active organization once a
// day and accepts manual or post-sync triggers for a single organization.
type CronScheduler struct {
	config    CronSchedulerConfig
	orgs      OrganizationProvider
	logger    *zap.Logger
	scheduler *Scheduler
	now       func() time.Time

	stop context.CancelFunc
	loop sync.WaitGroup

	mu        sync.Mutex
	started   bool
	lastRunAt *time.Time
	nextRunAt *time.Time
}

// NewCronScheduler wires the worker pool to executor and history
func NewCronScheduler(
	config CronSchedulerConfig,
	executor JobExecutor,
	orgs OrganizationProvider,
	history JobHistory,
	logger *zap.Logger,
) *CronScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.DailyCronSchedule != "" {
		hour, minute, err := ParseCronSchedule(config.DailyCronSchedule)
		if err != nil {
			logger.Warn("Invalid daily cron schedule, using configured hour and minute",
				zap.String("schedule", config.DailyCronSchedule), zap.Error(err))
		} else {
			config.CronHour, config.CronMinute = hour, minute
		}
	}

	pool := NewScheduler(SchedulerConfig{
		Enabled:           config.Enabled,
		MaxConcurrentJobs: config.MaxConcurrentJobs,
		JobTimeout:        config.JobTimeout,
		RetryAttempts:     config.RetryAttempts,
		RetryDelay:        config.RetryDelay,
	}, executor, logger)
	if history != nil {
		pool.SetHistory(history)
	}

	return &CronScheduler{
		config:    config,
		orgs:      orgs,
		logger:    logger,
		scheduler: pool,
		now:       time.Now,
	}
}

// Start starts the worker pool and, when enabled, the daily run loop
func (s *CronScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if err := s.scheduler.Start(ctx); err != nil {
		return err
	}
	s.started = true

	if !s.config.Enabled {
		s.logger.Info("Daily snapshot rebuild disabled, accepting manual triggers only")
		return nil
	}

	ctx, s.stop = context.WithCancel(ctx)
	next := s.advanceLocked()
	s.loop.Add(1)
	go s.daily(ctx)

	s.logger.Info("Daily snapshot rebuild scheduled",
		zap.String("at", fmt.Sprintf("%02d:%02d", s.config.CronHour, s.config.CronMinute)),
		zap.Time("next_run_at", next),
	)
	return nil
}

// Stop ends the daily loop, then drains the worker pool until ctx expires
func (s *CronScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	if s.stop != nil {
		s.stop()
	}
	s.mu.Unlock()

	s.loop.Wait()
	return s.scheduler.Stop(ctx)
}

// daily sleeps until the next run time, runs, and repeats
func (s *CronScheduler) daily(ctx context.Context) {
	defer s.loop.Done()

	timer := time.NewTimer(s.untilNextRun())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.RunDaily(ctx)
			s.mu.Lock()
			s.advanceLocked()
			s.mu.Unlock()
			timer.Reset(s.untilNextRun())
		}
	}
}

func (s *CronScheduler) untilNextRun() time.Duration {
	next := s.GetNextRunAt()
	if next == nil {
		return 0
	}
	return max(next.Sub(s.now()), 0)
}

// nextRun is the first configured hour:minute strictly after now
func (s *CronScheduler) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.config.CronHour, s.config.CronMinute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *CronScheduler) advanceLocked() time.Time {
	next := s.nextRun(s.now())
	s.nextRunAt = &next
	return next
}

// RunDaily submits a rebuild of every kind for every active organization.
// It returns the number of submitted jobs.
func (s *CronScheduler) RunDaily(ctx context.Context) int {
	now := s.now()
	s.mu.Lock()
	s.lastRunAt = &now
	s.mu.Unlock()

	orgs, err := s.orgs.ListActiveOrganizations(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch active organizations for snapshot rebuild", zap.Error(err))
		return 0
	}

	submitted := 0
	for _, org := range orgs {
		jobs, err := s.scheduler.ScheduleOrganization(org.ID, TriggerCron, 0)
		submitted += len(jobs)
		if err != nil {
			s.logger.Error("Failed to schedule snapshot rebuild",
				zap.String("organization_id", org.ID.String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Daily snapshot rebuild jobs scheduled",
		zap.Int("organization_count", len(orgs)),
		zap.Int("jobs", submitted),
	)
	return submitted
}

// TriggerOrganization queues a rebuild for one organization. With kind empty
// every snapshot kind is rebuilt.
func (s *CronScheduler) TriggerOrganization(orgID uuid.UUID, kind snapshot.Kind, trigger Trigger, windowDays int) ([]*Job, error) {
	if kind == "" {
		return s.scheduler.ScheduleOrganization(orgID, trigger, windowDays)
	}
	job, err := s.scheduler.submitCopy(NewJob(orgID, kind, trigger, windowDays, s.config.RetryAttempts))
	if err != nil {
		return nil, err
	}
	return []*Job{job}, nil
}

// Status is a point-in-time view of the cron scheduler
type Status struct {
	Enabled    bool       `json:"enabled"`
	IsRunning  bool       `json:"is_running"`
	CronHour   int        `json:"cron_hour"`
	CronMinute int        `json:"cron_minute"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	NextRunAt  *time.Time `json:"next_run_at,omitempty"`
}

// GetStatus returns the current status of the cron scheduler
func (s *CronScheduler) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		Enabled:    s.config.Enabled,
		IsRunning:  s.started,
		CronHour:   s.config.CronHour,
		CronMinute: s.config.CronMinute,
		LastRunAt:  s.lastRunAt,
		NextRunAt:  s.nextRunAt,
	}
}

// GetNextRunAt returns when the next scheduled run will occur
func (s *CronScheduler) GetNextRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunAt
}
