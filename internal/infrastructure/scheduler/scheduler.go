package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storepulse/backend/internal/domain/snapshot"
)

const historyWriteTimeout = 5 * time.Second

// JobExecutor runs a snapshot rebuild job
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// JobHistory persists job runs. Failures to record are logged, never fatal.
type JobHistory interface {
	RecordJobStart(ctx context.Context, job *Job) error
	RecordJobComplete(ctx context.Context, job *Job) error
}

// SchedulerConfig sizes the worker pool.
type SchedulerConfig struct {
	Enabled           bool
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	QueueSize         int
}

// DefaultSchedulerConfig returns three workers, a 30 minute job timeout and
// three retries five minutes apart.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 3,
		JobTimeout:        30 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        5 * time.Minute,
		QueueSize:         100,
	}
}

// Scheduler runs rebuild jobs on a fixed pool of workers. Failed jobs are
// resubmitted after RetryDelay while the scheduler runs.
type Scheduler struct {
	config   SchedulerConfig
	executor JobExecutor
	history  JobHistory
	logger   *zap.Logger

	queue   chan *Job
	cancel  context.CancelFunc
	workers sync.WaitGroup

	mu      sync.Mutex
	running bool
	retries map[uuid.UUID]*time.Timer
}

// NewScheduler creates a stopped scheduler
func NewScheduler(config SchedulerConfig, executor JobExecutor, logger *zap.Logger) *Scheduler {
	config.MaxConcurrentJobs = max(config.MaxConcurrentJobs, 1)
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:   config,
		executor: executor,
		logger:   logger,
		retries:  make(map[uuid.UUID]*time.Timer),
	}
}

// SetHistory sets where job runs are recorded
func (s *Scheduler) SetHistory(history JobHistory) {
	s.history = history
}

// Start launches the workers. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.queue = make(chan *Job, s.config.QueueSize)
	s.running = true
	for i := range s.config.MaxConcurrentJobs {
		s.workers.Add(1)
		go s.work(ctx, i)
	}

	s.logger.Info("Snapshot scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop drops pending retries, cancels running jobs and waits for the workers
// until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	for id, timer := range s.retries {
		timer.Stop()
		delete(s.retries, id)
	}
	close(s.queue)
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Snapshot scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Snapshot scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the scheduler accepts jobs
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SubmitJob queues a job without blocking
func (s *Scheduler) SubmitJob(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enqueueLocked(job)
}

func (s *Scheduler) enqueueLocked(job *Job) error {
	if !s.running {
		return ErrSchedulerNotRunning
	}
	select {
	case s.queue <- job:
		return nil
	default:
		return ErrJobQueueFull
	}
}

// ScheduleOrganization queues one job per snapshot kind. Jobs queued before
// an error are returned with it.
func (s *Scheduler) ScheduleOrganization(orgID uuid.UUID, trigger Trigger, windowDays int) ([]*Job, error) {
	kinds := snapshot.AllKinds()
	jobs := make([]*Job, 0, len(kinds))
	for _, kind := range kinds {
		job, err := s.submitCopy(NewJob(orgID, kind, trigger, windowDays, s.config.RetryAttempts))
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// submitCopy queues job and returns its state at submission. Workers own
// the queued job from then on.
func (s *Scheduler) submitCopy(job *Job) (*Job, error) {
	queued := *job
	if err := s.SubmitJob(job); err != nil {
		return nil, err
	}
	return &queued, nil
}

func (s *Scheduler) work(ctx context.Context, id int) {
	defer s.workers.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.queue:
			if !ok {
				return
			}
			s.run(ctx, job, id)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, job *Job, workerID int) {
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.Stringer("job_id", job.ID),
		zap.Stringer("organization_id", job.OrganizationID),
		zap.String("kind", string(job.Kind)),
		zap.String("trigger", string(job.Trigger)),
		zap.Int("attempt", job.RetryCount+1),
	)

	job.Start()
	s.record(ctx, job, s.historyStart)
	log.Info("Processing job")

	err := s.execute(ctx, job)
	switch {
	case err == nil:
		job.Complete()
		log.Info("Job completed")
	case errors.Is(err, snapshot.ErrRebuildInProgress):
		job.Skip(err.Error())
		log.Info("Job skipped, rebuild already in progress")
	case errors.Is(err, snapshot.ErrStaleGeneration):
		job.Skip(err.Error())
		log.Info("Job skipped, a newer generation was published first")
	default:
		job.Fail(err.Error())
		log.Error("Job failed", zap.Error(err))
	}
	s.record(ctx, job, s.historyComplete)

	if job.ShouldRetry() {
		job.ScheduleRetry(s.config.RetryDelay)
		log.Info("Job scheduled for retry", zap.Time("next_retry_at", *job.NextRetryAt))
		s.retryLater(job, log)
	}
}

// execute runs the job under JobTimeout, naming the timeout when it fired
func (s *Scheduler) execute(ctx context.Context, job *Job) error {
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.executor.Execute(jobCtx, job)
	if err != nil && errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %v", ErrJobTimedOut, s.config.JobTimeout, err)
	}
	return err
}

// retryLater resubmits job once its retry delay elapses
func (s *Scheduler) retryLater(job *Job, log *zap.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.retries[job.ID] = time.AfterFunc(s.config.RetryDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.retries, job.ID)
		if err := s.enqueueLocked(job); err != nil && !errors.Is(err, ErrSchedulerNotRunning) {
			log.Warn("Failed to resubmit job for retry", zap.Error(err))
		}
	})
}

func (s *Scheduler) historyStart(ctx context.Context, job *Job) error {
	return s.history.RecordJobStart(ctx, job)
}

func (s *Scheduler) historyComplete(ctx context.Context, job *Job) error {
	return s.history.RecordJobComplete(ctx, job)
}

// record writes to the history even when ctx is cancelled, so a job
// interrupted by shutdown still gets its outcome stored.
func (s *Scheduler) record(ctx context.Context, job *Job, write func(context.Context, *Job) error) {
	if s.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()
	if err := write(ctx, job); err != nil {
		s.logger.Warn("Failed to record job run", zap.Stringer("job_id", job.ID), zap.Error(err))
	}
}
