package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storepulse/backend/internal/domain/snapshot"
)

// fakeExecutor returns queued errors in order, then nil
type fakeExecutor struct {
	mu     sync.Mutex
	errs   []error
	calls  []*Job
	doneCh chan *Job
}

func newFakeExecutor(errs ...error) *fakeExecutor {
	return &fakeExecutor{errs: errs, doneCh: make(chan *Job, 16)}
}

func (f *fakeExecutor) Execute(ctx context.Context, job *Job) error {
	f.mu.Lock()
	f.calls = append(f.calls, job)
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	f.mu.Unlock()
	f.doneCh <- job
	return err
}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type memoryHistory struct {
	mu       sync.Mutex
	starts   int
	outcomes []JobStatus
}

func (h *memoryHistory) RecordJobStart(_ context.Context, _ *Job) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts++
	return nil
}

func (h *memoryHistory) RecordJobComplete(_ context.Context, job *Job) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outcomes = append(h.outcomes, job.Status)
	return nil
}

func (h *memoryHistory) snapshot() (int, []JobStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.starts, append([]JobStatus(nil), h.outcomes...)
}

func waitFor(t *testing.T, ch <-chan *Job, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for job %d of %d", i+1, n)
		}
	}
}

func testSchedulerConfig() SchedulerConfig {
	cfg := DefaultSchedulerConfig()
	cfg.MaxConcurrentJobs = 1
	cfg.RetryAttempts = 2
	cfg.RetryDelay = 10 * time.Millisecond
	cfg.JobTimeout = time.Second
	return cfg
}

func TestJobLifecycle(t *testing.T) {
	job := NewJob(uuid.New(), snapshot.KindInventory, TriggerManual, 30, 1)
	assert.Equal(t, JobStatusPending, job.Status)

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)

	job.Fail("boom")
	assert.True(t, job.ShouldRetry())
	job.ScheduleRetry(time.Minute)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Empty(t, job.Error)

	job.Start()
	job.Fail("boom again")
	assert.False(t, job.ShouldRetry(), "retries exhausted")

	job.Skip("busy")
	assert.False(t, job.ShouldRetry(), "skipped jobs are not retried")
}

func TestScheduler_SubmitRequiresRunning(t *testing.T) {
	s := NewScheduler(testSchedulerConfig(), newFakeExecutor(), zap.NewNop())
	err := s.SubmitJob(NewJob(uuid.New(), snapshot.KindCustomer, TriggerManual, 0, 0))
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestScheduler_RunsAndRecordsJobs(t *testing.T) {
	exec := newFakeExecutor()
	history := &memoryHistory{}
	s := NewScheduler(testSchedulerConfig(), exec, zap.NewNop())
	s.SetHistory(history)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	jobs, err := s.ScheduleOrganization(uuid.New(), TriggerManual, 0)
	require.NoError(t, err)
	require.Len(t, jobs, len(snapshot.AllKinds()))

	waitFor(t, exec.doneCh, len(jobs))
	require.Eventually(t, func() bool {
		_, outcomes := history.snapshot()
		return len(outcomes) == len(jobs)
	}, time.Second, 10*time.Millisecond)

	starts, outcomes := history.snapshot()
	assert.Equal(t, len(jobs), starts)
	for _, st := range outcomes {
		assert.Equal(t, JobStatusSuccess, st)
	}
}

func TestScheduler_RetriesFailures(t *testing.T) {
	exec := newFakeExecutor(errors.New("db down"))
	s := NewScheduler(testSchedulerConfig(), exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	job := NewJob(uuid.New(), snapshot.KindInventory, TriggerCron, 0, 2)
	require.NoError(t, s.SubmitJob(job))

	waitFor(t, exec.doneCh, 2)
	assert.Equal(t, 2, exec.callCount())
}

func TestScheduler_SkipsWithoutRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"contended lease", snapshot.ErrRebuildInProgress},
		{"superseded generation", fmt.Errorf("publish inventory snapshot: %w", snapshot.ErrStaleGeneration)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newFakeExecutor(tt.err)
			history := &memoryHistory{}
			s := NewScheduler(testSchedulerConfig(), exec, zap.NewNop())
			s.SetHistory(history)
			require.NoError(t, s.Start(context.Background()))

			require.NoError(t, s.SubmitJob(NewJob(uuid.New(), snapshot.KindInventory, TriggerCron, 0, 3)))
			waitFor(t, exec.doneCh, 1)

			require.Eventually(t, func() bool {
				_, outcomes := history.snapshot()
				return len(outcomes) == 1
			}, time.Second, 10*time.Millisecond)
			require.NoError(t, s.Stop(context.Background()))

			_, outcomes := history.snapshot()
			assert.Equal(t, []JobStatus{JobStatusSkipped}, outcomes)
			assert.Equal(t, 1, exec.callCount())
		})
	}
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := NewScheduler(testSchedulerConfig(), newFakeExecutor(), zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.IsRunning())
}

type blockingExecutor struct{}

func (blockingExecutor) Execute(ctx context.Context, _ *Job) error {
	<-ctx.Done()
	return ctx.Err()
}

type errorCapture struct {
	memoryHistory
	errs chan string
}

func (h *errorCapture) RecordJobComplete(ctx context.Context, job *Job) error {
	h.errs <- job.Error
	return h.memoryHistory.RecordJobComplete(ctx, job)
}

func TestScheduler_JobTimeout(t *testing.T) {
	cfg := testSchedulerConfig()
	cfg.JobTimeout = 20 * time.Millisecond
	history := &errorCapture{errs: make(chan string, 1)}
	s := NewScheduler(cfg, blockingExecutor{}, zap.NewNop())
	s.SetHistory(history)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	require.NoError(t, s.SubmitJob(NewJob(uuid.New(), snapshot.KindCustomer, TriggerManual, 0, 0)))

	select {
	case msg := <-history.errs:
		assert.Contains(t, msg, ErrJobTimedOut.Error())
	case <-time.After(5 * time.Second):
		t.Fatal("job never completed")
	}
}

func TestScheduler_StopDropsPendingRetries(t *testing.T) {
	cfg := testSchedulerConfig()
	cfg.RetryDelay = time.Hour
	exec := newFakeExecutor(errors.New("db down"))
	s := NewScheduler(cfg, exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))

	job := NewJob(uuid.New(), snapshot.KindInventory, TriggerCron, 0, 1)
	require.NoError(t, s.SubmitJob(job))
	waitFor(t, exec.doneCh, 1)

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.retries) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
	assert.Empty(t, s.retries)
	assert.Equal(t, JobStatusPending, job.Status)
	require.NotNil(t, job.NextRetryAt)
}
