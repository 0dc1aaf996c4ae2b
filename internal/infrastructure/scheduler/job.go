package scheduler

import (
	"time"

	"github.com/google/uuid"

	"github.com/storepulse/backend/internal/domain/snapshot"
)

// JobStatus is the state of a rebuild job run
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
	// JobStatusSkipped means another rebuild held the lease.
	JobStatusSkipped JobStatus = "SKIPPED"
)

// Trigger identifies what started a rebuild job
type Trigger string

const (
	TriggerCron   Trigger = "cron"
	TriggerManual Trigger = "manual"
	TriggerSync   Trigger = "sync"
)

// Job rebuilds one snapshot kind of one organization. A retried job keeps
// its ID so its history row is updated in place.
type Job struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Kind           snapshot.Kind
	Trigger        Trigger
	WindowDays     int // 0 means the configured default
	Status         JobStatus
	Error          string
	StartedAt      *time.Time
	CompletedAt    *time.Time
	RetryCount     int
	MaxRetries     int
	NextRetryAt    *time.Time
}

// NewJob creates a pending job
func NewJob(orgID uuid.UUID, kind snapshot.Kind, trigger Trigger, windowDays, maxRetries int) *Job {
	return &Job{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Kind:           kind,
		Trigger:        trigger,
		WindowDays:     windowDays,
		Status:         JobStatusPending,
		MaxRetries:     maxRetries,
	}
}

func timestamp() *time.Time {
	now := time.Now()
	return &now
}

// Start moves the job to running and clears any previous outcome
func (j *Job) Start() {
	j.Status = JobStatusRunning
	j.StartedAt = timestamp()
	j.CompletedAt = nil
	j.NextRetryAt = nil
	j.Error = ""
}

func (j *Job) finish(status JobStatus, reason string) {
	j.Status = status
	j.CompletedAt = timestamp()
	j.Error = reason
}

// Complete records success
func (j *Job) Complete() { j.finish(JobStatusSuccess, "") }

// Skip records that the rebuild did not run, with the reason
func (j *Job) Skip(reason string) { j.finish(JobStatusSkipped, reason) }

// Fail records failure with the error message
func (j *Job) Fail(reason string) { j.finish(JobStatusFailed, reason) }

// ShouldRetry reports whether a failed job has retries left. Skipped jobs
// are never retried.
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry returns the job to pending, due after delay
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	j.Error = ""
	due := time.Now().Add(delay)
	j.NextRetryAt = &due
}
