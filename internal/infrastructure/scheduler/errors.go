package scheduler

import "errors"

// Sentinel errors returned by the rebuild scheduler.
var (
	ErrSchedulerNotRunning = errors.New("snapshot scheduler is not running")
	ErrJobQueueFull        = errors.New("snapshot job queue is full")
	ErrInvalidConfig       = errors.New("invalid snapshot scheduler configuration")
	// ErrJobTimedOut marks a rebuild cut off by scheduler.job_timeout
	ErrJobTimedOut = errors.New("snapshot job timed out")
)
