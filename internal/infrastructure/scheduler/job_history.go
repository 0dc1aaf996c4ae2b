package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobRunRecord is one persisted run of a rebuild job
type JobRunRecord struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	Kind           string     `gorm:"column:kind;size:20;not null" json:"kind"`
	Trigger        string     `gorm:"column:trigger;size:20;not null" json:"trigger"`
	Status         string     `gorm:"column:status;size:20;not null" json:"status"`
	Error          string     `gorm:"column:error;type:text" json:"error,omitempty"`
	RetryCount     int        `gorm:"column:retry_count;not null;default:0" json:"retry_count"`
	StartedAt      *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt    *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName returns the table name for GORM
func (JobRunRecord) TableName() string {
	return "snapshot_job_runs"
}

// GormJobHistory persists job runs with GORM
type GormJobHistory struct {
	db *gorm.DB
}

// NewGormJobHistory creates a new GormJobHistory
func NewGormJobHistory(db *gorm.DB) *GormJobHistory {
	return &GormJobHistory{db: db}
}

func recordFor(job *Job) *JobRunRecord {
	now := time.Now()
	return &JobRunRecord{
		ID:             job.ID,
		OrganizationID: job.OrganizationID,
		Kind:           string(job.Kind),
		Trigger:        string(job.Trigger),
		Status:         string(job.Status),
		Error:          job.Error,
		RetryCount:     job.RetryCount,
		StartedAt:      job.StartedAt,
		CompletedAt:    job.CompletedAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// RecordJobStart upserts the run row of a job that is starting. A retried job
// reuses its row.
func (r *GormJobHistory) RecordJobStart(ctx context.Context, job *Job) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "error", "retry_count", "started_at", "completed_at", "updated_at",
		}),
	}).Create(recordFor(job)).Error
}

// RecordJobComplete stores the outcome of a job run
func (r *GormJobHistory) RecordJobComplete(ctx context.Context, job *Job) error {
	return r.db.WithContext(ctx).
		Model(&JobRunRecord{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"status":       string(job.Status),
			"error":        job.Error,
			"retry_count":  job.RetryCount,
			"completed_at": job.CompletedAt,
			"updated_at":   time.Now(),
		}).Error
}

// ListRecent returns the latest runs of an organization, newest first
func (r *GormJobHistory) ListRecent(ctx context.Context, orgID uuid.UUID, limit int) ([]JobRunRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var records []JobRunRecord
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

var _ JobHistory = (*GormJobHistory)(nil)
