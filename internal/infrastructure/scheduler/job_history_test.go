package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/storepulse/backend/internal/domain/snapshot"
)

func setupHistoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&JobRunRecord{}))
	return db
}

func TestGormJobHistory(t *testing.T) {
	db := setupHistoryDB(t)
	history := NewGormJobHistory(db)
	ctx := context.Background()
	orgID := uuid.New()

	job := NewJob(orgID, snapshot.KindInventory, TriggerCron, 0, 1)
	job.Start()
	require.NoError(t, history.RecordJobStart(ctx, job))

	job.Fail("db down")
	require.NoError(t, history.RecordJobComplete(ctx, job))

	job.ScheduleRetry(0)
	job.Start()
	require.NoError(t, history.RecordJobStart(ctx, job), "retry reuses the run row")
	job.Complete()
	require.NoError(t, history.RecordJobComplete(ctx, job))

	time.Sleep(2 * time.Millisecond)
	other := NewJob(orgID, snapshot.KindCustomer, TriggerManual, 0, 0)
	other.Start()
	require.NoError(t, history.RecordJobStart(ctx, other))

	records, err := history.ListRecent(ctx, orgID, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, other.ID, records[0].ID)
	assert.Equal(t, string(JobStatusRunning), records[0].Status)

	assert.Equal(t, job.ID, records[1].ID)
	assert.Equal(t, string(JobStatusSuccess), records[1].Status)
	assert.Equal(t, 1, records[1].RetryCount)
	assert.Empty(t, records[1].Error)
	assert.NotNil(t, records[1].CompletedAt)

	empty, err := history.ListRecent(ctx, uuid.New(), 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
