package repository

import (
	"testing"
	"time"

	"invoicescan-backend/internal/scan/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupJobRepo(t *testing.T) ScanJobRepository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "Failed to connect to in-memory database")
	require.NoError(t, db.AutoMigrate(&domain.ScanJob{}))
	return NewScanJobRepository(db)
}

func pendingJob(accountID string) *domain.ScanJob {
	return &domain.ScanJob{
		UserID:         "user-1",
		EmailAccountID: accountID,
		Kind:           domain.KindManual,
		Status:         domain.StatusPending,
		CurrentStep:    "created",
	}
}

func TestScanJobRepository_CreateIfNoActive(t *testing.T) {
	repo := setupJobRepo(t)

	first := pendingJob("acc-1")
	existing, err := repo.CreateIfNoActive(first)
	require.NoError(t, err)
	assert.Nil(t, existing)
	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, first.CorrelationID)

	// A second pending job for the same account is refused
	second := pendingJob("acc-1")
	existing, err = repo.CreateIfNoActive(second)
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, first.ID, existing.ID)

	found, err := repo.FindByID(second.ID)
	require.NoError(t, err)
	assert.Nil(t, found, "conflicting job must not be persisted")

	// A different account is unaffected
	other := pendingJob("acc-2")
	existing, err = repo.CreateIfNoActive(other)
	require.NoError(t, err)
	assert.Nil(t, existing)
}

func TestScanJobRepository_CreateAllowedAfterTerminalState(t *testing.T) {
	repo := setupJobRepo(t)

	first := pendingJob("acc-1")
	_, err := repo.CreateIfNoActive(first)
	require.NoError(t, err)

	changed, err := repo.UpdateFieldsWhereStatus(first.ID, domain.StatusPending, map[string]interface{}{
		"status": domain.StatusCompleted,
	})
	require.NoError(t, err)
	require.True(t, changed)

	existing, err := repo.CreateIfNoActive(pendingJob("acc-1"))
	require.NoError(t, err)
	assert.Nil(t, existing)
}

func TestScanJobRepository_UpdateFieldsWhereStatusGuards(t *testing.T) {
	repo := setupJobRepo(t)

	job := pendingJob("acc-1")
	_, err := repo.CreateIfNoActive(job)
	require.NoError(t, err)

	// Guard matches: transition goes through
	changed, err := repo.UpdateFieldsWhereStatus(job.ID, domain.StatusPending, map[string]interface{}{
		"status":     domain.StatusRunning,
		"started_at": time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, changed)

	// Guard no longer matches: the stale writer is told so
	changed, err = repo.UpdateFieldsWhereStatus(job.ID, domain.StatusPending, map[string]interface{}{
		"status": domain.StatusCancelled,
	})
	require.NoError(t, err)
	assert.False(t, changed)

	found, err := repo.FindByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, found.Status)
}

func TestScanJobRepository_ListFilters(t *testing.T) {
	repo := setupJobRepo(t)

	job := pendingJob("acc-1")
	_, err := repo.CreateIfNoActive(job)
	require.NoError(t, err)

	running := domain.StatusRunning
	jobs, total, err := repo.List(JobFilter{UserID: "user-1", Status: &running})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, jobs)

	pending := domain.StatusPending
	jobs, total, err = repo.List(JobFilter{UserID: "user-1", Status: &pending, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, jobs, 1)
	assert.Equal(t, job.ID, jobs[0].ID)
}
