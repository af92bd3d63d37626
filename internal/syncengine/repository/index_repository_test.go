package repository

import (
	"testing"
	"time"

	"invoicescan-backend/internal/syncengine/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupIndexRepo(t *testing.T) EmailIndexRepository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "Failed to connect to in-memory database")
	require.NoError(t, db.AutoMigrate(&domain.EmailIndexRecord{}))
	return NewEmailIndexRepository(db)
}

func indexRecord(uid uint32, subject string, date time.Time) *domain.EmailIndexRecord {
	return &domain.EmailIndexRecord{
		AccountID:   "acc-1",
		Folder:      "INBOX",
		UID:         uid,
		Subject:     subject,
		FromAddress: "billing@vendor.com",
		MessageDate: date,
	}
}

func TestEmailIndexRepository_UpsertInsertsThenUpdatesInPlace(t *testing.T) {
	repo := setupIndexRepo(t)
	now := time.Now()

	inserted, err := repo.Upsert(indexRecord(10, "Invoice #1", now))
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same (account, folder, uid) with changed metadata
	updated := indexRecord(10, "Invoice #1 (corrected)", now)
	updated.Flags = domain.EncodeStringList([]string{"\\Seen"})
	inserted, err = repo.Upsert(updated)
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := repo.CountByAccount("acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	records, err := repo.Query(IndexQuery{AccountID: "acc-1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Invoice #1 (corrected)", records[0].Subject)
	assert.Equal(t, []string{"\\Seen"}, records[0].FlagList())
	assert.False(t, records[0].CreatedAt.After(records[0].UpdatedAt),
		"re-sighting must bump updated_at without touching created_at")
}

func TestEmailIndexRepository_SameUIDDifferentFolder(t *testing.T) {
	repo := setupIndexRepo(t)
	now := time.Now()

	_, err := repo.Upsert(indexRecord(10, "Invoice", now))
	require.NoError(t, err)

	other := indexRecord(10, "Archived invoice", now)
	other.Folder = "Archive"
	inserted, err := repo.Upsert(other)
	require.NoError(t, err)
	assert.True(t, inserted, "uid uniqueness is scoped per folder")
}

func TestEmailIndexRepository_QueryFiltersAndOrder(t *testing.T) {
	repo := setupIndexRepo(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	oldest := indexRecord(1, "Oldest", base.AddDate(0, 0, -10))
	middle := indexRecord(2, "Middle", base.AddDate(0, 0, -5))
	middle.HasAttachments = true
	middle.AttachmentCount = 1
	newest := indexRecord(3, "Newest", base)

	for _, rec := range []*domain.EmailIndexRecord{oldest, middle, newest} {
		_, err := repo.Upsert(rec)
		require.NoError(t, err)
	}

	records, err := repo.Query(IndexQuery{AccountID: "acc-1", Folder: "INBOX"})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, uint32(3), records[0].UID, "newest first")
	assert.Equal(t, uint32(1), records[2].UID)

	from := base.AddDate(0, 0, -6)
	records, err = repo.Query(IndexQuery{AccountID: "acc-1", DateFrom: &from})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	withAttachments := true
	records, err = repo.Query(IndexQuery{AccountID: "acc-1", HasAttachments: &withAttachments})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint32(2), records[0].UID)
}

func TestEmailIndexRepository_QueryScopedToAccount(t *testing.T) {
	repo := setupIndexRepo(t)
	now := time.Now()

	_, err := repo.Upsert(indexRecord(1, "Mine", now))
	require.NoError(t, err)

	foreign := indexRecord(1, "Someone else's", now)
	foreign.AccountID = "acc-2"
	_, err = repo.Upsert(foreign)
	require.NoError(t, err)

	records, err := repo.Query(IndexQuery{AccountID: "acc-1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Mine", records[0].Subject)
}
