package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"finview/models"
)

// setupTestDB creates a new test database in a temp directory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDB(Config{DatabasePath: dbPath})
	require.NoError(t, err, "create test database")
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDB_AppliesMigrations(t *testing.T) {
	db := setupTestDB(t)
	require.NotNil(t, db.Downloads)

	// The downloads table must exist after migration.
	_, err := db.Downloads.List()
	require.NoError(t, err)
}

func TestUpsertAndGet(t *testing.T) {
	db := setupTestDB(t)

	item := models.DownloadItem{
		ID:            "dl-1",
		ItemID:        "item-1",
		ItemType:      models.ItemTypeMovie,
		Name:          "Test Movie",
		SortName:      "test movie",
		MediaSourceID: "source-1",
		Status:        models.DownloadStatusQueued,
	}
	require.NoError(t, db.Downloads.Upsert(item))

	got, err := db.Downloads.GetByItemID("item-1")
	require.NoError(t, err)
	require.Equal(t, "Test Movie", got.Name)
	require.Equal(t, models.DownloadStatusQueued, got.Status)
	require.False(t, got.CreatedAt.IsZero())
}

func TestUpsert_ConflictUpdates(t *testing.T) {
	db := setupTestDB(t)

	item := models.DownloadItem{
		ID:     "dl-1",
		ItemID: "item-1",
		Name:   "Before",
		Status: models.DownloadStatusQueued,
	}
	require.NoError(t, db.Downloads.Upsert(item))

	item.Name = "After"
	item.Status = models.DownloadStatusComplete
	item.MediaPath = "/media/after.mkv"
	require.NoError(t, db.Downloads.Upsert(item))

	got, err := db.Downloads.GetByItemID("item-1")
	require.NoError(t, err)
	require.Equal(t, "After", got.Name)
	require.Equal(t, models.DownloadStatusComplete, got.Status)
	require.Equal(t, "/media/after.mkv", got.MediaPath)
}

func TestGetByItemID_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.Downloads.GetByItemID("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetStatus_FailureBumpsRetryCount(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.Downloads.Upsert(models.DownloadItem{
		ID: "dl-1", ItemID: "item-1", Status: models.DownloadStatusDownloading,
	}))

	require.NoError(t, db.Downloads.SetStatus("item-1", models.DownloadStatusFailed))
	require.NoError(t, db.Downloads.SetStatus("item-1", models.DownloadStatusFailed))

	got, err := db.Downloads.GetByItemID("item-1")
	require.NoError(t, err)
	require.Equal(t, 2, got.RetryCount)
	require.True(t, got.CanRetry())
}

func TestSetStatus_NotFound(t *testing.T) {
	db := setupTestDB(t)
	require.ErrorIs(t, db.Downloads.SetStatus("missing", models.DownloadStatusFailed), ErrNotFound)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.Downloads.Upsert(models.DownloadItem{
		ID: "dl-1", ItemID: "item-1", Status: models.DownloadStatusComplete,
	}))
	require.NoError(t, db.Downloads.Delete("item-1"))

	_, err := db.Downloads.GetByItemID("item-1")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, db.Downloads.Delete("item-1"), ErrNotFound)
}

func TestList_OrderedBySortName(t *testing.T) {
	db := setupTestDB(t)

	for _, d := range []models.DownloadItem{
		{ID: "dl-1", ItemID: "b", Name: "Zeta", SortName: "zeta", Status: models.DownloadStatusComplete},
		{ID: "dl-2", ItemID: "a", Name: "Alpha", SortName: "alpha", Status: models.DownloadStatusComplete},
	} {
		require.NoError(t, db.Downloads.Upsert(d))
	}

	items, err := db.Downloads.List()
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Alpha", items[0].Name)
}
