package downloads

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"finview/internal/database"
	"finview/models"
)

func setupStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	db, err := database.NewDB(database.Config{
		DatabasePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	fs := afero.NewMemMapFs()
	return NewStore(db.Downloads, fs), fs
}

func TestRequest_NewItem(t *testing.T) {
	store, _ := setupStore(t)

	item := models.Item{
		ID:   "item-1",
		Type: models.ItemTypeMovie,
		Name: "The Éxample Movie",
	}
	d, err := store.Request(item, "source-1")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if d.Status != models.DownloadStatusQueued {
		t.Errorf("expected queued status, got %q", d.Status)
	}
	if d.ID == "" {
		t.Error("expected generated download id")
	}
	if d.SortName != "example movie" {
		t.Errorf("unexpected sort name: %q", d.SortName)
	}
}

func TestRequest_ExistingItemIsIdempotent(t *testing.T) {
	store, _ := setupStore(t)

	item := models.Item{ID: "item-1", Name: "Movie"}
	first, err := store.Request(item, "source-1")
	if err != nil {
		t.Fatalf("first Request failed: %v", err)
	}
	second, err := store.Request(item, "source-1")
	if err != nil {
		t.Fatalf("second Request failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same descriptor, got %q and %q", first.ID, second.ID)
	}
}

func TestRequest_FailedItemRequeues(t *testing.T) {
	store, _ := setupStore(t)

	item := models.Item{ID: "item-1", Name: "Movie"}
	if _, err := store.Request(item, "source-1"); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if err := store.Fail("item-1"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	d, err := store.Request(item, "source-1")
	if err != nil {
		t.Fatalf("re-Request failed: %v", err)
	}
	if d.Status != models.DownloadStatusQueued {
		t.Errorf("expected requeued status, got %q", d.Status)
	}
}

func TestComplete_SetsPathAndContainer(t *testing.T) {
	store, fs := setupStore(t)

	if _, err := store.Request(models.Item{ID: "item-1", Name: "Movie"}, "source-1"); err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	// Minimal valid content so container sniffing has something to look at.
	path := "/media/movie.mp4"
	content := append([]byte{0, 0, 0, 0x18}, []byte("ftypmp42")...)
	if err := afero.WriteFile(fs, path, content, 0o644); err != nil {
		t.Fatalf("write media file: %v", err)
	}

	if err := store.Complete("item-1", path); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	d, err := store.Get("item-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !d.Available() {
		t.Error("expected completed download to be available")
	}
	if d.MediaPath != path {
		t.Errorf("unexpected media path: %q", d.MediaPath)
	}
}

func TestGet_NotDownloaded(t *testing.T) {
	store, _ := setupStore(t)
	if _, err := store.Get("missing"); err != ErrNotDownloaded {
		t.Errorf("expected ErrNotDownloaded, got %v", err)
	}
}

func TestDelete_RemovesRowAndFile(t *testing.T) {
	store, fs := setupStore(t)

	if _, err := store.Request(models.Item{ID: "item-1", Name: "Movie"}, "source-1"); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	path := "/media/movie.mkv"
	if err := afero.WriteFile(fs, path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write media file: %v", err)
	}
	if err := store.Complete("item-1", path); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if err := store.Delete("item-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.Get("item-1"); err != ErrNotDownloaded {
		t.Errorf("expected descriptor removed, got %v", err)
	}
	if exists, _ := afero.Exists(fs, path); exists {
		t.Error("expected media file removed")
	}
}

func TestDelete_MissingFileStillRemovesRow(t *testing.T) {
	store, _ := setupStore(t)

	if _, err := store.Request(models.Item{ID: "item-1", Name: "Movie"}, "source-1"); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if err := store.Complete("item-1", "/media/never-written.mkv"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if err := store.Delete("item-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get("item-1"); err != ErrNotDownloaded {
		t.Errorf("expected descriptor removed, got %v", err)
	}
}
