package downloads

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/mozillazg/go-unidecode"
	"github.com/spf13/afero"

	"finview/internal/database"
	"finview/models"
)

var ErrNotDownloaded = errors.New("item is not downloaded")

// repository is the subset of the download repository the store needs.
type repository interface {
	Upsert(models.DownloadItem) error
	GetByItemID(itemID string) (models.DownloadItem, error)
	List() ([]models.DownloadItem, error)
	SetStatus(itemID string, status models.DownloadStatus) error
	SetFlags(itemID string, played, favorite bool) error
	Delete(itemID string) error
}

// Store manages locally downloaded media: descriptors in sqlite, files on disk.
type Store struct {
	repo repository
	fs   afero.Fs
}

// NewStore creates a download store over the given repository and filesystem.
func NewStore(repo *database.DownloadRepository, fs afero.Fs) *Store {
	return &Store{repo: repo, fs: fs}
}

// sortName builds an ASCII sort key from a display title.
func sortName(title string) string {
	s := strings.ToLower(strings.TrimSpace(unidecode.Unidecode(title)))
	for _, prefix := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(s, prefix) {
			return strings.TrimSpace(s[len(prefix):])
		}
	}
	return s
}

// Request records a new queued download for the item. Fetching the bytes is
// the transfer engine's job; the store only tracks state.
func (s *Store) Request(item models.Item, mediaSourceID string) (models.DownloadItem, error) {
	if item.ID == "" {
		return models.DownloadItem{}, errors.New("item id is required")
	}

	if existing, err := s.repo.GetByItemID(item.ID); err == nil {
		if existing.Status == models.DownloadStatusFailed && existing.CanRetry() {
			if err := s.repo.SetStatus(item.ID, models.DownloadStatusQueued); err != nil {
				return models.DownloadItem{}, err
			}
			existing.Status = models.DownloadStatusQueued
			return existing, nil
		}
		return existing, nil
	}

	d := models.DownloadItem{
		ID:             uuid.NewString(),
		ItemID:         item.ID,
		ItemType:       item.Type,
		Name:           item.Name,
		SortName:       sortName(item.Name),
		MediaSourceID:  mediaSourceID,
		RunTimeTicks:   item.RunTimeTicks,
		ProductionYear: item.ProductionYear,
		Played:         item.UserData.Played,
		Favorite:       item.UserData.IsFavorite,
		Status:         models.DownloadStatusQueued,
	}
	if err := s.repo.Upsert(d); err != nil {
		return models.DownloadItem{}, err
	}
	log.Printf("[downloads] queued %q (%s)", d.Name, d.ItemID)
	return d, nil
}

// Complete marks a download finished and records its media path and container.
func (s *Store) Complete(itemID, mediaPath string) error {
	d, err := s.repo.GetByItemID(itemID)
	if err != nil {
		return err
	}

	d.MediaPath = mediaPath
	d.Status = models.DownloadStatusComplete
	d.Container = s.sniffContainer(mediaPath)
	if err := s.repo.Upsert(d); err != nil {
		return err
	}
	log.Printf("[downloads] completed %q at %s", d.Name, mediaPath)
	return nil
}

// sniffContainer detects the media container from file content.
func (s *Store) sniffContainer(path string) string {
	f, err := s.fs.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(mt.Extension(), ".")
}

// Fail marks a download failed, bumping its retry counter.
func (s *Store) Fail(itemID string) error {
	return s.repo.SetStatus(itemID, models.DownloadStatusFailed)
}

// Get returns the descriptor for an item, or ErrNotDownloaded.
func (s *Store) Get(itemID string) (models.DownloadItem, error) {
	d, err := s.repo.GetByItemID(itemID)
	if errors.Is(err, database.ErrNotFound) {
		return models.DownloadItem{}, ErrNotDownloaded
	}
	return d, err
}

// List returns all download descriptors ordered by sort name.
func (s *Store) List() ([]models.DownloadItem, error) {
	return s.repo.List()
}

// SetFlags updates the locally tracked played/favorite flags for an item.
// Missing rows are ignored: flags only matter for downloaded items.
func (s *Store) SetFlags(itemID string, played, favorite bool) error {
	err := s.repo.SetFlags(itemID, played, favorite)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	return err
}

// Delete removes the descriptor and the downloaded media file.
func (s *Store) Delete(itemID string) error {
	d, err := s.repo.GetByItemID(itemID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotDownloaded
	}
	if err != nil {
		return err
	}

	if d.MediaPath != "" {
		if err := s.fs.Remove(d.MediaPath); err != nil && !errors.Is(err, afero.ErrFileNotFound) {
			// Keep the row so the delete can be retried.
			return fmt.Errorf("remove media file: %w", err)
		}
	}

	if err := s.repo.Delete(itemID); err != nil {
		return err
	}
	log.Printf("[downloads] deleted %q (%s)", d.Name, itemID)
	return nil
}
