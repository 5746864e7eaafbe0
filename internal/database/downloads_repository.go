package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finview/models"
)

// ErrNotFound is returned when no download row matches the lookup.
var ErrNotFound = errors.New("download not found")

// DownloadRepository persists download descriptors.
type DownloadRepository struct {
	db *DB
}

const downloadColumns = `id, item_id, item_type, name, sort_name, media_source_id,
	media_path, container, runtime_ticks, production_year, played, favorite,
	status, retry_count, created_at, updated_at`

func scanDownload(row interface{ Scan(...any) error }) (models.DownloadItem, error) {
	var d models.DownloadItem
	err := row.Scan(
		&d.ID, &d.ItemID, &d.ItemType, &d.Name, &d.SortName, &d.MediaSourceID,
		&d.MediaPath, &d.Container, &d.RunTimeTicks, &d.ProductionYear,
		&d.Played, &d.Favorite, &d.Status, &d.RetryCount, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

// Upsert inserts or replaces the descriptor for the item.
func (r *DownloadRepository) Upsert(d models.DownloadItem) error {
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	_, err := r.db.conn.Exec(`
		INSERT INTO downloads (`+downloadColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			name = excluded.name,
			sort_name = excluded.sort_name,
			media_source_id = excluded.media_source_id,
			media_path = excluded.media_path,
			container = excluded.container,
			runtime_ticks = excluded.runtime_ticks,
			production_year = excluded.production_year,
			played = excluded.played,
			favorite = excluded.favorite,
			status = excluded.status,
			retry_count = excluded.retry_count,
			updated_at = excluded.updated_at`,
		d.ID, d.ItemID, d.ItemType, d.Name, d.SortName, d.MediaSourceID,
		d.MediaPath, d.Container, d.RunTimeTicks, d.ProductionYear, d.Played,
		d.Favorite, d.Status, d.RetryCount, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert download: %w", err)
	}
	return nil
}

// GetByItemID fetches the descriptor for a catalog item.
func (r *DownloadRepository) GetByItemID(itemID string) (models.DownloadItem, error) {
	row := r.db.conn.QueryRow(`SELECT `+downloadColumns+` FROM downloads WHERE item_id = ?`, itemID)
	d, err := scanDownload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DownloadItem{}, ErrNotFound
	}
	if err != nil {
		return models.DownloadItem{}, fmt.Errorf("get download: %w", err)
	}
	return d, nil
}

// List returns all descriptors ordered by sort name.
func (r *DownloadRepository) List() ([]models.DownloadItem, error) {
	rows, err := r.db.conn.Query(`SELECT ` + downloadColumns + ` FROM downloads ORDER BY sort_name`)
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	defer rows.Close()

	var items []models.DownloadItem
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan download: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// SetStatus updates the status and bumps the retry counter on failure.
func (r *DownloadRepository) SetStatus(itemID string, status models.DownloadStatus) error {
	retryBump := 0
	if status == models.DownloadStatusFailed {
		retryBump = 1
	}
	res, err := r.db.conn.Exec(`
		UPDATE downloads
		SET status = ?, retry_count = retry_count + ?, updated_at = ?
		WHERE item_id = ?`,
		status, retryBump, time.Now().UTC(), itemID)
	if err != nil {
		return fmt.Errorf("set download status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFlags updates the locally tracked played/favorite flags.
func (r *DownloadRepository) SetFlags(itemID string, played, favorite bool) error {
	res, err := r.db.conn.Exec(`
		UPDATE downloads SET played = ?, favorite = ?, updated_at = ? WHERE item_id = ?`,
		played, favorite, time.Now().UTC(), itemID)
	if err != nil {
		return fmt.Errorf("set download flags: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the descriptor for a catalog item.
func (r *DownloadRepository) Delete(itemID string) error {
	res, err := r.db.conn.Exec(`DELETE FROM downloads WHERE item_id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("delete download: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
