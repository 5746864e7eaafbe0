package models

import "time"

// DownloadStatus tracks the lifecycle of a local download.
type DownloadStatus string

const (
	DownloadStatusQueued      DownloadStatus = "queued"
	DownloadStatusDownloading DownloadStatus = "downloading"
	DownloadStatusComplete    DownloadStatus = "complete"
	DownloadStatusFailed      DownloadStatus = "failed"
)

// DownloadItem is a locally persisted descriptor for a downloaded media item.
type DownloadItem struct {
	ID             string         `json:"id"`
	ItemID         string         `json:"itemId"`
	ItemType       ItemType       `json:"itemType"`
	Name           string         `json:"name"`
	SortName       string         `json:"sortName"`
	MediaSourceID  string         `json:"mediaSourceId"`
	MediaPath      string         `json:"mediaPath"`
	Container      string         `json:"container,omitempty"`
	RunTimeTicks   int64          `json:"runTimeTicks,omitempty"`
	ProductionYear int            `json:"productionYear,omitempty"`
	Played         bool           `json:"played"`
	Favorite       bool           `json:"favorite"`
	Status         DownloadStatus `json:"status"`
	RetryCount     int            `json:"retryCount"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Available reports whether the item's media file is ready for local playback.
func (d DownloadItem) Available() bool {
	return d.Status == DownloadStatusComplete && d.MediaPath != ""
}

// MaxDownloadRetries is how many times a failed download may be retried.
const MaxDownloadRetries = 3

// CanRetry reports whether a failed download is still eligible for retry.
func (d DownloadItem) CanRetry() bool {
	return d.Status == DownloadStatusFailed && d.RetryCount < MaxDownloadRetries
}
