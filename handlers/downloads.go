package handlers

import (
	"net/http"

	"finview/models"
	"finview/services/downloads"
)

type downloadStore interface {
	List() ([]models.DownloadItem, error)
}

var _ downloadStore = (*downloads.Store)(nil)

// DownloadsHandler lists locally downloaded items.
type DownloadsHandler struct {
	store downloadStore
}

// NewDownloadsHandler constructs a DownloadsHandler.
func NewDownloadsHandler(store downloadStore) *DownloadsHandler {
	return &DownloadsHandler{store: store}
}

// List returns all download descriptors ordered by sort name.
func (h *DownloadsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.DownloadItem{}
	}
	writeJSON(w, http.StatusOK, items)
}
