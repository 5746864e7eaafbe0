package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"finview/models"
	"finview/services/mediainfo"
)

// DetailsHandler exposes the media info state holder over the local API.
type DetailsHandler struct {
	service *mediainfo.Service
}

// NewDetailsHandler constructs a DetailsHandler.
func NewDetailsHandler(service *mediainfo.Service) *DetailsHandler {
	return &DetailsHandler{service: service}
}

// detailsResponse is the JSON rendering of a mediainfo state snapshot.
type detailsResponse struct {
	State string `json:"state"` // loading, normal, error
	Error string `json:"error,omitempty"`

	Item       *models.Item    `json:"item,omitempty"`
	Actors     []models.Person `json:"actors,omitempty"`
	Directors  []models.Person `json:"directors,omitempty"`
	Writers    []models.Person `json:"writers,omitempty"`
	Genres     string          `json:"genres,omitempty"`
	RunTime    string          `json:"runTime,omitempty"`
	DateString string          `json:"dateString,omitempty"`

	NextUp  *models.Item  `json:"nextUp,omitempty"`
	Seasons []models.Item `json:"seasons,omitempty"`

	Played     bool `json:"played"`
	Favorite   bool `json:"favorite"`
	Downloaded bool `json:"downloaded"`
	Available  bool `json:"available"`
	CanRetry   bool `json:"canRetry"`
}

func renderState(state mediainfo.State) detailsResponse {
	switch s := state.(type) {
	case mediainfo.Normal:
		item := s.Item
		return detailsResponse{
			State:      "normal",
			Item:       &item,
			Actors:     s.Actors,
			Directors:  s.Directors,
			Writers:    s.Writers,
			Genres:     s.Genres,
			RunTime:    s.RunTime,
			DateString: s.DateString,
			NextUp:     s.NextUp,
			Seasons:    s.Seasons,
			Played:     s.Played,
			Favorite:   s.Favorite,
			Downloaded: s.Downloaded,
			Available:  s.Available,
			CanRetry:   s.CanRetry,
		}
	case mediainfo.Error:
		return detailsResponse{State: "error", Error: s.Err.Error()}
	default:
		return detailsResponse{State: "loading"}
	}
}

// GetDetails loads an item and returns the derived details snapshot.
func (h *DetailsHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	itemID := strings.TrimSpace(mux.Vars(r)["itemID"])
	if itemID == "" {
		http.Error(w, "item id is required", http.StatusBadRequest)
		return
	}
	itemType := models.ItemType(r.URL.Query().Get("type"))

	h.service.LoadItem(r.Context(), itemID, itemType)

	resp := renderState(h.service.State())
	status := http.StatusOK
	if resp.State == "error" {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

// flagRequest is the body for played/favorite toggles.
type flagRequest struct {
	Value bool `json:"value"`
}

// SetPlayed toggles the watched flag. The local flag flips immediately; the
// remote sync is best-effort.
func (h *DetailsHandler) SetPlayed(w http.ResponseWriter, r *http.Request) {
	itemID := strings.TrimSpace(mux.Vars(r)["itemID"])
	if itemID == "" {
		http.Error(w, "item id is required", http.StatusBadRequest)
		return
	}

	var req flagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Value {
		h.service.MarkPlayed(itemID)
	} else {
		h.service.MarkUnplayed(itemID)
	}
	writeJSON(w, http.StatusOK, renderState(h.service.State()))
}

// SetFavorite toggles the favorite flag with the same optimistic semantics.
func (h *DetailsHandler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	itemID := strings.TrimSpace(mux.Vars(r)["itemID"])
	if itemID == "" {
		http.Error(w, "item id is required", http.StatusBadRequest)
		return
	}

	var req flagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Value {
		h.service.SetFavorite(itemID)
	} else {
		h.service.ClearFavorite(itemID)
	}
	writeJSON(w, http.StatusOK, renderState(h.service.State()))
}

// RequestDownload queues a local download of the loaded item.
func (h *DetailsHandler) RequestDownload(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Download()
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusAccepted, d)
}

// DeleteDownload removes the loaded item's local download.
func (h *DetailsHandler) DeleteDownload(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteDownload(); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
