package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	playbacksvc "finview/services/playback"
)

type playbackService interface {
	Start(ctx context.Context, itemID, mediaSourceID string, startPosition time.Duration) error
	Stop() error
	State() playbacksvc.State
	Position() time.Duration
}

var _ playbackService = (*playbacksvc.Service)(nil)

// PlaybackHandler drives the playback state holder over the local API.
type PlaybackHandler struct {
	service playbackService
}

// NewPlaybackHandler constructs a PlaybackHandler.
func NewPlaybackHandler(service playbackService) *PlaybackHandler {
	return &PlaybackHandler{service: service}
}

// Start begins a playback session at the requested offset.
func (h *PlaybackHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID          string `json:"itemId"`
		MediaSourceID   string `json:"mediaSourceId"`
		StartPositionMs int64  `json:"startPositionMs"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ItemID == "" {
		http.Error(w, "itemId is required", http.StatusBadRequest)
		return
	}

	start := time.Duration(req.StartPositionMs) * time.Millisecond
	if err := h.service.Start(r.Context(), req.ItemID, req.MediaSourceID, start); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.writeState(w, http.StatusOK)
}

// Stop tears the active session down, emitting the final stop report.
func (h *PlaybackHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Stop(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	h.writeState(w, http.StatusOK)
}

// GetState reports the session lifecycle state and current position.
func (h *PlaybackHandler) GetState(w http.ResponseWriter, r *http.Request) {
	h.writeState(w, http.StatusOK)
}

func (h *PlaybackHandler) writeState(w http.ResponseWriter, status int) {
	writeJSON(w, status, map[string]any{
		"state":      h.service.State().String(),
		"positionMs": h.service.Position().Milliseconds(),
	})
}
