package models

import "time"

// PlaybackProgress is one position report sent to the server.
// Position is carried in server ticks (milliseconds x 10,000).
type PlaybackProgress struct {
	ItemID        string `json:"itemId"`
	MediaSourceID string `json:"mediaSourceId"`
	PlaySessionID string `json:"playSessionId"`
	PositionTicks int64  `json:"positionTicks"`
	IsPaused      bool   `json:"isPaused"`
}

// MillisecondsToTicks converts a millisecond position to server ticks.
func MillisecondsToTicks(ms int64) int64 {
	return ms * TicksPerMillisecond
}

// DurationToTicks converts a playback position to server ticks.
func DurationToTicks(d time.Duration) int64 {
	return MillisecondsToTicks(d.Milliseconds())
}
