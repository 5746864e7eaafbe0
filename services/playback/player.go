package playback

import "time"

// EventType identifies player lifecycle notifications.
type EventType int

const (
	// EventEnded fires when the media reaches its end. The hosting screen
	// uses it to navigate back.
	EventEnded EventType = iota
	// EventError fires when the player hits an unrecoverable fault.
	EventError
)

// Event is an outbound player notification.
type Event struct {
	Type EventType
	Err  error
}

// LoadOptions carries the stream and track configuration for one load.
type LoadOptions struct {
	StreamURL        string
	StartPosition    time.Duration
	AudioStreamIndex int // -1 when no preference matched
	SubtitleIndex    int // -1 when no preference matched
	TunneledDecoding bool
}

// Player abstracts the concrete media player. Implementations deliver
// lifecycle notifications through the callback installed with OnEvent;
// passing nil detaches the callback.
type Player interface {
	Load(opts LoadOptions) error
	Position() time.Duration
	Paused() bool
	OnEvent(fn func(Event))
	Release() error
}
