package playback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"finview/config"
	"finview/models"
)

// heartbeatInterval is the fixed period between position reports. The timer
// is rescheduled after each tick rather than running at a fixed rate.
const heartbeatInterval = 2 * time.Second

// State describes where the holder is in the session lifecycle.
type State int

const (
	StateIdle State = iota
	StateInitializing
	StatePlaying
	StateEnded
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StatePlaying:
		return "playing"
	case StateEnded:
		return "ended"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Repository is the remote boundary for stream resolution and progress reporting.
type Repository interface {
	GetItem(ctx context.Context, itemID string) (models.Item, error)
	GetStreamURL(ctx context.Context, itemID, mediaSourceID string) (string, error)
	ReportPlaybackStart(ctx context.Context, report models.PlaybackProgress) error
	ReportPlaybackProgress(ctx context.Context, report models.PlaybackProgress) error
	ReportPlaybackStopped(ctx context.Context, report models.PlaybackProgress) error
}

// session is one active playback: player handle, identifiers and the
// heartbeat's cancellation scope. Owned exclusively by the Service.
type session struct {
	id            string
	itemID        string
	mediaSourceID string
	player        Player
	cancel        context.CancelFunc
	done          chan struct{}
}

// Service owns at most one playback session at a time. Starting a new
// session releases the prior one; the heartbeat is always attached to the
// session's cancellation scope so teardown can never leak it.
type Service struct {
	repo      Repository
	settings  config.PlaybackSettings
	newPlayer func() Player
	interval  time.Duration

	mu      sync.Mutex
	state   State
	session *session

	events chan Event
}

// NewService creates a playback service. newPlayer is invoked once per session.
func NewService(repo Repository, settings config.PlaybackSettings, newPlayer func() Player) *Service {
	return &Service{
		repo:      repo,
		settings:  settings,
		newPlayer: newPlayer,
		interval:  heartbeatInterval,
		state:     StateIdle,
		events:    make(chan Event, 4),
	}
}

// Events delivers player notifications to the hosting screen. EventEnded is
// the navigate-back signal.
func (s *Service) Events() <-chan Event {
	return s.events
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Position returns the active session's playback position, or zero.
func (s *Service) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return 0
	}
	return s.session.player.Position()
}

// Start resolves the stream URL, configures a player with the preferred
// audio/subtitle languages, begins playback at startPosition and reports
// playback start. A prior session, if any, is stopped first.
func (s *Service) Start(ctx context.Context, itemID, mediaSourceID string, startPosition time.Duration) error {
	s.mu.Lock()
	if s.session != nil {
		s.stopLocked()
	}
	s.state = StateInitializing
	s.mu.Unlock()

	streamURL, err := s.repo.GetStreamURL(ctx, itemID, mediaSourceID)
	if err != nil {
		s.setState(StateIdle)
		return fmt.Errorf("resolve stream url: %w", err)
	}

	audioIndex, subtitleIndex := -1, -1
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		// Track preferences are best-effort; playback proceeds with defaults.
		log.Printf("[playback] item lookup for track selection failed: %v", err)
	} else if source := findSource(item, mediaSourceID); source != nil {
		audioIndex = pickStream(source.Streams, "Audio", s.settings.PreferredAudioLanguage)
		subtitleIndex = pickStream(source.Streams, "Subtitle", s.settings.PreferredSubtitleLanguage)
	}

	player := s.newPlayer()
	if err := player.Load(LoadOptions{
		StreamURL:        streamURL,
		StartPosition:    startPosition,
		AudioStreamIndex: audioIndex,
		SubtitleIndex:    subtitleIndex,
		TunneledDecoding: s.settings.TunneledDecoding,
	}); err != nil {
		player.Release()
		s.setState(StateIdle)
		return fmt.Errorf("load player: %w", err)
	}

	sessCtx, cancel := context.WithCancel(context.Background())
	sess := &session{
		id:            uuid.NewString(),
		itemID:        itemID,
		mediaSourceID: mediaSourceID,
		player:        player,
		cancel:        cancel,
		done:          make(chan struct{}),
	}

	player.OnEvent(func(ev Event) {
		if ev.Type == EventEnded {
			s.setState(StateEnded)
		}
		select {
		case s.events <- ev:
		default:
		}
	})

	if err := s.repo.ReportPlaybackStart(ctx, models.PlaybackProgress{
		ItemID:        itemID,
		MediaSourceID: mediaSourceID,
		PlaySessionID: sess.id,
		PositionTicks: models.DurationToTicks(startPosition),
	}); err != nil {
		log.Printf("[playback] start report failed: %v", err)
	}

	s.mu.Lock()
	s.session = sess
	s.state = StatePlaying
	s.mu.Unlock()

	go s.heartbeat(sessCtx, sess)

	log.Printf("[playback] session %s started for %s at %s", sess.id, itemID, startPosition)
	return nil
}

func findSource(item models.Item, mediaSourceID string) *models.MediaSource {
	for i := range item.MediaSources {
		if item.MediaSources[i].ID == mediaSourceID || mediaSourceID == "" {
			return &item.MediaSources[i]
		}
	}
	return nil
}

// heartbeat reports position and pause state every tick until the session's
// scope is cancelled. The timer is re-armed after each report rather than
// firing at a fixed rate.
func (s *Service) heartbeat(ctx context.Context, sess *session) {
	defer close(sess.done)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			report := models.PlaybackProgress{
				ItemID:        sess.itemID,
				MediaSourceID: sess.mediaSourceID,
				PlaySessionID: sess.id,
				PositionTicks: models.DurationToTicks(sess.player.Position()),
				IsPaused:      sess.player.Paused(),
			}
			if err := s.repo.ReportPlaybackProgress(ctx, report); err != nil {
				log.Printf("[playback] progress report failed: %v", err)
			}
			timer.Reset(s.interval)
		}
	}
}

func (s *Service) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Stop tears the active session down: the listener is detached first, the
// heartbeat scope is cancelled, then exactly one stop report carrying the
// position known at release time is sent synchronously before the player is
// released. Losing the final stop event is not acceptable, hence the
// blocking call.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *Service) stopLocked() error {
	sess := s.session
	if sess == nil {
		return errors.New("no active session")
	}
	s.session = nil

	sess.player.OnEvent(nil)
	sess.cancel()
	<-sess.done

	position := sess.player.Position()
	report := models.PlaybackProgress{
		ItemID:        sess.itemID,
		MediaSourceID: sess.mediaSourceID,
		PlaySessionID: sess.id,
		PositionTicks: models.DurationToTicks(position),
	}
	if err := s.repo.ReportPlaybackStopped(context.Background(), report); err != nil {
		log.Printf("[playback] stop report failed: %v", err)
	}

	if err := sess.player.Release(); err != nil {
		log.Printf("[playback] player release failed: %v", err)
	}
	s.state = StateReleased

	log.Printf("[playback] session %s released at %s", sess.id, position)
	return nil
}
