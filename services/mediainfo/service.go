package mediainfo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"finview/models"
	"finview/services/downloads"
	"finview/services/jellyfin"
)

// Repository is the remote catalog boundary the service loads from.
type Repository interface {
	GetItem(ctx context.Context, itemID string) (models.Item, error)
	GetSeasons(ctx context.Context, seriesID string) ([]models.Item, error)
	GetNextUp(ctx context.Context, seriesID string) ([]models.Item, error)
	MarkPlayed(ctx context.Context, itemID string) error
	MarkUnplayed(ctx context.Context, itemID string) error
	SetFavorite(ctx context.Context, itemID string) error
	ClearFavorite(ctx context.Context, itemID string) error
}

// DownloadStore is the local download boundary.
type DownloadStore interface {
	Get(itemID string) (models.DownloadItem, error)
	Request(item models.Item, mediaSourceID string) (models.DownloadItem, error)
	Delete(itemID string) error
	SetFlags(itemID string, played, favorite bool) error
}

// mutationTimeout bounds each best-effort remote flag write.
const mutationTimeout = 10 * time.Second

// Service is the media-details state holder. It fetches one item at a time,
// derives its display fields and publishes a single immutable State snapshot.
type Service struct {
	repo  Repository
	store DownloadStore

	mu      sync.Mutex
	current State
	subs    []chan State

	// Goroutines spawned for fire-and-forget mutations, tracked so Close
	// can wait for them.
	wg sync.WaitGroup
}

// NewService creates a media info service.
func NewService(repo Repository, store DownloadStore) *Service {
	return &Service{
		repo:    repo,
		store:   store,
		current: Loading{},
	}
}

// Subscribe returns a channel receiving every state transition. The current
// state is delivered first.
func (s *Service) Subscribe() <-chan State {
	ch := make(chan State, 8)
	s.mu.Lock()
	ch <- s.current
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// State returns the current snapshot.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Service) publish(state State) {
	s.mu.Lock()
	s.current = state
	for _, ch := range s.subs {
		select {
		case ch <- state:
		default:
			// Slow consumers miss intermediate transitions, never block loads.
		}
	}
	s.mu.Unlock()
}

// LoadItem fetches an item from the remote catalog and publishes the derived
// snapshot. Loading is published immediately; the result is either a fully
// populated Normal or an Error, never something in between.
func (s *Service) LoadItem(ctx context.Context, itemID string, itemType models.ItemType) {
	s.publish(Loading{})

	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		s.publish(Error{Err: fmt.Errorf("load item: %w", err)})
		return
	}

	// The caller usually knows what it navigated to; fall back to the fetched
	// record when no type was given.
	isSeries := item.IsSeries()
	if itemType != "" {
		isSeries = itemType == models.ItemTypeSeries
	}

	var nextUp *models.Item
	var seasons []models.Item
	if isSeries {
		episodes, err := s.repo.GetNextUp(ctx, item.ID)
		if err != nil {
			s.publish(Error{Err: fmt.Errorf("load next up: %w", err)})
			return
		}
		if len(episodes) > 0 {
			nextUp = &episodes[0]
		}

		seasons, err = s.repo.GetSeasons(ctx, item.ID)
		if err != nil {
			s.publish(Error{Err: fmt.Errorf("load seasons: %w", err)})
			return
		}
	}

	cast := deriveCast(item.People)

	state := Normal{
		Item:       item,
		Actors:     cast.actors,
		Directors:  cast.directors,
		Writers:    cast.writers,
		Genres:     genresLine(item.Genres),
		RunTime:    runTimeString(item.RunTimeTicks),
		DateString: dateRangeString(item.ProductionYear, item.EndYear, item.Status),
		NextUp:     nextUp,
		Seasons:    seasons,
		Played:     item.UserData.Played,
		Favorite:   item.UserData.IsFavorite,
	}

	if s.store != nil {
		if d, err := s.store.Get(item.ID); err == nil {
			state.Downloaded = true
			state.Available = d.Available()
			state.CanRetry = d.CanRetry()
			state.DownloadItem = &d
		}
	}

	s.publish(state)
}

// LoadDownloaded derives the snapshot from a locally stored descriptor
// without touching the network. Next-up and season resolution are skipped;
// availability and retry flags come from local download state.
func (s *Service) LoadDownloaded(d models.DownloadItem) {
	s.publish(Loading{})

	item := models.Item{
		ID:             d.ItemID,
		Type:           d.ItemType,
		Name:           d.Name,
		RunTimeTicks:   d.RunTimeTicks,
		ProductionYear: d.ProductionYear,
		UserData: models.UserData{
			Played:     d.Played,
			IsFavorite: d.Favorite,
		},
	}

	s.publish(Normal{
		Item:         item,
		Actors:       []models.Person{},
		Directors:    []models.Person{},
		Writers:      []models.Person{},
		RunTime:      runTimeString(d.RunTimeTicks),
		DateString:   dateRangeString(d.ProductionYear, 0, ""),
		Played:       d.Played,
		Favorite:     d.Favorite,
		Downloaded:   true,
		Available:    d.Available(),
		CanRetry:     d.CanRetry(),
		DownloadItem: &d,
	})
}

// MarkPlayed optimistically flips the played flag and syncs it to the server
// in the background.
func (s *Service) MarkPlayed(itemID string) {
	s.setPlayed(itemID, true)
}

// MarkUnplayed optimistically clears the played flag and syncs it to the
// server in the background.
func (s *Service) MarkUnplayed(itemID string) {
	s.setPlayed(itemID, false)
}

// SetFavorite optimistically sets the favorite flag and syncs it.
func (s *Service) SetFavorite(itemID string) {
	s.setFavorite(itemID, true)
}

// ClearFavorite optimistically clears the favorite flag and syncs it.
func (s *Service) ClearFavorite(itemID string) {
	s.setFavorite(itemID, false)
}

// applyFlags updates the current Normal snapshot's flags and returns the
// resulting played/favorite pair. No-op when nothing is loaded or a different
// item is.
func (s *Service) applyFlags(itemID string, update func(*Normal)) (played, favorite bool, ok bool) {
	s.mu.Lock()
	normal, isNormal := s.current.(Normal)
	if !isNormal || normal.Item.ID != itemID {
		s.mu.Unlock()
		return false, false, false
	}
	update(&normal)
	normal.Item.UserData.Played = normal.Played
	normal.Item.UserData.IsFavorite = normal.Favorite
	s.current = normal
	for _, ch := range s.subs {
		select {
		case ch <- normal:
		default:
		}
	}
	played, favorite = normal.Played, normal.Favorite
	s.mu.Unlock()
	return played, favorite, true
}

func (s *Service) setPlayed(itemID string, played bool) {
	if curPlayed, favorite, ok := s.applyFlags(itemID, func(n *Normal) { n.Played = played }); ok {
		s.mirrorFlags(itemID, curPlayed, favorite)
	} else if d, err := s.storedFlags(itemID); err == nil {
		s.mirrorFlags(itemID, played, d.Favorite)
	}

	call := s.repo.MarkUnplayed
	if played {
		call = s.repo.MarkPlayed
	}
	s.fireAndForget("played", itemID, call)
}

func (s *Service) setFavorite(itemID string, favorite bool) {
	if played, curFav, ok := s.applyFlags(itemID, func(n *Normal) { n.Favorite = favorite }); ok {
		s.mirrorFlags(itemID, played, curFav)
	} else if d, err := s.storedFlags(itemID); err == nil {
		s.mirrorFlags(itemID, d.Played, favorite)
	}

	call := s.repo.ClearFavorite
	if favorite {
		call = s.repo.SetFavorite
	}
	s.fireAndForget("favorite", itemID, call)
}

// storedFlags reads the download store's current descriptor so a mutation
// without a matching loaded snapshot only overwrites the flag it changed.
func (s *Service) storedFlags(itemID string) (models.DownloadItem, error) {
	if s.store == nil {
		return models.DownloadItem{}, errors.New("download store not configured")
	}
	return s.store.Get(itemID)
}

// mirrorFlags keeps the local download store's flags in line with the
// optimistic state.
func (s *Service) mirrorFlags(itemID string, played, favorite bool) {
	if s.store == nil {
		return
	}
	if err := s.store.SetFlags(itemID, played, favorite); err != nil {
		log.Printf("[media-info] mirror flags for %s: %v", itemID, err)
	}
}

// fireAndForget runs a best-effort remote flag write. The optimistic local
// flag is never rolled back; every failure is logged the same way.
func (s *Service) fireAndForget(what, itemID string, call func(context.Context, string) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()

		err := retry.Do(
			func() error { return call(ctx, itemID) },
			retry.Context(ctx),
			retry.Attempts(2),
			retry.Delay(500*time.Millisecond),
			retry.LastErrorOnly(true),
			retry.RetryIf(func(err error) bool {
				// 4xx responses will not succeed on retry.
				return !jellyfin.IsClientError(err)
			}),
		)
		if err != nil {
			log.Printf("[media-info] %s sync failed for %s: %v", what, itemID, err)
		}
	}()
}

// Download requests a local download of the currently loaded item.
func (s *Service) Download() (models.DownloadItem, error) {
	s.mu.Lock()
	normal, ok := s.current.(Normal)
	s.mu.Unlock()
	if !ok {
		return models.DownloadItem{}, errors.New("no item loaded")
	}
	if s.store == nil {
		return models.DownloadItem{}, errors.New("download store not configured")
	}

	sourceID := ""
	if len(normal.Item.MediaSources) > 0 {
		sourceID = normal.Item.MediaSources[0].ID
	}
	d, err := s.store.Request(normal.Item, sourceID)
	if err != nil {
		return models.DownloadItem{}, err
	}

	s.applyFlags(normal.Item.ID, func(n *Normal) {
		n.Downloaded = true
		n.DownloadItem = &d
	})
	return d, nil
}

// DeleteDownload deletes the active downloaded item's local data.
func (s *Service) DeleteDownload() error {
	s.mu.Lock()
	normal, ok := s.current.(Normal)
	s.mu.Unlock()
	if !ok || normal.DownloadItem == nil || s.store == nil {
		return downloads.ErrNotDownloaded
	}
	if err := s.store.Delete(normal.DownloadItem.ItemID); err != nil {
		return err
	}

	s.applyFlags(normal.Item.ID, func(n *Normal) {
		n.Downloaded = false
		n.Available = false
		n.CanRetry = false
		n.DownloadItem = nil
	})
	return nil
}

// Close waits for in-flight background mutations to finish.
func (s *Service) Close() {
	s.wg.Wait()
}
