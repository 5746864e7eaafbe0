package mediainfo

import "finview/models"

// State is the single observable snapshot published by the Service. Exactly
// one variant is active at a time; consumers react to whole transitions,
// never partial updates.
type State interface {
	isState()
}

// Loading is published immediately when a load begins.
type Loading struct{}

// Error is published when a load fails, carrying the cause.
type Error struct {
	Err error
}

// Normal carries the loaded item and every display-ready field derived from it.
type Normal struct {
	Item models.Item

	Actors    []models.Person
	Directors []models.Person
	Writers   []models.Person

	Genres     string
	RunTime    string
	DateString string

	// Series-only fields.
	NextUp  *models.Item
	Seasons []models.Item

	Played   bool
	Favorite bool

	// Local download state.
	Downloaded   bool
	Available    bool
	CanRetry     bool
	DownloadItem *models.DownloadItem
}

func (Loading) isState() {}
func (Error) isState()   {}
func (Normal) isState()  {}
