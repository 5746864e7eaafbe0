package models

// TicksPerMillisecond is the server's playback position unit: 10,000 ticks per millisecond.
const TicksPerMillisecond int64 = 10_000

// TicksPerMinute converts runtime ticks to whole minutes.
const TicksPerMinute int64 = 600_000_000

// ItemType identifies the kind of catalog item.
type ItemType string

const (
	ItemTypeMovie   ItemType = "Movie"
	ItemTypeSeries  ItemType = "Series"
	ItemTypeSeason  ItemType = "Season"
	ItemTypeEpisode ItemType = "Episode"
)

// PersonType tags a credited person's role on an item.
type PersonType string

const (
	PersonTypeActor    PersonType = "Actor"
	PersonTypeDirector PersonType = "Director"
	PersonTypeWriter   PersonType = "Writer"
)

// Person is one credited cast or crew member.
type Person struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Type PersonType `json:"type"`
	Role string     `json:"role,omitempty"`
}

// UserData carries the per-user flags attached to an item.
type UserData struct {
	Played                bool  `json:"played"`
	IsFavorite            bool  `json:"isFavorite"`
	PlaybackPositionTicks int64 `json:"playbackPositionTicks"`
	PlayCount             int   `json:"playCount"`
}

// MediaStream describes one audio, video or subtitle track inside a source.
type MediaStream struct {
	Index    int    `json:"index"`
	Type     string `json:"type"` // Video, Audio, Subtitle
	Codec    string `json:"codec"`
	Language string `json:"language,omitempty"`
	Title    string `json:"title,omitempty"`
	Default  bool   `json:"default"`
}

// MediaSource is one playable source file for an item.
type MediaSource struct {
	ID        string        `json:"id"`
	Container string        `json:"container"`
	Size      int64         `json:"size"`
	Streams   []MediaStream `json:"streams,omitempty"`
}

// Item is a media record (movie, episode, series) from the server catalog.
type Item struct {
	ID             string        `json:"id"`
	Type           ItemType      `json:"type"`
	Name           string        `json:"name"`
	OriginalTitle  string        `json:"originalTitle,omitempty"`
	Overview       string        `json:"overview,omitempty"`
	Genres         []string      `json:"genres,omitempty"`
	People         []Person      `json:"people,omitempty"`
	MediaSources   []MediaSource `json:"mediaSources,omitempty"`
	RunTimeTicks   int64         `json:"runTimeTicks,omitempty"`
	ProductionYear int           `json:"productionYear,omitempty"`
	EndYear        int           `json:"endYear,omitempty"`
	Status         string        `json:"status,omitempty"` // e.g. "Continuing", "Ended" for series
	OfficialRating string        `json:"officialRating,omitempty"`
	CommunityRating float64      `json:"communityRating,omitempty"`

	// Series linkage for episodes and seasons.
	SeriesID      string `json:"seriesId,omitempty"`
	SeriesName    string `json:"seriesName,omitempty"`
	SeasonNumber  int    `json:"seasonNumber,omitempty"`
	EpisodeNumber int    `json:"episodeNumber,omitempty"`

	UserData UserData `json:"userData"`
}

// IsSeries reports whether the item is a series record.
func (i Item) IsSeries() bool {
	return i.Type == ItemTypeSeries
}
