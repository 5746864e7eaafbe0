package playback

import (
	"golang.org/x/text/language"

	"finview/models"
)

// pickStream returns the server-assigned Index of the stream of the given
// type whose language best matches the preferred tag, or -1 when nothing
// matches. Stream language tags come from the server and may be two- or
// three-letter codes.
func pickStream(streams []models.MediaStream, streamType, preferred string) int {
	if preferred == "" {
		return -1
	}
	want, err := language.Parse(preferred)
	if err != nil {
		return -1
	}

	var candidates []language.Tag
	var indexes []int
	for _, s := range streams {
		if s.Type != streamType || s.Language == "" {
			continue
		}
		tag, err := language.Parse(s.Language)
		if err != nil {
			continue
		}
		candidates = append(candidates, tag)
		indexes = append(indexes, s.Index)
	}
	if len(candidates) == 0 {
		return -1
	}

	matcher := language.NewMatcher(candidates)
	_, idx, conf := matcher.Match(want)
	if conf == language.No {
		return -1
	}
	return indexes[idx]
}
