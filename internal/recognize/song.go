// Package recognize records ambient audio and identifies the song playing
// through a remote fingerprint service.
package recognize

import (
	"errors"
	"fmt"
	"strings"
)

// Placeholders used when the service omits a field.
const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"
)

// ErrNoMatch is returned when the service could not identify the recording.
var ErrNoMatch = errors.New("song not recognized")

// Song is a recognized track.
type Song struct {
	Track       string `json:"track"`
	Artist      string `json:"artist"`
	Album       string `json:"album,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
	Label       string `json:"label,omitempty"`
}

// Query returns the "<track> <artist>" string used to search for the song.
func (s Song) Query() string {
	return strings.TrimSpace(s.Track + " " + s.Artist)
}

// String implements fmt.Stringer.
func (s Song) String() string {
	return fmt.Sprintf("%s by %s", s.Track, s.Artist)
}

func (s *Song) fillUnknown() {
	if strings.TrimSpace(s.Track) == "" {
		s.Track = UnknownTitle
	}
	if strings.TrimSpace(s.Artist) == "" {
		s.Artist = UnknownArtist
	}
}

// APIError is a failure reported by the recognition service itself.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("recognition service error %d: %s", e.Code, e.Message)
}
