package lavalink

// Track is a playable item as returned by the node's loadtracks endpoint.
// Encoded is the node's opaque playback token; Info fields are flattened
// into the struct for convenience.
type Track struct {
	Encoded    string
	ID         string
	Title      string
	Author     string
	URI        string
	Length     int64
	ArtworkURL string
	IsStream   bool
}

// trackPayload mirrors the wire shape of a track in node responses.
type trackPayload struct {
	Encoded string `json:"encoded"`
	Info    struct {
		Identifier string `json:"identifier"`
		Author     string `json:"author"`
		Length     int64  `json:"length"`
		IsStream   bool   `json:"isStream"`
		Title      string `json:"title"`
		URI        string `json:"uri"`
		ArtworkURL string `json:"artworkUrl"`
	} `json:"info"`
}

func (p trackPayload) toTrack() Track {
	return Track{
		Encoded:    p.Encoded,
		ID:         p.Info.Identifier,
		Title:      p.Info.Title,
		Author:     p.Info.Author,
		URI:        p.Info.URI,
		Length:     p.Info.Length,
		ArtworkURL: p.Info.ArtworkURL,
		IsStream:   p.Info.IsStream,
	}
}

// Snapshot is a point-in-time read of a guild player. It is a value copy:
// the queue slice is owned by the caller and safe to hold across mutations.
type Snapshot struct {
	Current  *Track
	Position int64
	Paused   bool
	Loop     bool
	Volume   int
	Queue    []Track
}
