package spotify

// playlistItemsPage is one page of GET /playlists/{id}/tracks, trimmed by
// the fields parameter to the track id and the next link.
type playlistItemsPage struct {
	Items []struct {
		Track *struct {
			ID string `json:"id"`
		} `json:"track"`
	} `json:"items"`
	Next string `json:"next"`
}

type spotifyArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbum struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	AlbumType   string             `json:"album_type"`
	ReleaseDate string             `json:"release_date"`
	Artists     []spotifyArtistRef `json:"artists"`
}

type spotifyTrack struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Popularity int                `json:"popularity"`
	DurationMs int                `json:"duration_ms"`
	Album      spotifyAlbum       `json:"album"`
	Artists    []spotifyArtistRef `json:"artists"`
}

type tracksResponse struct {
	Tracks []*spotifyTrack `json:"tracks"`
}

type spotifyArtist struct {
	ID     string   `json:"id"`
	Genres []string `json:"genres"`
}

type artistsResponse struct {
	Artists []*spotifyArtist `json:"artists"`
}

type spotifyAudioFeatures struct {
	ID               string  `json:"id"`
	Acousticness     float64 `json:"acousticness"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Loudness         float64 `json:"loudness"`
	Speechiness      float64 `json:"speechiness"`
	Tempo            float64 `json:"tempo"`
	Valence          float64 `json:"valence"`
	Key              int     `json:"key"`
	Mode             int     `json:"mode"`
	DurationMs       int     `json:"duration_ms"`
	TimeSignature    int     `json:"time_signature"`
}

type audioFeaturesResponse struct {
	AudioFeatures []*spotifyAudioFeatures `json:"audio_features"`
}
