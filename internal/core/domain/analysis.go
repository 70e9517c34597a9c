package domain

import "time"

// Analysis is the stored result of one pipeline run over a playlist.
type Analysis struct {
	ID         string       `json:"id"`
	PlaylistID string       `json:"playlist_id"`
	Info       PlaylistInfo `json:"info"`
	Summary    Summary      `json:"summary"`
	Table      Table        `json:"-"`
	CSVPath    string       `json:"csv_path,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}
