package domain

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const (
	// ScalePercent maps loudness and tempo onto 0..100.
	ScalePercent = 100.0
	// ScaleUnit maps loudness and tempo onto 0..1.
	ScaleUnit = 1.0

	multiValueSeparator = ","
)

// CleanedRow is one row of the exported table.
type CleanedRow struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	ArtistIDs        string  `json:"artist_id"`
	Artists          string  `json:"artists"`
	Genres           string  `json:"artist_genre"`
	AlbumType        string  `json:"album_type"`
	AlbumID          string  `json:"album_id"`
	AlbumName        string  `json:"album_name"`
	ReleaseYear      *int    `json:"album_release_date"`
	DurationMs       int     `json:"duration_ms"`
	Popularity       int     `json:"popularity"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Key              int     `json:"key"`
	Loudness         float64 `json:"loudness"`
	Mode             int     `json:"mode"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	TimeSignature    int     `json:"time_signature"`
}

// Table is the cleaned, batch-normalized form of one playlist.
type Table struct {
	PlaylistID string       `json:"playlist_id"`
	Scale      float64      `json:"scale"`
	Rows       []CleanedRow `json:"rows"`
}

// Cleaner turns joined rows into a Table. The zero value scales to 0..100.
type Cleaner struct {
	Scale float64
}

// Clean drops incomplete rows, removes duplicate tracks, flattens the
// multi-valued fields and rescales loudness and tempo over the surviving
// rows. Running it on the output of Table.Joined returns the same table.
func (c Cleaner) Clean(playlistID string, rows []JoinedRow) Table {
	scale := c.Scale
	if scale <= 0 {
		scale = ScalePercent
	}

	seen := make(map[string]struct{}, len(rows))
	out := make([]CleanedRow, 0, len(rows))
	for _, row := range rows {
		if !hasEssentials(row) {
			continue
		}
		id := row.ID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, cleanRow(id, row))
	}

	rescale(out, scale,
		func(r *CleanedRow) *float64 { return &r.Loudness },
		func(r *CleanedRow) *float64 { return &r.Tempo },
	)

	return Table{PlaylistID: playlistID, Scale: scale, Rows: out}
}

func hasEssentials(row JoinedRow) bool {
	return row.ID() != "" &&
		row.Name != "" &&
		row.ArtistIDs != nil &&
		row.ArtistNames != nil &&
		row.GenresResolved && row.Genres != nil &&
		!row.FeaturesMissing
}

func cleanRow(id string, row JoinedRow) CleanedRow {
	return CleanedRow{
		ID:               id,
		Name:             strings.ToLower(row.Name),
		ArtistIDs:        collapse(row.ArtistIDs, false),
		Artists:          collapse(row.ArtistNames, true),
		Genres:           collapse(row.Genres, true),
		AlbumType:        row.AlbumType,
		AlbumID:          row.AlbumID,
		AlbumName:        strings.ToLower(row.AlbumName),
		ReleaseYear:      ParseReleaseYear(row.AlbumReleaseDate),
		DurationMs:       row.DurationMs(),
		Popularity:       row.Popularity,
		Danceability:     row.Danceability,
		Energy:           row.Energy,
		Key:              row.Key,
		Loudness:         row.Loudness,
		Mode:             row.Mode,
		Speechiness:      row.Speechiness,
		Acousticness:     row.Acousticness,
		Instrumentalness: row.Instrumentalness,
		Liveness:         row.Liveness,
		Valence:          row.Valence,
		Tempo:            row.Tempo,
		TimeSignature:    row.TimeSignature,
	}
}

// collapse de-duplicates values (first occurrence order, after lower-casing
// when lower is set) and joins them.
// Double quotes become single quotes so the CSV cell never needs escaping
// of embedded quotes.
func collapse(values []string, lower bool) string {
	if lower {
		values = lo.Map(values, func(v string, _ int) string { return strings.ToLower(v) })
	}
	joined := strings.Join(lo.Uniq(values), multiValueSeparator)
	return strings.ReplaceAll(joined, `"`, `'`)
}

// ParseReleaseYear accepts YYYY, YYYY-MM and YYYY-MM-DD. Anything else is nil.
func ParseReleaseYear(date string) *int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return nil
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year <= 0 {
		return nil
	}

	rest := date[4:]
	switch len(rest) {
	case 0:
	case 3:
		if !validDatePart(rest, 12) {
			return nil
		}
	case 6:
		if !validDatePart(rest[:3], 12) || !validDatePart(rest[3:], 31) {
			return nil
		}
	default:
		return nil
	}
	return &year
}

func validDatePart(part string, upper int) bool {
	if len(part) != 3 || part[0] != '-' {
		return false
	}
	n, err := strconv.Atoi(part[1:])
	return err == nil && n >= 1 && n <= upper
}

// rescale applies min-max scaling over the batch for each selected field.
// A field that already spans exactly [0, scale] is left as is; a field with
// no spread collapses to 0.
func rescale(rows []CleanedRow, scale float64, fields ...func(*CleanedRow) *float64) {
	if len(rows) == 0 {
		return
	}
	for _, field := range fields {
		lowest, highest := *field(&rows[0]), *field(&rows[0])
		for i := range rows {
			v := *field(&rows[i])
			lowest = min(lowest, v)
			highest = max(highest, v)
		}
		if lowest == 0 && highest == scale {
			continue
		}
		spread := highest - lowest
		for i := range rows {
			v := field(&rows[i])
			if spread == 0 {
				*v = 0
				continue
			}
			*v = (*v - lowest) / spread * scale
		}
	}
}

// Joined converts a table back into joined rows so it can be cleaned again.
// Collapsed fields are carried as single values.
func (t Table) Joined() []JoinedRow {
	rows := make([]JoinedRow, len(t.Rows))
	for i, r := range t.Rows {
		release := ""
		if r.ReleaseYear != nil {
			release = strconv.Itoa(*r.ReleaseYear)
		}
		rows[i] = JoinedRow{
			TrackMetadata: TrackMetadata{
				ID:               r.ID,
				Name:             r.Name,
				Popularity:       r.Popularity,
				DurationMs:       r.DurationMs,
				AlbumType:        r.AlbumType,
				AlbumID:          r.AlbumID,
				AlbumName:        r.AlbumName,
				AlbumReleaseDate: release,
				ArtistNames:      []string{r.Artists},
				ArtistIDs:        []string{r.ArtistIDs},
				Genres:           []string{r.Genres},
				GenresResolved:   true,
			},
			AudioFeatures: AudioFeatures{
				ID:               r.ID,
				Acousticness:     r.Acousticness,
				Danceability:     r.Danceability,
				Energy:           r.Energy,
				Instrumentalness: r.Instrumentalness,
				Liveness:         r.Liveness,
				Loudness:         r.Loudness,
				Speechiness:      r.Speechiness,
				Tempo:            r.Tempo,
				Valence:          r.Valence,
				Key:              r.Key,
				Mode:             r.Mode,
				DurationMs:       r.DurationMs,
				TimeSignature:    r.TimeSignature,
			},
		}
	}
	return rows
}

// SplitValues expands a collapsed field back into its trimmed, non-empty
// values.
func SplitValues(field string) []string {
	parts := strings.Split(field, multiValueSeparator)
	return lo.FilterMap(parts, func(p string, _ int) (string, bool) {
		p = strings.TrimSpace(p)
		return p, p != ""
	})
}
