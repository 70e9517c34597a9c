package domain

import (
	"math"
	"sort"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	topListSize        = 5
	uniquenessTailSize = 10
	msPerMinute        = 60000.0
)

// Count is a label with its number of occurrences.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Profile is the playlist's mean audio profile on a 0..100 scale.
type Profile struct {
	Acousticness float64 `json:"acousticness"`
	Danceability float64 `json:"danceability"`
	Energy       float64 `json:"energy"`
	Liveness     float64 `json:"liveness"`
	Loudness     float64 `json:"loudness"`
	Speechiness  float64 `json:"speechiness"`
	Tempo        float64 `json:"tempo"`
	Valence      float64 `json:"valence"`
}

// Summary is the descriptive statistics block of an analysis.
type Summary struct {
	TotalSongs           int     `json:"total_songs"`
	AvgPopularity        float64 `json:"avg_popularity"`
	MostListenedYear     int     `json:"most_listened_year,omitempty"`
	MostListenedDecade   string  `json:"most_listened_decade,omitempty"`
	MostPopularTrack     string  `json:"most_popular_track,omitempty"`
	TotalDurationMinutes float64 `json:"total_duration_minutes"`
	AvgDurationMinutes   float64 `json:"avg_duration_minutes"`
	Uniqueness           int     `json:"uniqueness"`
	TopArtists           []Count `json:"top_artists"`
	TopGenres            []Count `json:"top_genres"`
	Profile              Profile `json:"profile"`
}

// Summarize computes the statistics shown on the analysis page.
func Summarize(t Table) Summary {
	s := Summary{TotalSongs: len(t.Rows), TopArtists: []Count{}, TopGenres: []Count{}}
	if len(t.Rows) == 0 {
		return s
	}

	var popularity, duration int
	best := 0
	years := map[int]int{}
	artists := map[string]int{}
	genres := map[string]int{}
	for i, r := range t.Rows {
		popularity += r.Popularity
		duration += r.DurationMs
		if r.Popularity > t.Rows[best].Popularity {
			best = i
		}
		if r.ReleaseYear != nil {
			years[*r.ReleaseYear]++
		}
		for _, a := range SplitValues(r.Artists) {
			artists[a]++
		}
		for _, g := range SplitValues(r.Genres) {
			genres[g]++
		}
	}

	n := float64(len(t.Rows))
	avg := float64(popularity) / n
	s.AvgPopularity = round2(avg)
	s.MostPopularTrack = TitleCase(t.Rows[best].Name)
	s.TotalDurationMinutes = round2(float64(duration) / msPerMinute)
	s.AvgDurationMinutes = round2(float64(duration) / msPerMinute / n)
	s.Uniqueness = uniqueness(t.Rows, avg)
	s.TopArtists = topCounts(artists, topListSize)
	s.TopGenres = topCounts(genres, topListSize)
	s.Profile = profile(t)

	if year, ok := modeYear(years); ok {
		s.MostListenedYear = year
		s.MostListenedDecade = strconv.Itoa(year/10*10) + "s"
	}
	return s
}

// uniqueness compares the mean popularity with the mean of the least popular
// tracks. Higher means the playlist leans on lesser-known songs.
func uniqueness(rows []CleanedRow, avg float64) int {
	if avg == 0 {
		return 0
	}
	pops := make([]int, len(rows))
	for i, r := range rows {
		pops[i] = r.Popularity
	}
	sort.Ints(pops)
	tail := pops[:min(uniquenessTailSize, len(pops))]
	sum := 0
	for _, p := range tail {
		sum += p
	}
	tailAvg := float64(sum) / float64(len(tail))
	return int(math.Round((avg - tailAvg) / avg * 100))
}

func modeYear(years map[int]int) (int, bool) {
	bestYear, bestCount := 0, 0
	for year, count := range years {
		if count > bestCount || (count == bestCount && year < bestYear) {
			bestYear, bestCount = year, count
		}
	}
	return bestYear, bestCount > 0
}

func topCounts(counts map[string]int, limit int) []Count {
	out := make([]Count, 0, len(counts))
	for label, c := range counts {
		out = append(out, Count{Label: label, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Label = TitleCase(out[i].Label)
	}
	return out
}

func profile(t Table) Profile {
	var p Profile
	for _, r := range t.Rows {
		p.Acousticness += r.Acousticness
		p.Danceability += r.Danceability
		p.Energy += r.Energy
		p.Liveness += r.Liveness
		p.Loudness += r.Loudness
		p.Speechiness += r.Speechiness
		p.Tempo += r.Tempo
		p.Valence += r.Valence
	}
	n := float64(len(t.Rows))
	unit := 100 / n
	scaled := 100 / t.scale() / n
	return Profile{
		Acousticness: round2(p.Acousticness * unit),
		Danceability: round2(p.Danceability * unit),
		Energy:       round2(p.Energy * unit),
		Liveness:     round2(p.Liveness * unit),
		Loudness:     round2(p.Loudness * scaled),
		Speechiness:  round2(p.Speechiness * unit),
		Tempo:        round2(p.Tempo * scaled),
		Valence:      round2(p.Valence * unit),
	}
}

func (t Table) scale() float64 {
	if t.Scale <= 0 {
		return ScalePercent
	}
	return t.Scale
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TitleCase upper-cases the first letter of every word.
func TitleCase(s string) string {
	return cases.Title(language.English).String(s)
}
