package domain

import "strings"

const (
	coarseVoteWeight = 4
	fineVoteWeight   = 6

	// MaxRecommendedGenres caps the list handed to event search.
	MaxRecommendedGenres = 5

	minGenreSimilarity = 0.8
)

// TicketmasterGenres is the classification vocabulary accepted by the
// Discovery API's classificationName filter for music events.
var TicketmasterGenres = []string{
	"alternative", "ballads", "romantics", "blues", "bollywood",
	"chanson francaise", "children", "classical", "country", "dance",
	"electronic", "folk", "hip-hop", "rap", "holiday", "jazz", "latin",
	"medieval/renaissance", "metal", "new age", "other", "pop", "r&b",
	"reggae", "religious", "rock", "world",
}

// GenrePrediction is one track's output from a two-level classifier: a broad
// label and a more specific one.
type GenrePrediction struct {
	Coarse string `json:"coarse"`
	Fine   string `json:"fine"`
}

// RankGenres runs a cumulative weighted vote over the predictions. For every
// track the coarse label earns 4 and the fine label 6; the label with the
// larger running score takes the track (coarse on ties). Labels are returned
// by number of tracks won, with earlier labels first on ties.
func RankGenres(preds []GenrePrediction) []string {
	scores := map[string]int{}
	wins := map[string]int{}
	var order []string

	for _, p := range preds {
		coarse := strings.ToLower(strings.TrimSpace(p.Coarse))
		fine := strings.ToLower(strings.TrimSpace(p.Fine))
		if coarse == "" && fine == "" {
			continue
		}
		if coarse != "" {
			scores[coarse] += coarseVoteWeight
		}
		if fine != "" {
			scores[fine] += fineVoteWeight
		}

		winner := coarse
		if winner == "" || (fine != "" && scores[fine] > scores[coarse]) {
			winner = fine
		}
		if _, ok := wins[winner]; !ok {
			order = append(order, winner)
		}
		wins[winner]++
	}

	ranked := make([]string, len(order))
	copy(ranked, order)
	// insertion sort keeps first-seen order among equal counts
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && wins[ranked[j]] > wins[ranked[j-1]]; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return ranked
}

// MatchTaxonomy maps ranked free-form genre labels onto TicketmasterGenres,
// preserving rank and dropping duplicates. A label matches an entry when one
// contains the other or their edit-distance similarity is high enough.
func MatchTaxonomy(ranked []string, limit int) []string {
	if limit <= 0 {
		limit = MaxRecommendedGenres
	}
	out := make([]string, 0, limit)
	picked := map[string]bool{}
	for _, label := range ranked {
		label = normalizeGenre(label)
		if label == "" {
			continue
		}
		for _, entry := range TicketmasterGenres {
			if picked[entry] || !genreMatches(label, entry) {
				continue
			}
			picked[entry] = true
			out = append(out, entry)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

// NearestTaxonomyGenre returns the first taxonomy entry matching label.
func NearestTaxonomyGenre(label string) (string, bool) {
	label = normalizeGenre(label)
	if label == "" {
		return "", false
	}
	for _, entry := range TicketmasterGenres {
		if genreMatches(label, entry) {
			return entry, true
		}
	}
	return "", false
}

func genreMatches(label, entry string) bool {
	if strings.Contains(label, entry) || strings.Contains(entry, label) {
		return true
	}
	return similarity(label, entry) >= minGenreSimilarity
}

func normalizeGenre(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

func similarity(a string, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}

	distance := levenshteinDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}

func levenshteinDistance(a string, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		copy(prev, curr)
	}

	return prev[len(rb)]
}
