package domain

import (
	"fmt"
	"strings"
	"time"
)

// EventDateLayout is the date format accepted for event searches.
const EventDateLayout = "2006-01-02"

// Event is a flattened live event.
type Event struct {
	ArtistName        string  `json:"artist_name"`
	TicketURL         string  `json:"ticket_url"`
	Date              string  `json:"date"`
	Time              string  `json:"time"`
	Venue             string  `json:"venue"`
	Address           string  `json:"address"`
	PostalCode        string  `json:"postal_code"`
	City              string  `json:"city"`
	ArtistImageLink   string  `json:"artist_image_link"`
	PriceMin          float64 `json:"price_min"`
	PriceMax          float64 `json:"price_max"`
	Currency          string  `json:"currency"`
	ArtistSpotifyLink string  `json:"artist_spotify_link"`
}

// EventQuery selects events in a city over a range of days.
type EventQuery struct {
	City   string
	Start  time.Time
	End    time.Time
	Genres []string
}

// EventPage is the combined result of a paged event search.
type EventPage struct {
	TotalElements int     `json:"total_elements"`
	TotalPages    int     `json:"total_pages"`
	Events        []Event `json:"events"`
}

// Validate checks the query before it is sent anywhere.
func (q EventQuery) Validate() error {
	if strings.TrimSpace(q.City) == "" {
		return fmt.Errorf("%w: city is required", ErrInvalidQuery)
	}
	if q.Start.IsZero() || q.End.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidQuery)
	}
	if q.Start.After(q.End) {
		return fmt.Errorf("%w: start date must not be after end date", ErrInvalidQuery)
	}
	return nil
}
