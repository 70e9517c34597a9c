package ticketmaster

import (
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/encore/internal/core/domain"
)

type pageResult struct {
	totalElements int
	totalPages    int
	events        []domain.Event
}

func parsePage(body []byte, logger *zap.Logger) pageResult {
	doc := gjson.ParseBytes(body)
	result := pageResult{
		totalElements: int(doc.Get("page.totalElements").Int()),
		totalPages:    int(doc.Get("page.totalPages").Int()),
	}

	for _, raw := range doc.Get("_embedded.events").Array() {
		ev, ok := parseEvent(raw)
		if !ok {
			logger.Debug("ticketmaster: skipping event without name or url",
				zap.String("id", raw.Get("id").String()))
			continue
		}
		result.events = append(result.events, ev)
	}
	return result
}

// parseEvent flattens one event. Missing optional fields stay empty and a
// missing price range reads as zero.
func parseEvent(raw gjson.Result) (domain.Event, bool) {
	name := raw.Get("name").String()
	url := raw.Get("url").String()
	if name == "" || url == "" {
		return domain.Event{}, false
	}

	venue := raw.Get("_embedded.venues.0")
	price := raw.Get("priceRanges.0")

	return domain.Event{
		ArtistName:        domain.TitleCase(name),
		TicketURL:         url,
		Date:              raw.Get("dates.start.localDate").String(),
		Time:              raw.Get("dates.start.localTime").String(),
		Venue:             venue.Get("name").String(),
		Address:           venue.Get("address.line1").String(),
		PostalCode:        venue.Get("postalCode").String(),
		City:              venue.Get("city.name").String(),
		ArtistImageLink:   imageLink(raw.Get("images")),
		PriceMin:          price.Get("min").Float(),
		PriceMax:          price.Get("max").Float(),
		Currency:          price.Get("currency").String(),
		ArtistSpotifyLink: raw.Get("_embedded.attractions.0.externalLinks.spotify.0.url").String(),
	}, true
}

// imageLink prefers the first 3:2 image, otherwise the first one.
func imageLink(images gjson.Result) string {
	for _, img := range images.Array() {
		if img.Get("ratio").String() == "3_2" {
			return img.Get("url").String()
		}
	}
	return images.Get("0.url").String()
}
