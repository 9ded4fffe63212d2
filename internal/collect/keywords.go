package collect

import (
	"strings"

	"github.com/mhartwig/schengen-keeper/internal/domain"
)

// travelKeywords are generic travel terms that mark a calendar event as
// trip-related even when no place name appears in it ("Flight to see Anna").
// Country and city names are matched separately through the reference table.
var travelKeywords = []string{
	"flight", "fly to", "departure", "arrival", "airport",
	"hotel", "hostel", "airbnb", "check-in", "check in", "checkout", "check out",
	"train to", "ferry", "trip", "vacation", "holiday", "travel",
	"conference", "summit", "offsite",
}

// isTravelEvent reports whether the combined title+location text of a
// calendar event looks travel-related: either a generic travel keyword or a
// known country/city name appears in it.
func isTravelEvent(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range travelKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	_, ok := domain.ResolveCountryText(text)
	return ok
}
