package domain

import (
	"strings"
	"unicode"
)

// Country is one row of the static reference table.
// Schengen membership is consulted by the compliance calculator and by the
// import review screen (Schengen candidates are pre-selected).
type Country struct {
	Code     string // ISO-3166 alpha-2, upper case
	Name     string
	Schengen bool
	Aliases  []string // alternative spellings matched by ResolveCountryText
	Cities   []string // major cities matched by ResolveCountryText
}

// Countries is the static reference table.
// Membership reflects the Schengen area as of 2025; this table is data, not
// law — updating membership is a data change, not a code change.
var Countries = []Country{
	{Code: "AT", Name: "Austria", Schengen: true, Cities: []string{"Vienna", "Salzburg", "Innsbruck", "Graz"}},
	{Code: "BE", Name: "Belgium", Schengen: true, Cities: []string{"Brussels", "Antwerp", "Bruges", "Ghent"}},
	{Code: "BG", Name: "Bulgaria", Schengen: true, Cities: []string{"Sofia", "Plovdiv", "Varna"}},
	{Code: "HR", Name: "Croatia", Schengen: true, Cities: []string{"Zagreb", "Split", "Dubrovnik"}},
	{Code: "CZ", Name: "Czech Republic", Schengen: true, Aliases: []string{"Czechia"}, Cities: []string{"Prague", "Brno"}},
	{Code: "DK", Name: "Denmark", Schengen: true, Cities: []string{"Copenhagen", "Aarhus"}},
	{Code: "EE", Name: "Estonia", Schengen: true, Cities: []string{"Tallinn", "Tartu"}},
	{Code: "FI", Name: "Finland", Schengen: true, Cities: []string{"Helsinki", "Tampere", "Rovaniemi"}},
	{Code: "FR", Name: "France", Schengen: true, Cities: []string{"Paris", "Lyon", "Marseille", "Nice", "Bordeaux", "Toulouse"}},
	{Code: "DE", Name: "Germany", Schengen: true, Cities: []string{"Berlin", "Munich", "Hamburg", "Frankfurt", "Cologne", "Stuttgart"}},
	{Code: "GR", Name: "Greece", Schengen: true, Cities: []string{"Athens", "Thessaloniki", "Santorini", "Crete"}},
	{Code: "HU", Name: "Hungary", Schengen: true, Cities: []string{"Budapest", "Debrecen"}},
	{Code: "IS", Name: "Iceland", Schengen: true, Cities: []string{"Reykjavik"}},
	{Code: "IT", Name: "Italy", Schengen: true, Cities: []string{"Rome", "Milan", "Venice", "Florence", "Naples", "Turin"}},
	{Code: "LV", Name: "Latvia", Schengen: true, Cities: []string{"Riga"}},
	{Code: "LI", Name: "Liechtenstein", Schengen: true, Cities: []string{"Vaduz"}},
	{Code: "LT", Name: "Lithuania", Schengen: true, Cities: []string{"Vilnius", "Kaunas"}},
	{Code: "LU", Name: "Luxembourg", Schengen: true},
	{Code: "MT", Name: "Malta", Schengen: true, Cities: []string{"Valletta"}},
	{Code: "NL", Name: "Netherlands", Schengen: true, Aliases: []string{"Holland"}, Cities: []string{"Amsterdam", "Rotterdam", "The Hague", "Utrecht"}},
	{Code: "NO", Name: "Norway", Schengen: true, Cities: []string{"Oslo", "Bergen", "Tromso"}},
	{Code: "PL", Name: "Poland", Schengen: true, Cities: []string{"Warsaw", "Krakow", "Gdansk", "Wroclaw"}},
	{Code: "PT", Name: "Portugal", Schengen: true, Cities: []string{"Lisbon", "Porto", "Faro"}},
	{Code: "RO", Name: "Romania", Schengen: true, Cities: []string{"Bucharest", "Cluj"}},
	{Code: "SK", Name: "Slovakia", Schengen: true, Cities: []string{"Bratislava"}},
	{Code: "SI", Name: "Slovenia", Schengen: true, Cities: []string{"Ljubljana", "Bled"}},
	{Code: "ES", Name: "Spain", Schengen: true, Cities: []string{"Madrid", "Barcelona", "Seville", "Valencia", "Malaga", "Bilbao"}},
	{Code: "SE", Name: "Sweden", Schengen: true, Cities: []string{"Stockholm", "Gothenburg", "Malmo"}},
	{Code: "CH", Name: "Switzerland", Schengen: true, Cities: []string{"Zurich", "Geneva", "Basel", "Bern", "Zermatt"}},

	{Code: "GB", Name: "United Kingdom", Schengen: false, Aliases: []string{"Great Britain", "England", "Scotland", "Wales"}, Cities: []string{"London", "Edinburgh", "Manchester", "Glasgow"}},
	{Code: "IE", Name: "Ireland", Schengen: false, Cities: []string{"Dublin", "Cork"}},
	{Code: "CY", Name: "Cyprus", Schengen: false, Cities: []string{"Nicosia", "Limassol"}},
	{Code: "US", Name: "United States", Schengen: false, Aliases: []string{"USA"}, Cities: []string{"New York", "Los Angeles", "Chicago", "Miami", "San Francisco", "Boston"}},
	{Code: "CA", Name: "Canada", Schengen: false, Cities: []string{"Toronto", "Vancouver", "Montreal"}},
	{Code: "TR", Name: "Turkey", Schengen: false, Aliases: []string{"Turkiye"}, Cities: []string{"Istanbul", "Ankara", "Antalya", "Izmir"}},
	{Code: "MA", Name: "Morocco", Schengen: false, Cities: []string{"Marrakech", "Casablanca", "Fes"}},
	{Code: "AL", Name: "Albania", Schengen: false, Cities: []string{"Tirana"}},
	{Code: "RS", Name: "Serbia", Schengen: false, Cities: []string{"Belgrade", "Novi Sad"}},
	{Code: "ME", Name: "Montenegro", Schengen: false, Cities: []string{"Podgorica", "Kotor"}},
	{Code: "MK", Name: "North Macedonia", Schengen: false, Cities: []string{"Skopje"}},
	{Code: "BA", Name: "Bosnia and Herzegovina", Schengen: false, Aliases: []string{"Bosnia"}, Cities: []string{"Sarajevo", "Mostar"}},
	{Code: "UA", Name: "Ukraine", Schengen: false, Cities: []string{"Kyiv", "Lviv", "Odesa"}},
	{Code: "GE", Name: "Georgia", Schengen: false, Cities: []string{"Tbilisi", "Batumi"}},
	{Code: "AE", Name: "United Arab Emirates", Schengen: false, Aliases: []string{"UAE"}, Cities: []string{"Dubai", "Abu Dhabi"}},
	{Code: "TH", Name: "Thailand", Schengen: false, Cities: []string{"Bangkok", "Chiang Mai", "Phuket"}},
	{Code: "JP", Name: "Japan", Schengen: false, Cities: []string{"Tokyo", "Osaka", "Kyoto"}},
	{Code: "MX", Name: "Mexico", Schengen: false, Cities: []string{"Mexico City", "Cancun", "Oaxaca"}},
	{Code: "EG", Name: "Egypt", Schengen: false, Cities: []string{"Cairo", "Luxor", "Hurghada"}},
}

// countryByCode is built once from Countries for O(1) lookups.
var countryByCode = func() map[string]Country {
	m := make(map[string]Country, len(Countries))
	for _, c := range Countries {
		m[c.Code] = c
	}
	return m
}()

// CountryByCode returns the reference row for an ISO alpha-2 code
// (case-insensitive). The second result is false for unknown codes.
func CountryByCode(code string) (Country, bool) {
	c, ok := countryByCode[strings.ToUpper(code)]
	return c, ok
}

// IsSchengen reports whether code belongs to a Schengen member.
// Unknown codes are not Schengen.
func IsSchengen(code string) bool {
	c, ok := CountryByCode(code)
	return ok && c.Schengen
}

// textTerm is one matchable term of the text index: a country name, alias,
// or city, lower-cased, pointing back at its country code.
type textTerm struct {
	term string
	code string
}

// textIndex is built once from Countries. Terms are matched as
// case-insensitive whole words, so "Venice" does not resolve to FR through
// the embedded "nice", but "Hotel in Nice" does resolve.
var textIndex = func() []textTerm {
	var idx []textTerm
	for _, c := range Countries {
		idx = append(idx, textTerm{strings.ToLower(c.Name), c.Code})
		for _, a := range c.Aliases {
			idx = append(idx, textTerm{strings.ToLower(a), c.Code})
		}
		for _, city := range c.Cities {
			idx = append(idx, textTerm{strings.ToLower(city), c.Code})
		}
	}
	return idx
}()

// ResolveCountryText scans free text (an event title, a location field) for a
// known country name, alias, or major city and returns the matched country.
// When several terms match, the longest wins: "Paris, France" resolves via
// "france" rather than "paris", and "New York" beats "York" if both existed.
// Returns false when nothing in the text matches.
func ResolveCountryText(text string) (Country, bool) {
	lower := strings.ToLower(text)

	var best textTerm
	for _, t := range textIndex {
		if len(t.term) <= len(best.term) {
			continue
		}
		if containsWord(lower, t.term) {
			best = t
		}
	}
	if best.code == "" {
		return Country{}, false
	}
	c, _ := CountryByCode(best.code)
	return c, true
}

// containsWord reports whether term occurs in s bounded by non-letter runes
// (or the string edges). s and term must already be lower case.
func containsWord(s, term string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)

		leftOK := start == 0 || !isLetter(rune(s[start-1]))
		rightOK := end == len(s) || !isLetter(rune(s[end]))
		if leftOK && rightOK {
			return true
		}
		from = start + 1
	}
}

func isLetter(r rune) bool {
	return unicode.IsLetter(r)
}
