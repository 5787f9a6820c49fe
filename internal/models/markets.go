package models

import "strings"

// Market is a Christmas market destination offered by the planner
type Market struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

// Country constants for the market catalog
const (
	CountryGermany       = "germany"
	CountryAustria       = "austria"
	CountryFrance        = "france"
	CountryCzechRepublic = "czech_republic"
	CountrySwitzerland   = "switzerland"
	CountryBelgium       = "belgium"
)

// catalogOrder keeps GET /api/markets output stable
var catalogOrder = []string{
	CountryGermany,
	CountryAustria,
	CountryFrance,
	CountryCzechRepublic,
	CountrySwitzerland,
	CountryBelgium,
}

// ChristmasMarkets lists the supported market cities per country
var ChristmasMarkets = map[string][]string{
	CountryGermany: {
		"Nuremberg", "Munich", "Dresden", "Cologne", "Frankfurt",
		"Berlin", "Stuttgart", "Hamburg", "Rothenburg ob der Tauber",
	},
	CountryAustria:       {"Vienna", "Salzburg", "Innsbruck", "Graz", "Linz"},
	CountryFrance:        {"Strasbourg", "Colmar", "Paris", "Lyon"},
	CountryCzechRepublic: {"Prague", "Brno", "Český Krumlov"},
	CountrySwitzerland:   {"Zurich", "Basel", "Lucerne"},
	CountryBelgium:       {"Brussels", "Bruges", "Ghent"},
}

// DefaultRecommendedMarkets is used when no market could be recommended
var DefaultRecommendedMarkets = []string{"Nuremberg", "Munich", "Vienna"}

// ListMarkets flattens the catalog in country order
func ListMarkets() []Market {
	var markets []Market
	for _, country := range catalogOrder {
		for _, name := range ChristmasMarkets[country] {
			markets = append(markets, Market{
				Name:    name,
				Country: GetCountryDisplayName(country),
			})
		}
	}
	return markets
}

// GetCountryDisplayName turns a catalog key such as czech_republic into "Czech Republic"
func GetCountryDisplayName(country string) string {
	words := strings.Split(country, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// FindMarketCountry returns the display country of a market, case-insensitively
func FindMarketCountry(name string) (string, bool) {
	for _, country := range catalogOrder {
		for _, market := range ChristmasMarkets[country] {
			if strings.EqualFold(market, strings.TrimSpace(name)) {
				return GetCountryDisplayName(country), true
			}
		}
	}
	return "", false
}
