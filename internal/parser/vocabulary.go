package parser

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary holds the word lists the parser matches against.
// Tests and deployments may substitute their own lists; empty fields fall
// back to DefaultVocabulary on Normalize.
type Vocabulary struct {
	// Destinations is the known-destination list used by the city cascade.
	Destinations []string `yaml:"destinations" json:"destinations"`

	// Markets is the reference list for ExtractMarkets, in output order.
	Markets []string `yaml:"markets" json:"markets"`

	// CityMarkers precede a destination: "arrive in Vienna", "City: Prague".
	CityMarkers []string `yaml:"city_markers" json:"city_markers"`

	// MarketWords follow a destination: "Nuremberg Christkindlesmarkt".
	MarketWords []string `yaml:"market_words" json:"market_words"`

	// NonPlaceWords are capitalized words that never name a place on their own.
	NonPlaceWords []string `yaml:"non_place_words" json:"non_place_words"`

	// LeadingVerbs are stripped from the start of an activity line.
	LeadingVerbs []string `yaml:"leading_verbs" json:"leading_verbs"`

	MarketKeywords    []string `yaml:"market_keywords" json:"market_keywords"`
	TransportKeywords []string `yaml:"transport_keywords" json:"transport_keywords"`
	FoodKeywords      []string `yaml:"food_keywords" json:"food_keywords"`
}

var defaultDestinations = []string{
	"Nuremberg", "Munich", "Dresden", "Cologne", "Frankfurt", "Berlin", "Stuttgart", "Hamburg", "Rothenburg",
	"Vienna", "Salzburg", "Innsbruck", "Graz", "Linz",
	"Strasbourg", "Colmar", "Paris", "Lyon",
	"Prague", "Brno", "Český Krumlov",
	"Zurich", "Basel", "Lucerne",
	"Brussels", "Bruges", "Ghent",
}

var defaultMarkets = []string{
	"Nuremberg", "Munich", "Dresden", "Cologne", "Frankfurt", "Berlin", "Stuttgart", "Hamburg",
	"Vienna", "Salzburg", "Innsbruck", "Graz", "Linz",
	"Strasbourg", "Colmar", "Paris", "Lyon",
	"Prague", "Brno",
	"Zurich", "Basel", "Lucerne",
	"Brussels", "Bruges", "Ghent",
}

// DefaultVocabulary returns the built-in word lists.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		Destinations: append([]string(nil), defaultDestinations...),
		Markets:      append([]string(nil), defaultMarkets...),
		// Longer markers first so "arrive in" wins over "in"
		CityMarkers: []string{"arrive in", "travel to", "destination:", "visit", "explore", "in", "at"},
		MarketWords: []string{"Christmas", "Market", "Christkindlmarkt", "Weihnachtsmarkt"},
		NonPlaceWords: []string{
			"Day", "The", "An", "Visit", "Explore", "Exploring", "Arrive", "Arrival", "Departure",
			"Travel", "Transfer", "Journey", "Trip", "Head", "Go", "Welcome", "First", "Final", "Last",
			"Full", "Half", "Morning", "Afternoon", "Evening", "Night", "Midday", "Breakfast", "Lunch",
			"Dinner", "Christmas", "Market", "Markets", "Enjoy", "Take", "Check", "Depart", "Return",
			"Accommodation", "Hotel", "Tip", "Start", "Spend", "Walk", "Stroll", "Free", "Optional",
		},
		LeadingVerbs:      []string{"arrive in", "arrive at", "arrive", "visit", "explore", "travel to", "go to", "head to"},
		MarketKeywords:    []string{"market", "markt", "christkindl"},
		TransportKeywords: []string{"train", "flight", "bus", "arrival", "departure"},
		FoodKeywords:      []string{"dinner", "lunch", "breakfast", "café", "cafe", "restaurant", "food"},
	}
}

// Normalize trims entries, drops empty ones and fills missing lists with defaults.
// Keyword lists are lower-cased since classification runs on lower-cased text.
func (v *Vocabulary) Normalize() {
	def := DefaultVocabulary()

	v.Destinations = cleanList(v.Destinations, def.Destinations, false)
	v.Markets = cleanList(v.Markets, def.Markets, false)
	v.CityMarkers = cleanList(v.CityMarkers, def.CityMarkers, true)
	v.MarketWords = cleanList(v.MarketWords, def.MarketWords, false)
	v.NonPlaceWords = cleanList(v.NonPlaceWords, def.NonPlaceWords, false)
	v.LeadingVerbs = cleanList(v.LeadingVerbs, def.LeadingVerbs, true)
	v.MarketKeywords = cleanList(v.MarketKeywords, def.MarketKeywords, true)
	v.TransportKeywords = cleanList(v.TransportKeywords, def.TransportKeywords, true)
	v.FoodKeywords = cleanList(v.FoodKeywords, def.FoodKeywords, true)
}

func cleanList(values, fallback []string, lower bool) []string {
	var out []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if lower {
			value = strings.ToLower(value)
		}
		out = append(out, value)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// LoadVocabulary reads a YAML vocabulary file. Lists missing from the file
// keep their defaults.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if path == "" {
		return nil, errors.New("vocabulary path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var vocab Vocabulary
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file %s: %w", path, err)
	}
	vocab.Normalize()

	return &vocab, nil
}
