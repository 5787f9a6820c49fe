package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"christmas-market-planner/internal/models"
)

// properNoun matches one or more capitalized words on a single line
const properNoun = `\p{Lu}\p{L}+(?:[ \t]+\p{Lu}\p{L}+)*`

// cityStrategy returns a destination found in text, or "" when it has no opinion
type cityStrategy func(text string) string

type cityResolver struct {
	vocab      *Vocabulary
	strategies []cityStrategy

	headerPattern  *regexp.Regexp
	contextPattern []*regexp.Regexp
	nonPlace       map[string]bool
}

func newCityResolver(vocab *Vocabulary) *cityResolver {
	r := &cityResolver{
		vocab:         vocab,
		headerPattern: regexp.MustCompile(`(?i:\bday)\s+\d+(?:[ \t]*[:\-])?[ \t]*(` + properNoun + `)`),
		contextPattern: []*regexp.Regexp{
			regexp.MustCompile(`\b(?i:` + alternation(longestFirst(vocab.CityMarkers)) + `)[ \t]+(` + properNoun + `)`),
			regexp.MustCompile(`(` + properNoun + `)[ \t]+(?i:` + alternation(vocab.MarketWords) + `)`),
			regexp.MustCompile(`\b(?i:city):[ \t]*(` + properNoun + `)`),
		},
		nonPlace: make(map[string]bool, len(vocab.NonPlaceWords)),
	}
	for _, word := range vocab.NonPlaceWords {
		r.nonPlace[strings.ToLower(word)] = true
	}

	r.strategies = []cityStrategy{
		r.fromDayHeader,
		r.fromContext,
		r.fromMention,
	}
	return r
}

// resolve runs the strategies in order; first non-empty answer wins
func (r *cityResolver) resolve(text string) string {
	for _, strategy := range r.strategies {
		if city := strategy(text); city != "" {
			return city
		}
	}
	return models.CityUnknown
}

// fromDayHeader reads "Day 2: Salzburg"
func (r *cityResolver) fromDayHeader(text string) string {
	match := r.headerPattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	candidate := strings.TrimSpace(match[1])
	if !plausibleLength(candidate) {
		return ""
	}
	if city := r.exactDestination(candidate); city != "" {
		return city
	}
	if r.looksLikePlace(candidate) {
		return candidate
	}
	return ""
}

// fromContext reads "arrive in Vienna", "Cologne Christmas market" and "City: Basel".
// Every match of a pattern is tried before moving on to the next pattern.
func (r *cityResolver) fromContext(text string) string {
	for _, pattern := range r.contextPattern {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			candidate := strings.TrimSpace(match[1])
			if !plausibleLength(candidate) {
				continue
			}
			if city := r.overlappingDestination(candidate); city != "" {
				return city
			}
			if r.looksLikePlace(candidate) {
				return candidate
			}
		}
	}
	return ""
}

// fromMention returns the first known destination written anywhere in the text
func (r *cityResolver) fromMention(text string) string {
	for _, city := range r.vocab.Destinations {
		if strings.Contains(text, city) {
			return city
		}
	}
	return ""
}

func (r *cityResolver) exactDestination(candidate string) string {
	for _, city := range r.vocab.Destinations {
		if strings.EqualFold(city, candidate) {
			return city
		}
	}
	return ""
}

func (r *cityResolver) overlappingDestination(candidate string) string {
	lower := strings.ToLower(candidate)
	for _, city := range r.vocab.Destinations {
		known := strings.ToLower(city)
		if known == lower || strings.Contains(lower, known) || strings.Contains(known, lower) {
			return city
		}
	}
	return ""
}

// looksLikePlace accepts short capitalized phrases made only of place-like words
func (r *cityResolver) looksLikePlace(candidate string) bool {
	words := strings.Fields(candidate)
	if len(words) == 0 || len(words) > 3 {
		return false
	}
	for _, word := range words {
		if r.nonPlace[strings.ToLower(word)] {
			return false
		}
	}
	return true
}

func plausibleLength(candidate string) bool {
	n := utf8.RuneCountInString(candidate)
	return n > 2 && n < 30
}

// alternation builds a regexp alternation of literal words
func alternation(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, word := range words {
		quoted = append(quoted, regexp.QuoteMeta(word))
	}
	return strings.Join(quoted, "|")
}
