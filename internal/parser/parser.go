// Package parser turns free-text travel plans into structured day-by-day itineraries.
//
// Parsing never fails. Text with explicit "Day N" markers is split by marker,
// text without markers is split into paragraphs, and anything else becomes a
// single catch-all day. Which of the three tiers produced the result is
// reported through Report so callers can track output quality.
package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"christmas-market-planner/internal/models"
)

// Parse tiers, from most to least structured
const (
	TierDayMarkers = 1
	TierParagraphs = 2
	TierSingleDay  = 3
)

const (
	headerLineMaxLength = 50
	minActivityLine     = 10
	syntheticTextLength = 200
	paragraphMinLength  = 20
	paragraphDescLength = 300
	fallbackDescLength  = 500
	fallbackTitle       = "Your Itinerary"
	defaultClock        = "09:00"
)

// Report describes how an itinerary was parsed
type Report struct {
	Tier             int `json:"tier"`
	Days             int `json:"days"`
	Activities       int `json:"activities"`
	SegmentsFound    int `json:"segments_found"`
	SegmentsDropped  int `json:"segments_dropped"`
	LinesRejected    int `json:"lines_rejected"`
	UnresolvedCities int `json:"unresolved_cities"`
	OutOfRangeDays   int `json:"out_of_range_days"`
	TripDays         int `json:"trip_days,omitempty"`
}

// Parser holds compiled patterns and a vocabulary. It keeps no state between
// calls and is safe for concurrent use.
type Parser struct {
	vocab  *Vocabulary
	cities *cityResolver
	times  []timeStrategy
	tiers  []tier

	dayMarker      *regexp.Regexp
	headerLine     *regexp.Regexp
	dayRemnant     *regexp.Regexp
	dayHeaders     *regexp.Regexp
	leadingMarks   *regexp.Regexp
	leadingVerb    *regexp.Regexp
	paragraphBreak *regexp.Regexp
}

// parseInput is the argument set shared by the tiers of one call
type parseInput struct {
	text      string
	startDate string
	endDate   string
	report    *Report
}

// tier returns the days it could build, or nothing to let the next tier try
type tier func(in *parseInput) []models.ItineraryDay

// segment is one "Day N" marker and the text up to the next marker
type segment struct {
	position int
	digits   string
	body     string // text after the marker
	text     string // marker and body
}

// New builds a parser for the given vocabulary; nil means DefaultVocabulary.
func New(vocab *Vocabulary) *Parser {
	v := DefaultVocabulary()
	if vocab != nil {
		copied := *vocab
		v = &copied
	}
	v.Normalize()

	p := &Parser{
		vocab:          v,
		cities:         newCityResolver(v),
		times:          defaultTimeStrategies(),
		dayMarker:      regexp.MustCompile(`(?i)\bday\s+(\d+)(?:[ \t]*[:\-])?`),
		headerLine:     regexp.MustCompile(`(?i)^day\s+\d+`),
		dayRemnant:     regexp.MustCompile(`(?i)^day\s+\d+(?:[ \t]*[:\-])?\s*`),
		dayHeaders:     regexp.MustCompile(`(?i)\bday\s+\d+(?:[ \t]*[:\-])?[ \t]*`),
		leadingMarks:   regexp.MustCompile(`^(?:[:\-–—•*][ \t]*)+`),
		leadingVerb:    regexp.MustCompile(`(?i)^(?:` + alternation(longestFirst(v.LeadingVerbs)) + `)\s+`),
		paragraphBreak: regexp.MustCompile(`\n(?:[ \t]*\n)+`),
	}
	p.tiers = []tier{p.byDayMarkers, p.byParagraphs}
	return p
}

var defaultParser = New(nil)

// Parse structures itinerary text with the default vocabulary.
func Parse(itineraryText, startDate, endDate string) []models.ItineraryDay {
	return defaultParser.Parse(itineraryText, startDate, endDate)
}

// ParseWithReport is Parse with diagnostics, using the default vocabulary.
func ParseWithReport(itineraryText, startDate, endDate string) ([]models.ItineraryDay, Report) {
	return defaultParser.ParseWithReport(itineraryText, startDate, endDate)
}

// Parse structures itinerary text into days. The result always holds at
// least one day and every day holds at least one activity.
func (p *Parser) Parse(itineraryText, startDate, endDate string) []models.ItineraryDay {
	days, _ := p.ParseWithReport(itineraryText, startDate, endDate)
	return days
}

// ParseWithReport is Parse plus a description of how the result was obtained.
func (p *Parser) ParseWithReport(itineraryText, startDate, endDate string) ([]models.ItineraryDay, Report) {
	report := Report{}
	in := &parseInput{
		text:      strings.ReplaceAll(itineraryText, "\r\n", "\n"),
		startDate: startDate,
		endDate:   endDate,
		report:    &report,
	}

	var days []models.ItineraryDay
	for i, attempt := range p.tiers {
		if days = attempt(in); len(days) > 0 {
			report.Tier = i + 1
			break
		}
	}
	if len(days) == 0 {
		days = p.singleDay(in)
		report.Tier = TierSingleDay
	}

	p.summarize(days, in)
	return days, report
}

// ResolveCity runs the city cascade on a piece of text. It returns
// models.CityUnknown when no strategy finds a destination.
func (p *Parser) ResolveCity(text string) string {
	return p.cities.resolve(text)
}

// byDayMarkers builds one day per "Day N" segment
func (p *Parser) byDayMarkers(in *parseInput) []models.ItineraryDay {
	segments := p.splitSegments(in.text)
	in.report.SegmentsFound = len(segments)

	var days []models.ItineraryDay
	last := 0
	for _, seg := range segments {
		number := seg.dayNumber()
		// Repeated or out-of-order markers keep numbering strictly increasing
		if number <= last {
			number = last + 1
		}

		day, ok := p.buildDay(seg, number, in)
		if !ok {
			in.report.SegmentsDropped++
			continue
		}
		days = append(days, day)
		last = number
	}
	return days
}

func (p *Parser) splitSegments(text string) []segment {
	locs := p.dayMarker.FindAllStringSubmatchIndex(text, -1)
	segments := make([]segment, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		segments = append(segments, segment{
			position: i + 1,
			digits:   text[loc[2]:loc[3]],
			body:     text[loc[1]:end],
			text:     text[loc[0]:end],
		})
	}
	return segments
}

func (s segment) dayNumber() int {
	n, err := strconv.Atoi(s.digits)
	if err != nil || n < 1 {
		return s.position
	}
	return n
}

func (p *Parser) buildDay(seg segment, number int, in *parseInput) (models.ItineraryDay, bool) {
	city := p.cities.resolve(seg.text)
	activities := p.segmentActivities(seg, in.report)

	if len(activities) == 0 {
		if synthetic, ok := p.syntheticActivity(seg, number); ok {
			activities = append(activities, synthetic)
		}
	}

	if len(activities) == 0 && city == models.CityUnknown {
		return models.ItineraryDay{}, false
	}
	if city == models.CityUnknown {
		city = models.CityVariousLocations
	}
	if len(activities) == 0 {
		activities = []models.ItineraryActivity{{
			Time:        defaultClock,
			Title:       fmt.Sprintf("Day %d Activities", number),
			Description: models.Prefix(strings.TrimSpace(seg.body), syntheticTextLength),
			Type:        models.ActivityTypeActivity,
		}}
	}

	return models.ItineraryDay{
		Day:           number,
		Date:          dayDate(in.startDate, number),
		City:          city,
		Activities:    activities,
		Accommodation: extractAccommodation(seg.text),
		Tip:           extractTip(seg.text),
	}, true
}

// segmentActivities extracts one activity per usable line of a segment
func (p *Parser) segmentActivities(seg segment, report *Report) []models.ItineraryActivity {
	var activities []models.ItineraryActivity
	untimed := 0
	for _, raw := range strings.Split(seg.text, "\n") {
		line := strings.ToValidUTF8(strings.TrimSpace(raw), "\uFFFD")
		if line == "" {
			continue
		}
		if p.headerLine.MatchString(line) && utf8.RuneCountInString(line) < headerLineMaxLength {
			continue
		}

		clock, rest, found := p.extractTime(line)
		if !found {
			clock = defaultClock
			if utf8.RuneCountInString(line) > minActivityLine {
				clock = positionalClock(untimed)
				untimed++
			}
		}

		activity, ok := p.buildActivity(clock, rest)
		if !ok {
			report.LinesRejected++
			continue
		}
		activities = append(activities, activity)
	}
	return activities
}

// syntheticActivity summarizes a segment whose lines produced no activity
func (p *Parser) syntheticActivity(seg segment, number int) (models.ItineraryActivity, bool) {
	clean := p.dayHeaders.ReplaceAllString(seg.text, "")
	clean = p.leadingMarks.ReplaceAllString(strings.ToValidUTF8(strings.TrimSpace(clean), "\uFFFD"), "")
	clean = models.Prefix(strings.TrimSpace(clean), syntheticTextLength)
	if utf8.RuneCountInString(clean) <= minActivityLine {
		return models.ItineraryActivity{}, false
	}

	title := models.Truncate(strings.TrimSpace(strings.SplitN(clean, "\n", 2)[0]), models.MaxTitleLength)
	if title == "" {
		title = fmt.Sprintf("Day %d Activities", number)
	}
	return models.ItineraryActivity{
		Time:        defaultClock,
		Title:       title,
		Description: clean,
		Type:        models.ActivityTypeActivity,
	}, true
}

// byParagraphs builds one day per blank-line separated paragraph
func (p *Parser) byParagraphs(in *parseInput) []models.ItineraryDay {
	var days []models.ItineraryDay
	for _, raw := range p.paragraphBreak.Split(in.text, -1) {
		paragraph := strings.TrimSpace(raw)
		if utf8.RuneCountInString(paragraph) <= paragraphMinLength {
			continue
		}

		number := len(days) + 1
		city := p.cities.resolve(paragraph)
		if city == models.CityUnknown {
			city = models.CityVariousLocations
		}
		title := models.Truncate(strings.TrimSpace(strings.SplitN(paragraph, "\n", 2)[0]), models.MaxTitleLength)
		if title == "" {
			title = fmt.Sprintf("Day %d Activities", number)
		}

		days = append(days, models.ItineraryDay{
			Day:  number,
			Date: dayDate(in.startDate, number),
			City: city,
			Activities: []models.ItineraryActivity{{
				Time:        defaultClock,
				Title:       title,
				Description: models.Prefix(paragraph, paragraphDescLength),
				Type:        models.ActivityTypeActivity,
			}},
		})
	}
	return days
}

// singleDay wraps the whole text into one day
func (p *Parser) singleDay(in *parseInput) []models.ItineraryDay {
	return []models.ItineraryDay{{
		Day:  1,
		Date: dayDate(in.startDate, 1),
		City: models.CityMultipleCities,
		Activities: []models.ItineraryActivity{{
			Time:        defaultClock,
			Title:       fallbackTitle,
			Description: models.Prefix(in.text, fallbackDescLength),
			Type:        models.ActivityTypeActivity,
		}},
	}}
}

func (p *Parser) summarize(days []models.ItineraryDay, in *parseInput) {
	report := in.report
	report.Days = len(days)
	tripDays, hasTrip := models.TripLengthDays(in.startDate, in.endDate)
	if hasTrip {
		report.TripDays = tripDays
	}
	for _, day := range days {
		report.Activities += len(day.Activities)
		if !day.HasResolvedCity() {
			report.UnresolvedCities++
		}
		if hasTrip && day.Day > tripDays {
			report.OutOfRangeDays++
		}
	}
}

// longestFirst orders phrases so longer alternatives are tried first
func longestFirst(words []string) []string {
	sorted := append([]string(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})
	return sorted
}
