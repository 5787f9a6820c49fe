package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"christmas-market-planner/internal/models"
)

// clockMatch is a time cue found in a line and the byte range it occupied
type clockMatch struct {
	clock      string
	start, end int
}

// timeStrategy looks for one kind of time cue in a line
type timeStrategy func(line string) (clockMatch, bool)

var (
	numericClockPattern = regexp.MustCompile(`(?i)(\d{1,2})[:.](\d{2})(?:\s*(am|pm)\b)?`)
	hourPeriodPattern   = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(am|pm)\b`)
	dayPartPattern      = regexp.MustCompile(`(?i)\b(morning|afternoon|evening|night|midday)\b`)
)

var dayPartClocks = map[string]string{
	"morning":   "09:00",
	"afternoon": "14:00",
	"evening":   "18:00",
	"night":     "20:00",
	"midday":    "12:00",
}

// positionalClocks are handed out to untimed lines in order
var positionalClocks = []string{"09:00", "12:00", "15:00", "18:00"}

func defaultTimeStrategies() []timeStrategy {
	return []timeStrategy{numericClock, hourWithPeriod, dayPart}
}

// numericClock reads "9:00", "14.30" and "7:15 pm"
func numericClock(line string) (clockMatch, bool) {
	for _, loc := range numericClockPattern.FindAllStringSubmatchIndex(line, -1) {
		hour, _ := strconv.Atoi(line[loc[2]:loc[3]])
		minute, _ := strconv.Atoi(line[loc[4]:loc[5]])
		period := ""
		if loc[6] >= 0 {
			period = line[loc[6]:loc[7]]
		}
		if clock, ok := toClock(hour, minute, period); ok {
			return clockMatch{clock: clock, start: loc[0], end: loc[1]}, true
		}
	}
	return clockMatch{}, false
}

// hourWithPeriod reads "9am" and "7 PM"
func hourWithPeriod(line string) (clockMatch, bool) {
	for _, loc := range hourPeriodPattern.FindAllStringSubmatchIndex(line, -1) {
		hour, _ := strconv.Atoi(line[loc[2]:loc[3]])
		if hour > 12 {
			continue
		}
		if clock, ok := toClock(hour, 0, line[loc[4]:loc[5]]); ok {
			return clockMatch{clock: clock, start: loc[0], end: loc[1]}, true
		}
	}
	return clockMatch{}, false
}

// dayPart maps "morning", "evening" and friends onto a fixed clock
func dayPart(line string) (clockMatch, bool) {
	loc := dayPartPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return clockMatch{}, false
	}
	word := strings.ToLower(line[loc[2]:loc[3]])
	return clockMatch{clock: dayPartClocks[word], start: loc[0], end: loc[1]}, true
}

func toClock(hour, minute int, period string) (string, bool) {
	switch strings.ToLower(period) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

// positionalClock is the default time of the index-th untimed line of a day
func positionalClock(index int) string {
	if index < len(positionalClocks) {
		return positionalClocks[index]
	}
	hour := 9 + 2*index
	if hour > 23 {
		hour = 23
	}
	return fmt.Sprintf("%02d:00", hour)
}

// extractTime runs the time strategies in order and strips the matched cue
func (p *Parser) extractTime(line string) (string, string, bool) {
	for _, strategy := range p.times {
		if match, ok := strategy(line); ok {
			rest := line[:match.start] + " " + line[match.end:]
			return match.clock, strings.TrimSpace(rest), true
		}
	}
	return "", line, false
}

// cleanActivityText removes header remnants, list marks and a leading verb
func (p *Parser) cleanActivityText(text string) string {
	text = p.dayRemnant.ReplaceAllString(strings.TrimSpace(text), "")
	text = p.leadingMarks.ReplaceAllString(text, "")
	text = p.leadingVerb.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// buildActivity turns the time-stripped text of a line into an activity.
// It reports false for lines too short or too header-like to be an activity.
func (p *Parser) buildActivity(clock, text string) (models.ItineraryActivity, bool) {
	cleaned := p.cleanActivityText(text)
	if utf8.RuneCountInString(cleaned) < 5 {
		return models.ItineraryActivity{}, false
	}

	title := extractTitle(cleaned)
	if rejectTitle(title) {
		return models.ItineraryActivity{}, false
	}

	return models.ItineraryActivity{
		Time:        clock,
		Title:       title,
		Description: extractDescription(cleaned, title),
		Type:        p.classify(cleaned),
	}, true
}

// extractTitle takes the first sentence, capitalized and truncated
func extractTitle(text string) string {
	title := text
	if i := strings.IndexAny(text, ".!?"); i >= 0 {
		if first := strings.TrimSpace(text[:i]); first != "" {
			title = first
		}
	}
	title = capitalize(strings.Join(strings.Fields(title), " "))
	if title == "" {
		return models.DefaultActivityTitle
	}
	return models.Truncate(title, models.MaxTitleLength)
}

// rejectTitle drops residual day headers and fragments
func rejectTitle(title string) bool {
	return utf8.RuneCountInString(title) <= 3 || strings.HasPrefix(strings.ToLower(title), "day ")
}

// extractDescription is the text that follows the title, or the whole text
// when the title does not lead it
func extractDescription(text, title string) string {
	desc, stripped := trimPrefixFold(text, title)
	if !stripped {
		if i := strings.IndexAny(desc, ".!?"); i >= 0 && i < len(desc)-1 {
			if strings.EqualFold(strings.TrimSpace(desc[:i]), title) {
				desc = desc[i+1:]
			}
		}
	}
	return strings.TrimSpace(strings.TrimLeft(desc, ".!?:- \t"))
}

// classify assigns the activity type; market beats transport beats food
func (p *Parser) classify(text string) string {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, p.vocab.MarketKeywords):
		return models.ActivityTypeMarket
	case containsAny(lower, p.vocab.TransportKeywords):
		return models.ActivityTypeTransport
	case containsAny(lower, p.vocab.FoodKeywords):
		return models.ActivityTypeFood
	}
	return models.ActivityTypeActivity
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// trimPrefixFold removes prefix from s, ignoring case
func trimPrefixFold(s, prefix string) (string, bool) {
	n := utf8.RuneCountInString(prefix)
	if n == 0 {
		return s, false
	}
	runes := []rune(s)
	if len(runes) < n || !strings.EqualFold(string(runes[:n]), prefix) {
		return s, false
	}
	return string(runes[n:]), true
}
