package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"christmas-market-planner/internal/models"
)

var (
	accommodationPattern = regexp.MustCompile(`(?i)\b(?:accommodations?|hotels?|stays?|lodging|sleep)\b(?:[ \t]*[:\-])?[ \t]*([\p{L}\p{N}"'(][^\n]*)`)
	tipPattern           = regexp.MustCompile(`(?i)\b(?:pro tips?|tips?|advice|recommendations?|insider)\b(?:[ \t]*[:\-])?[ \t]*([\p{L}\p{N}"'(][^\n]*)`)
)

// DisplayDateLayout is the long date format of ItineraryDay.Date
const DisplayDateLayout = "January 2, 2006"

var startDateLayouts = []string{"2006-01-02", time.RFC3339}

// extractAccommodation returns the rest of the line after the first lodging keyword
func extractAccommodation(text string) string {
	return lineAfter(accommodationPattern, text, models.MaxAccommodationLength)
}

// extractTip returns the rest of the line after the first advice keyword
func extractTip(text string) string {
	return lineAfter(tipPattern, text, models.MaxTipLength)
}

func lineAfter(pattern *regexp.Regexp, text string, max int) string {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return models.Truncate(strings.TrimSpace(match[1]), max)
}

// dayDate is startDate shifted by day-1, or "Day N" when startDate is unusable
func dayDate(startDate string, day int) string {
	start, ok := parseStartDate(startDate)
	if !ok {
		return fmt.Sprintf("Day %d", day)
	}
	return start.AddDate(0, 0, day-1).Format(DisplayDateLayout)
}

func parseStartDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range startDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
