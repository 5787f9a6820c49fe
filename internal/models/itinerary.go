package models

import "time"

// ItineraryDay is one day of a structured travel plan
type ItineraryDay struct {
	Day        int                 `json:"day"`  // 1-based, in order of recognition
	Date       string              `json:"date"` // "December 15, 2024" or "Day N"
	City       string              `json:"city"`
	Activities []ItineraryActivity `json:"activities"`

	// Optional fields; empty means the text did not mention them
	Accommodation string `json:"accommodation,omitempty"`
	Tip           string `json:"tip,omitempty"`
}

// ItineraryActivity is a single timed action within a day
type ItineraryActivity struct {
	Time        string `json:"time"`  // HH:MM format (24-hour)
	Title       string `json:"title"` // at most MaxTitleLength runes
	Description string `json:"description"`
	Type        string `json:"type"` // market|transport|food|activity
}

// ItineraryDocument is the archived form of a parsed plan
type ItineraryDocument struct {
	PlanID     string         `json:"plan_id"`
	StartDate  string         `json:"start_date"`
	EndDate    string         `json:"end_date"`
	Markets    []string       `json:"markets"`
	Days       []ItineraryDay `json:"days"`
	ParseTier  int            `json:"parse_tier"`
	Summary    string         `json:"summary,omitempty"`
	ArchivedAt time.Time      `json:"archived_at"`
	Version    string         `json:"version"`
}

// Activity type constants
const (
	ActivityTypeMarket    = "market"
	ActivityTypeTransport = "transport"
	ActivityTypeFood      = "food"
	ActivityTypeActivity  = "activity"
)

// City sentinels used when no destination could be resolved
const (
	CityUnknown          = "Unknown City"
	CityVariousLocations = "Various Locations"
	CityMultipleCities   = "Multiple Cities"
)

// Field limits, in runes
const (
	MaxTitleLength         = 60
	MaxAccommodationLength = 100
	MaxTipLength           = 200
)

// DefaultActivityTitle is used when a line yields no usable title
const DefaultActivityTitle = "Activity"

// HasResolvedCity reports whether the day's city names a real destination
func (d ItineraryDay) HasResolvedCity() bool {
	switch d.City {
	case "", CityUnknown, CityVariousLocations:
		return false
	}
	return true
}

// CountActivitiesByType tallies activities per type across all days
func CountActivitiesByType(days []ItineraryDay) map[string]int {
	counts := make(map[string]int)
	for _, day := range days {
		for _, activity := range day.Activities {
			counts[activity.Type]++
		}
	}
	return counts
}
