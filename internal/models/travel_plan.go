package models

import (
	"fmt"
	"strings"
	"time"
)

// TravelPlanRequest is the payload submitted by the planning form
type TravelPlanRequest struct {
	StartDate     string    `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate       string    `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	DepartureCity string    `json:"departureCity" validate:"max=100"`
	Budget        []float64 `json:"budget" validate:"omitempty,max=1,dive,gte=0"`
	Interests     []string  `json:"interests" validate:"max=10,dive,max=30"`
	Pace          string    `json:"pace" validate:"omitempty,oneof=relaxed moderate active"`
	Language      string    `json:"language" validate:"omitempty,oneof=en de fr"`
}

// UserPreferences is the normalized form of a request handed to plan generation
type UserPreferences struct {
	DepartureCity      string   `json:"departure_city"`
	TravelDates        string   `json:"travel_dates"`
	StartDate          string   `json:"start_date,omitempty"`
	EndDate            string   `json:"end_date,omitempty"`
	Duration           string   `json:"duration"`
	DurationDays       int      `json:"duration_days,omitempty"`
	Budget             string   `json:"budget"`
	Interests          []string `json:"interests"`
	Pace               string   `json:"pace"`
	Language           string   `json:"language"`
	TravelCompanions   string   `json:"travel_companions"`
	RecommendedMarkets []string `json:"recommended_markets,omitempty"`
}

// TravelPlanText holds the free-text sections produced by the upstream generator
type TravelPlanText struct {
	MarketRecommendations string `json:"market_recommendations"`
	Itinerary             string `json:"itinerary"`
	Transport             string `json:"transport"`
	Accommodations        string `json:"accommodations"`
	CulturalInsights      string `json:"cultural_insights"`
}

// TravelPlan is the travel_plan object returned to the UI
type TravelPlan struct {
	TravelPlanText
	Summary string `json:"summary"`

	// Structured results of the itinerary parser
	PlanID    string         `json:"plan_id"`
	Days      []ItineraryDay `json:"days"`
	Markets   []string       `json:"markets"`
	ParseTier int            `json:"parse_tier"`
	Headline  string         `json:"headline"`
	Generated bool           `json:"generated"` // false when the fallback itinerary was used
	CreatedAt time.Time      `json:"created_at"`
}

// TravelPlanResponse is the body of POST /api/plan
type TravelPlanResponse struct {
	Success         bool            `json:"success"`
	TravelPlan      TravelPlan      `json:"travel_plan"`
	UserPreferences UserPreferences `json:"user_preferences"`
}

// Budget category constants
const (
	BudgetCategoryLow  = "Budget-friendly"
	BudgetCategoryMid  = "Mid-range"
	BudgetCategoryHigh = "Luxury"
)

// Pace constants
const (
	PaceRelaxed  = "relaxed"
	PaceModerate = "moderate"
	PaceActive   = "active"
	PaceIntense  = "intense"
)

// NotSpecified is used for preference fields the user left empty
const NotSpecified = "Not specified"

const defaultBudget = 1500

var interestMapping = map[string]string{
	"food":     "food",
	"crafts":   "culture",
	"music":    "culture",
	"shopping": "shopping",
	"history":  "culture",
	"photo":    "culture",
}

var paceMapping = map[string]string{
	PaceRelaxed:  PaceRelaxed,
	PaceModerate: PaceModerate,
	PaceActive:   PaceIntense,
}

// ToPreferences maps the form request onto generation preferences
func (r TravelPlanRequest) ToPreferences() UserPreferences {
	prefs := UserPreferences{
		DepartureCity:    strings.TrimSpace(r.DepartureCity),
		TravelDates:      NotSpecified,
		StartDate:        r.StartDate,
		EndDate:          r.EndDate,
		Duration:         NotSpecified,
		Budget:           BudgetCategory(r.BudgetValue()),
		Pace:             PaceModerate,
		Language:         r.Language,
		TravelCompanions: NotSpecified,
	}

	if prefs.DepartureCity == "" {
		prefs.DepartureCity = NotSpecified
	}
	if prefs.Language == "" {
		prefs.Language = "en"
	}
	if r.StartDate != "" && r.EndDate != "" {
		prefs.TravelDates = fmt.Sprintf("%s to %s", r.StartDate, r.EndDate)
		if days, ok := TripLengthDays(r.StartDate, r.EndDate); ok {
			prefs.DurationDays = days
			prefs.Duration = fmt.Sprintf("%d days", days)
		}
	}
	if pace, ok := paceMapping[r.Pace]; ok {
		prefs.Pace = pace
	}

	for _, interest := range r.Interests {
		if mapped, ok := interestMapping[interest]; ok {
			prefs.Interests = append(prefs.Interests, mapped)
		} else {
			prefs.Interests = append(prefs.Interests, interest)
		}
	}
	if len(prefs.Interests) == 0 {
		prefs.Interests = []string{"culture", "food"}
	}

	return prefs
}

// BudgetValue returns the slider value, defaulting when none was sent
func (r TravelPlanRequest) BudgetValue() float64 {
	if len(r.Budget) == 0 {
		return defaultBudget
	}
	return r.Budget[0]
}

// BudgetCategory maps a budget amount onto a category label
func BudgetCategory(amount float64) string {
	switch {
	case amount < 1000:
		return BudgetCategoryLow
	case amount < 2500:
		return BudgetCategoryMid
	default:
		return BudgetCategoryHigh
	}
}

// TripLengthDays returns the inclusive number of days between two ISO dates
func TripLengthDays(startDate, endDate string) (int, bool) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return 0, false
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return 0, false
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		return 0, false
	}
	return days, true
}

// BuildHeadline renders the itinerary page subtitle: dates, first markets and day count
func BuildHeadline(startDate, endDate string, markets []string, dayCount int) string {
	var parts []string

	start, startErr := time.Parse("2006-01-02", startDate)
	end, endErr := time.Parse("2006-01-02", endDate)
	if startErr == nil && endErr == nil {
		parts = append(parts, fmt.Sprintf("%s - %s", start.Format("Jan 2"), end.Format("Jan 2, 2006")))
	} else {
		parts = append(parts, "Your Trip")
	}

	if len(markets) > 0 {
		shown := markets
		if len(shown) > 2 {
			shown = shown[:2]
		}
		label := strings.Join(shown, " & ")
		if len(markets) > 2 {
			label += "..."
		}
		parts = append(parts, label)
	}

	if dayCount > 0 {
		parts = append(parts, fmt.Sprintf("%d Days", dayCount))
	}

	return strings.Join(parts, " • ")
}
