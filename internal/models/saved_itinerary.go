package models

import (
	"fmt"
	"strings"
	"time"
)

// Key prefixes for the saved-itineraries table
const (
	UserKeyPrefix = "USER#"
	PlanKeyPrefix = "PLAN#"
)

// SavedItinerary is a favorited plan stored per user
type SavedItinerary struct {
	// Primary Keys
	PK string `json:"PK" dynamodbav:"PK"` // USER#{user_id}
	SK string `json:"SK" dynamodbav:"SK"` // PLAN#{plan_id}

	UserID    string         `json:"user_id" dynamodbav:"user_id"`
	PlanID    string         `json:"plan_id" dynamodbav:"plan_id"`
	Title     string         `json:"title" dynamodbav:"title"`
	StartDate string         `json:"start_date" dynamodbav:"start_date"`
	EndDate   string         `json:"end_date" dynamodbav:"end_date"`
	Markets   []string       `json:"markets" dynamodbav:"markets"`
	Days      []ItineraryDay `json:"days" dynamodbav:"days"`
	Notes     string         `json:"notes,omitempty" dynamodbav:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// CreateUserPK builds the partition key for a user's saved itineraries
func CreateUserPK(userID string) string {
	return UserKeyPrefix + userID
}

// CreatePlanSK builds the sort key for a saved plan
func CreatePlanSK(planID string) string {
	return PlanKeyPrefix + planID
}

// PopulateKeys fills PK and SK from the user and plan IDs
func (s *SavedItinerary) PopulateKeys() {
	s.PK = CreateUserPK(s.UserID)
	s.SK = CreatePlanSK(s.PlanID)
}

// Validate validates the saved itinerary
func (s *SavedItinerary) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return fmt.Errorf("user_id is required")
	}
	if strings.TrimSpace(s.PlanID) == "" {
		return fmt.Errorf("plan_id is required")
	}
	if strings.Contains(s.UserID, "#") || strings.Contains(s.PlanID, "#") {
		return fmt.Errorf("ids must not contain '#'")
	}
	if len(s.Days) == 0 {
		return fmt.Errorf("itinerary must contain at least one day")
	}
	if issues := ValidateItineraryDays(s.Days); len(issues) > 0 {
		return fmt.Errorf("invalid itinerary: %s", issues[0])
	}
	return nil
}

// DefaultTitle names a saved plan after its markets when the user gave no title
func (s *SavedItinerary) DefaultTitle() string {
	if len(s.Markets) == 0 {
		return fmt.Sprintf("%d-day Christmas market trip", len(s.Days))
	}
	return strings.Join(s.Markets, ", ") + " Christmas markets"
}
