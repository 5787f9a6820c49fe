package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Ellipsis marks truncated text
const Ellipsis = "..."

// GeneratePlanID creates a new random plan identifier
func GeneratePlanID() string {
	return "plan_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// GenerateActivityID creates a stable ID for an activity based on its core attributes
func GenerateActivityID(planID string, day int, activity ItineraryActivity) string {
	// Normalize inputs
	normalizedTitle := strings.ToLower(strings.TrimSpace(activity.Title))
	normalizedTime := strings.TrimSpace(activity.Time)

	input := fmt.Sprintf("%s|%d|%s|%s", planID, day, normalizedTime, normalizedTitle)
	hash := sha256.Sum256([]byte(input))

	return "act_" + hex.EncodeToString(hash[:])[:8]
}

// Truncate shortens s to at most max runes, replacing the tail with an ellipsis
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= len(Ellipsis) {
		return string(runes[:max])
	}
	return string(runes[:max-len(Ellipsis)]) + Ellipsis
}

// Prefix returns the first n runes of s without any marker
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ValidateActivityType checks if the activity type is valid
func ValidateActivityType(activityType string) bool {
	validTypes := []string{
		ActivityTypeMarket,
		ActivityTypeTransport,
		ActivityTypeFood,
		ActivityTypeActivity,
	}

	for _, validType := range validTypes {
		if activityType == validType {
			return true
		}
	}
	return false
}

// IsValidClockTime checks for a zero-padded 24-hour HH:MM string
func IsValidClockTime(value string) bool {
	if len(value) != 5 || value[2] != ':' {
		return false
	}
	_, err := time.Parse("15:04", value)
	return err == nil
}

// ValidateItineraryDays checks the structural invariants of a parsed itinerary
func ValidateItineraryDays(days []ItineraryDay) []string {
	var issues []string

	if len(days) == 0 {
		return []string{"itinerary has no days"}
	}

	lastDay := 0
	seen := make(map[int]bool)
	for i, day := range days {
		prefix := fmt.Sprintf("Day %d (index %d):", day.Day, i)

		if day.Day < 1 {
			issues = append(issues, prefix+" day number must be positive")
		}
		if seen[day.Day] {
			issues = append(issues, prefix+" duplicate day number")
		}
		if day.Day <= lastDay {
			issues = append(issues, prefix+" day numbers must increase")
		}
		seen[day.Day] = true
		lastDay = day.Day

		if day.City == "" {
			issues = append(issues, prefix+" missing city")
		}
		if len(day.Activities) == 0 {
			issues = append(issues, prefix+" has no activities")
		}
		if utf8.RuneCountInString(day.Accommodation) > MaxAccommodationLength {
			issues = append(issues, prefix+" accommodation too long")
		}
		if utf8.RuneCountInString(day.Tip) > MaxTipLength {
			issues = append(issues, prefix+" tip too long")
		}

		for j, activity := range day.Activities {
			activityPrefix := fmt.Sprintf("%s activity %d:", prefix, j+1)
			if !IsValidClockTime(activity.Time) {
				issues = append(issues, activityPrefix+" invalid time: "+activity.Time)
			}
			if activity.Title == "" {
				issues = append(issues, activityPrefix+" missing title")
			} else if utf8.RuneCountInString(activity.Title) > MaxTitleLength {
				issues = append(issues, activityPrefix+" title too long")
			}
			if !ValidateActivityType(activity.Type) {
				issues = append(issues, activityPrefix+" invalid type: "+activity.Type)
			}
		}
	}

	return issues
}

// GetActivityTypeDisplayName returns a human-readable name for an activity type
func GetActivityTypeDisplayName(activityType string) string {
	displayNames := map[string]string{
		ActivityTypeMarket:    "Christmas Market",
		ActivityTypeTransport: "Transport",
		ActivityTypeFood:      "Food & Drink",
		ActivityTypeActivity:  "Activity",
	}

	if displayName, exists := displayNames[activityType]; exists {
		return displayName
	}

	return activityType
}
