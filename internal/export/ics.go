// Package export renders structured itineraries for calendars and files.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"christmas-market-planner/internal/models"
)

// DefaultActivityDuration is the event length used when none is configured
const DefaultActivityDuration = 90 * time.Minute

const productID = "-//Christmas Market Planner//Itinerary//EN"

// Options controls calendar rendering
type Options struct {
	PlanID       string         // used to derive stable event UIDs
	CalendarName string         // X-WR-CALNAME, optional
	Location     *time.Location // zone of the activity times, UTC when nil
	Duration     time.Duration  // per activity, DefaultActivityDuration when zero
}

// ToICS renders one VEVENT per activity, dated startDate plus day-1.
// startDate must be YYYY-MM-DD and every activity time HH:MM.
func ToICS(days []models.ItineraryDay, startDate string, opts Options) (string, error) {
	start, err := time.Parse("2006-01-02", strings.TrimSpace(startDate))
	if err != nil {
		return "", fmt.Errorf("invalid start date %q: %w", startDate, err)
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	duration := opts.Duration
	if duration <= 0 {
		duration = DefaultActivityDuration
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.CalendarName != "" {
		cal.SetXWRCalName(opts.CalendarName)
	}

	stamp := time.Now().UTC()
	seen := make(map[string]int)

	for _, day := range days {
		if day.Day < 1 {
			return "", fmt.Errorf("invalid day number %d", day.Day)
		}
		date := start.AddDate(0, 0, day.Day-1)

		for _, activity := range day.Activities {
			begin, err := activityStart(date, activity.Time, loc)
			if err != nil {
				return "", fmt.Errorf("day %d: %w", day.Day, err)
			}

			uid := models.GenerateActivityID(opts.PlanID, day.Day, activity)
			seen[uid]++
			if n := seen[uid]; n > 1 {
				uid = fmt.Sprintf("%s-%d", uid, n)
			}

			event := cal.AddEvent(uid + "@christmas-market-planner")
			event.SetDtStampTime(stamp)
			event.SetStartAt(begin)
			event.SetEndAt(begin.Add(duration))
			event.SetSummary(activity.Title)
			if activity.Description != "" {
				event.SetDescription(activity.Description)
			}
			if day.HasResolvedCity() {
				event.SetLocation(day.City)
			}
			event.SetProperty(ical.ComponentPropertyCategories, models.GetActivityTypeDisplayName(activity.Type))
		}
	}

	return cal.Serialize(), nil
}

func activityStart(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	if !models.IsValidClockTime(clock) {
		return time.Time{}, fmt.Errorf("invalid activity time %q", clock)
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid activity time %q: %w", clock, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// ToJSON renders days as indented JSON
func ToJSON(days []models.ItineraryDay) ([]byte, error) {
	if days == nil {
		days = []models.ItineraryDay{}
	}
	data, err := json.MarshalIndent(days, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal itinerary: %w", err)
	}
	return data, nil
}
