package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"christmas-market-planner/internal/models"
	"christmas-market-planner/internal/parser"
)

type fakeGenerator struct {
	text  *models.TravelPlanText
	err   error
	calls int
	prefs models.UserPreferences
}

func (f *fakeGenerator) GeneratePlanText(ctx context.Context, prefs models.UserPreferences) (*models.TravelPlanText, error) {
	f.calls++
	f.prefs = prefs
	return f.text, f.err
}

type fakeArchiver struct {
	docs []models.ItineraryDocument
	err  error
}

func (f *fakeArchiver) TriggerArchive(ctx context.Context, doc models.ItineraryDocument) error {
	f.docs = append(f.docs, doc)
	return f.err
}

func newTestPlanner(generator PlanGenerator, archiver ItineraryArchiver) (*TravelPlanner, *ParseMetrics) {
	metrics := NewParseMetrics()
	return NewTravelPlanner(generator, parser.New(nil), archiver).WithMetrics(metrics), metrics
}

func TestCreatePlan(t *testing.T) {
	generator := &fakeGenerator{
		text: &models.TravelPlanText{
			MarketRecommendations: "**Vienna**: the Rathausplatz market. **Prague**: Old Town Square.",
			Itinerary:             "**Day 1: Vienna**\n10:00 Visit the Christkindlmarkt at Rathausplatz\n\nDay 2\n14:00 Walk through the old town squares",
			Transport:             "Take the train.",
		},
	}
	archiver := &fakeArchiver{}
	planner, metrics := newTestPlanner(generator, archiver)

	req := models.TravelPlanRequest{
		StartDate:     "2024-12-15",
		EndDate:       "2024-12-16",
		DepartureCity: "London",
		Budget:        []float64{800},
		Pace:          "active",
	}

	resp, err := planner.CreatePlan(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if generator.calls != 1 {
		t.Errorf("Expected 1 generator call, got %d", generator.calls)
	}
	if generator.prefs.Pace != models.PaceIntense {
		t.Errorf("Expected pace %s passed to the generator, got %s", models.PaceIntense, generator.prefs.Pace)
	}

	plan := resp.TravelPlan
	if !resp.Success || !plan.Generated {
		t.Errorf("Expected a successful generated plan, got success=%v generated=%v", resp.Success, plan.Generated)
	}
	if plan.ParseTier != parser.TierDayMarkers {
		t.Errorf("Expected tier %d, got %d", parser.TierDayMarkers, plan.ParseTier)
	}
	if len(plan.Days) != 2 {
		t.Fatalf("Expected 2 days, got %d", len(plan.Days))
	}
	if plan.Days[0].City != "Vienna" {
		t.Errorf("Expected day 1 in Vienna, got %s", plan.Days[0].City)
	}
	if plan.Days[1].City != "Prague" {
		t.Errorf("Expected day 2 backfilled with Prague, got %s", plan.Days[1].City)
	}
	if plan.Days[1].Date != "December 16, 2024" {
		t.Errorf("Expected day 2 dated December 16, 2024, got %s", plan.Days[1].Date)
	}
	if strings.Join(plan.Markets, ",") != "Vienna,Prague" {
		t.Errorf("Expected markets Vienna,Prague, got %v", plan.Markets)
	}
	if strings.Join(resp.UserPreferences.RecommendedMarkets, ",") != "Vienna,Prague" {
		t.Errorf("Expected recommended markets in preferences, got %v", resp.UserPreferences.RecommendedMarkets)
	}
	if !strings.HasPrefix(plan.PlanID, "plan_") {
		t.Errorf("Expected a plan ID, got %q", plan.PlanID)
	}
	if plan.Headline != "Dec 15 - Dec 16, 2024 • Vienna & Prague • 2 Days" {
		t.Errorf("Unexpected headline %q", plan.Headline)
	}
	if !strings.Contains(plan.Summary, "- Budget: Budget-friendly") || !strings.Contains(plan.Summary, "- Departure: London") {
		t.Errorf("Unexpected summary %q", plan.Summary)
	}
	if plan.Transport != "Take the train." {
		t.Errorf("Expected generated sections to be kept, got transport %q", plan.Transport)
	}

	if len(archiver.docs) != 1 {
		t.Fatalf("Expected 1 archive trigger, got %d", len(archiver.docs))
	}
	doc := archiver.docs[0]
	if doc.PlanID != plan.PlanID || len(doc.Days) != 2 || doc.Version != DocumentVersion {
		t.Errorf("Unexpected archived document %+v", doc)
	}

	if metrics.TotalParses != 1 || metrics.BackfilledCities != 1 || metrics.TotalGenerations != 1 {
		t.Errorf("Unexpected metrics: parses=%d backfilled=%d generations=%d",
			metrics.TotalParses, metrics.BackfilledCities, metrics.TotalGenerations)
	}
}

func TestCreatePlanFallback(t *testing.T) {
	testCases := []struct {
		name      string
		generator PlanGenerator
	}{
		{"generator error", &fakeGenerator{err: errors.New("rate limited")}},
		{"no generator", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			archiver := &fakeArchiver{err: errors.New("lambda unavailable")}
			planner, metrics := newTestPlanner(tc.generator, archiver)

			resp, err := planner.CreatePlan(context.Background(), models.TravelPlanRequest{})
			if err != nil {
				t.Fatalf("Archive and generation failures should not fail the plan: %v", err)
			}

			plan := resp.TravelPlan
			if plan.Generated {
				t.Error("Expected Generated=false for the fallback itinerary")
			}
			if len(plan.Days) != 3 {
				t.Fatalf("Expected 3 fallback days, got %d", len(plan.Days))
			}
			for i, want := range models.DefaultRecommendedMarkets {
				if plan.Days[i].City != want {
					t.Errorf("Expected day %d in %s, got %s", i+1, want, plan.Days[i].City)
				}
				if len(plan.Days[i].Activities) != 3 {
					t.Errorf("Expected 3 activities on day %d, got %d", i+1, len(plan.Days[i].Activities))
				}
				if plan.Days[i].Accommodation != "" {
					t.Errorf("Expected no accommodation on day %d, got %q", i+1, plan.Days[i].Accommodation)
				}
			}
			if plan.Days[0].Activities[0].Type != models.ActivityTypeMarket {
				t.Errorf("Expected the first fallback activity to be a market visit, got %s", plan.Days[0].Activities[0].Type)
			}
			if !strings.Contains(plan.Summary, "- Duration: Not specified") {
				t.Errorf("Expected unspecified duration in summary, got %q", plan.Summary)
			}
			if metrics.BackfilledCities != 0 {
				t.Errorf("Expected no backfilled cities, got %d", metrics.BackfilledCities)
			}
		})
	}
}

func TestParseText(t *testing.T) {
	planner, metrics := newTestPlanner(nil, nil)

	plan := planner.ParseText("Strasbourg old town and the Christkindelsmärik.\n\nColmar canals by lantern light.", "", "", "")

	if plan.ParseTier != parser.TierParagraphs {
		t.Errorf("Expected tier %d, got %d", parser.TierParagraphs, plan.ParseTier)
	}
	if len(plan.Days) != 2 {
		t.Fatalf("Expected 2 days, got %d", len(plan.Days))
	}
	if plan.Days[0].City != "Strasbourg" || plan.Days[1].City != "Colmar" {
		t.Errorf("Expected Strasbourg then Colmar, got %s, %s", plan.Days[0].City, plan.Days[1].City)
	}
	if strings.Join(plan.Markets, ",") != strings.Join(models.DefaultRecommendedMarkets, ",") {
		t.Errorf("Expected default markets without recommendations, got %v", plan.Markets)
	}
	if plan.Headline != "Your Trip • Nuremberg & Munich... • 2 Days" {
		t.Errorf("Unexpected headline %q", plan.Headline)
	}
	if metrics.TotalParses != 1 || metrics.ParsesByTier[parser.TierParagraphs] != 1 {
		t.Errorf("Expected one tier-2 parse recorded, got %+v", metrics.ParsesByTier)
	}
	if metrics.ActivitiesByType[models.ActivityTypeActivity] != 2 {
		t.Errorf("Expected 2 generic activities recorded, got %+v", metrics.ActivitiesByType)
	}
}

func TestBackfillCities(t *testing.T) {
	days := []models.ItineraryDay{
		{Day: 1, City: models.CityVariousLocations},
		{Day: 2, City: "Munich"},
		{Day: 3, City: models.CityUnknown},
		{Day: 4, City: models.CityVariousLocations},
	}

	changed := BackfillCities(days, []string{"Vienna", "Salzburg"})
	if changed != 3 {
		t.Errorf("Expected 3 days changed, got %d", changed)
	}

	expected := []string{"Vienna", "Munich", "Salzburg", "Salzburg"}
	for i, want := range expected {
		if days[i].City != want {
			t.Errorf("Day %d: expected %s, got %s", i+1, want, days[i].City)
		}
	}

	if BackfillCities(days, nil) != 0 {
		t.Error("Expected no changes without markets")
	}
}

func TestBuildSummary(t *testing.T) {
	prefs := models.UserPreferences{Duration: "5 days", Budget: models.BudgetCategoryMid}

	summary := BuildSummary([]string{"Vienna", "Prague"}, prefs)
	expected := "Travel Plan Summary:\n- Recommended Markets: Vienna, Prague\n- Duration: 5 days\n- Budget: Mid-range\n- Departure: Not specified"
	if summary != expected {
		t.Errorf("Expected summary:\n%s\ngot:\n%s", expected, summary)
	}

	if !strings.Contains(BuildSummary(nil, prefs), "- Recommended Markets: Not specified") {
		t.Error("Expected unspecified markets when none are given")
	}
}

func TestFallbackItinerary(t *testing.T) {
	text := FallbackItinerary([]string{"Basel", "Zurich", "Lucerne", "Bruges"})

	if strings.Count(text, "Day ") != 3 {
		t.Errorf("Expected 3 days, got:\n%s", text)
	}
	if strings.Contains(text, "Bruges") {
		t.Error("Expected at most 3 markets in the fallback itinerary")
	}
	if !strings.HasPrefix(text, "Day 1: Basel\n09:00 Explore the main Christmas market") {
		t.Errorf("Unexpected fallback start: %q", text[:40])
	}
	if len(strings.Split(text, "\n\n")) != 3 {
		t.Error("Expected days separated by blank lines")
	}
}
