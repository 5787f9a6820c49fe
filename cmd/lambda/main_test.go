package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"christmas-market-planner/internal/api"
	"christmas-market-planner/internal/models"
	"christmas-market-planner/internal/services"
)

func newOfflineHandler() *api.Handler {
	planner := services.NewTravelPlanner(nil, nil, nil).WithMetrics(services.NewParseMetrics())
	return api.NewHandler(planner, nil)
}

func TestRoute(t *testing.T) {
	h := newOfflineHandler()

	testCases := []struct {
		name       string
		method     string
		path       string
		body       string
		query      map[string]string
		wantStatus int
	}{
		{"preflight", "OPTIONS", "/api/plan", "", nil, 200},
		{"health", "GET", "/api/health", "", nil, 200},
		{"health trailing slash", "GET", "/api/health/", "", nil, 200},
		{"markets", "GET", "/api/markets", "", nil, 200},
		{"metrics", "GET", "/api/metrics", "", nil, 200},
		{"plan without body", "POST", "/api/plan", "", nil, 400},
		{"parse", "POST", "/api/parse", `{"itinerary": "Day 1: Vienna\n10:00 Visit the Rathausplatz market"}`, nil, 200},
		{"favorites disabled", "GET", "/api/favorites", "", map[string]string{"user_id": "u1"}, 503},
		{"delete favorites disabled", "DELETE", "/api/favorites/plan_a", "", map[string]string{"user_id": "u1"}, 503},
		{"unknown path", "GET", "/api/sources/pending", "", nil, 404},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := route(context.Background(), h, events.APIGatewayProxyRequest{
				HTTPMethod:            tc.method,
				Path:                  tc.path,
				Body:                  tc.body,
				QueryStringParameters: tc.query,
			})

			if resp.StatusCode != tc.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tc.wantStatus, resp.StatusCode, resp.Body)
			}
			if resp.Headers["Access-Control-Allow-Origin"] != "*" {
				t.Error("Expected CORS headers on every response")
			}
		})
	}
}

func TestRoute_PlanUsesFallbackWithoutGenerator(t *testing.T) {
	resp := route(context.Background(), newOfflineHandler(), events.APIGatewayProxyRequest{
		HTTPMethod: "POST",
		Path:       "/api/plan",
		Body:       `{"startDate": "2024-12-15", "endDate": "2024-12-17", "budget": [800], "interests": ["food"]}`,
	})
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}

	var plan models.TravelPlanResponse
	if err := json.Unmarshal([]byte(resp.Body), &plan); err != nil {
		t.Fatalf("Failed to decode plan: %v", err)
	}

	if !plan.Success || plan.TravelPlan.Generated {
		t.Errorf("Expected a successful fallback plan, got success=%v generated=%v", plan.Success, plan.TravelPlan.Generated)
	}
	if len(plan.TravelPlan.Days) != 3 {
		t.Errorf("Expected 3 fallback days, got %d", len(plan.TravelPlan.Days))
	}
	for _, day := range plan.TravelPlan.Days {
		if !day.HasResolvedCity() {
			t.Errorf("Day %d has no city: %q", day.Day, day.City)
		}
	}
	if plan.UserPreferences.Budget != models.BudgetCategoryLow {
		t.Errorf("Expected budget %q, got %q", models.BudgetCategoryLow, plan.UserPreferences.Budget)
	}
}

func TestRoute_Export(t *testing.T) {
	resp := route(context.Background(), newOfflineHandler(), events.APIGatewayProxyRequest{
		HTTPMethod: "POST",
		Path:       "/api/itineraries/export",
		Body: `{"start_date": "2024-12-15", "days": [{"day": 1, "city": "Vienna",
			"activities": [{"time": "10:00", "title": "Rathausplatz market", "type": "market"}]}]}`,
	})
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}
	if !strings.HasPrefix(resp.Headers["Content-Type"], "text/calendar") {
		t.Errorf("Expected calendar content type, got %q", resp.Headers["Content-Type"])
	}
	if !strings.Contains(resp.Body, "BEGIN:VEVENT") {
		t.Errorf("Expected an event in the calendar:\n%s", resp.Body)
	}
}

func TestExtractPlanIDFromPath(t *testing.T) {
	testCases := []struct {
		path     string
		expected string
	}{
		{"/api/favorites/plan_abc", "plan_abc"},
		{"/api/favorites/", ""},
		{"/api/favorites/plan_abc/extra", ""},
	}

	for _, tc := range testCases {
		if got := extractPlanIDFromPath(tc.path); got != tc.expected {
			t.Errorf("extractPlanIDFromPath(%q) = %q, want %q", tc.path, got, tc.expected)
		}
	}
}
