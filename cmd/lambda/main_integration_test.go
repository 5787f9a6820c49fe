//go:build integration

package main

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"christmas-market-planner/internal/api"
	"christmas-market-planner/internal/models"
	"christmas-market-planner/internal/services"
)

// These are integration tests that make real API calls
// Run with: go test -tags=integration ./cmd/lambda -v -timeout=300s

func TestIntegration_GeneratedPlan(t *testing.T) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		t.Skip("OPENAI_API_KEY not set, skipping integration test")
	}

	planner, err := services.NewTravelPlannerFromEnv(nil)
	if err != nil {
		t.Fatalf("Failed to build planner: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	resp := route(ctx, api.NewHandler(planner, nil), events.APIGatewayProxyRequest{
		HTTPMethod: "POST",
		Path:       "/api/plan",
		Body:       `{"startDate": "2024-12-15", "endDate": "2024-12-18", "budget": [2000], "interests": ["food", "crafts"], "pace": "moderate"}`,
	})
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}

	var plan models.TravelPlanResponse
	if err := json.Unmarshal([]byte(resp.Body), &plan); err != nil {
		t.Fatalf("Failed to decode plan: %v", err)
	}

	t.Logf("Plan %s: tier %d, %d days, markets %v, generated=%v",
		plan.TravelPlan.PlanID, plan.TravelPlan.ParseTier, len(plan.TravelPlan.Days),
		plan.TravelPlan.Markets, plan.TravelPlan.Generated)

	if !plan.TravelPlan.Generated {
		t.Error("Expected the plan to come from the model")
	}
	if len(plan.TravelPlan.Days) == 0 {
		t.Fatal("Expected at least one day")
	}
	if issues := models.ValidateItineraryDays(plan.TravelPlan.Days); len(issues) > 0 {
		t.Errorf("Generated itinerary failed validation: %v", issues)
	}
}
