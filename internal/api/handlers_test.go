package api

import (
	"context"
	"errors"
	"strings"
	"testing"

	"christmas-market-planner/internal/models"
	"christmas-market-planner/internal/services"
)

type fakePlanner struct {
	lastRequest models.TravelPlanRequest
	lastText    string
	err         error
}

func (f *fakePlanner) CreatePlan(ctx context.Context, req models.TravelPlanRequest) (*models.TravelPlanResponse, error) {
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.TravelPlanResponse{
		Success:         true,
		TravelPlan:      models.TravelPlan{PlanID: "plan_test", Markets: []string{"Vienna"}},
		UserPreferences: req.ToPreferences(),
	}, nil
}

func (f *fakePlanner) ParseText(itineraryText, startDate, endDate, recommendations string) *models.TravelPlan {
	f.lastText = itineraryText
	return &models.TravelPlan{
		Days: []models.ItineraryDay{{Day: 1, City: "Vienna", Activities: []models.ItineraryActivity{{Time: "09:00", Title: "Market", Type: "market"}}}},
	}
}

type fakeFavorites struct {
	saved     map[string]*models.SavedItinerary
	listLimit int32
	err       error
}

func newFakeFavorites() *fakeFavorites {
	return &fakeFavorites{saved: make(map[string]*models.SavedItinerary)}
}

func (f *fakeFavorites) SaveItinerary(ctx context.Context, saved *models.SavedItinerary) error {
	if f.err != nil {
		return f.err
	}
	f.saved[saved.UserID+"/"+saved.PlanID] = saved
	return nil
}

func (f *fakeFavorites) ListSavedItineraries(ctx context.Context, userID string, limit int32) ([]models.SavedItinerary, error) {
	f.listLimit = limit
	var out []models.SavedItinerary
	for key, saved := range f.saved {
		if strings.HasPrefix(key, userID+"/") {
			out = append(out, *saved)
		}
	}
	return out, f.err
}

func (f *fakeFavorites) DeleteSavedItinerary(ctx context.Context, userID, planID string) error {
	key := userID + "/" + planID
	if _, ok := f.saved[key]; !ok {
		return services.ErrSavedItineraryNotFound
	}
	delete(f.saved, key)
	return nil
}

const favoriteBody = `{"user_id": "user-1", "plan_id": "plan_a", "markets": ["Vienna"],
	"days": [{"day": 1, "date": "December 15, 2024", "city": "Vienna",
		"activities": [{"time": "10:00", "title": "Rathausplatz market", "description": "", "type": "market"}]}]}`

func TestHandler_Plan(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		plannerErr error
		wantStatus int
	}{
		{"valid request", `{"startDate": "2024-12-15", "endDate": "2024-12-20", "budget": [1500], "pace": "active"}`, nil, 200},
		{"empty body", "", nil, 400},
		{"malformed JSON", `{"startDate": `, nil, 400},
		{"invalid date", `{"startDate": "15.12.2024"}`, nil, 400},
		{"invalid pace", `{"pace": "sprint"}`, nil, 400},
		{"negative budget", `{"budget": [-5]}`, nil, 400},
		{"planner failure", `{}`, errors.New("boom"), 500},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(&fakePlanner{err: tc.plannerErr}, nil)

			body, status := h.Plan(context.Background(), []byte(tc.body))
			if status != tc.wantStatus {
				t.Fatalf("Expected status %d, got %d (%+v)", tc.wantStatus, status, body)
			}

			if status == 200 {
				resp, ok := body.(*models.TravelPlanResponse)
				if !ok || !resp.Success || resp.TravelPlan.PlanID != "plan_test" {
					t.Errorf("Unexpected plan response %+v", body)
				}
				return
			}
			if rb, ok := body.(ResponseBody); !ok || rb.Success || rb.Error == "" {
				t.Errorf("Expected an error body, got %+v", body)
			}
		})
	}
}

func TestHandler_Parse(t *testing.T) {
	planner := &fakePlanner{}
	h := NewHandler(planner, nil)

	body, status := h.Parse(context.Background(), []byte(`{"itinerary": "Day 1: Vienna", "start_date": "2024-12-15"}`))
	if status != 200 {
		t.Fatalf("Expected 200, got %d (%+v)", status, body)
	}
	rb := body.(ResponseBody)
	if !rb.Success || rb.Message != "Parsed 1 days" {
		t.Errorf("Unexpected response %+v", rb)
	}
	if planner.lastText != "Day 1: Vienna" {
		t.Errorf("Expected itinerary passed to the planner, got %q", planner.lastText)
	}

	if _, status := h.Parse(context.Background(), []byte(`{"itinerary": `)); status != 400 {
		t.Errorf("Expected 400 for malformed JSON, got %d", status)
	}
}

func TestHandler_ParseDegradesGracefully(t *testing.T) {
	planner := services.NewTravelPlanner(nil, nil, nil).WithMetrics(services.NewParseMetrics())
	h := NewHandler(planner, nil)

	testCases := []struct {
		name     string
		body     string
		wantCity string
		wantDate string
	}{
		{"empty itinerary", `{"itinerary": "", "start_date": "2024-12-15"}`, models.CityMultipleCities, "December 15, 2024"},
		{"missing itinerary", `{}`, models.CityMultipleCities, "Day 1"},
		{"non-ISO start date", `{"itinerary": "Day 1: Vienna\n10:00 Visit the Rathausplatz market", "start_date": "12/15/2024", "end_date": "12/16/2024"}`, "Vienna", "Day 1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, status := h.Parse(context.Background(), []byte(tc.body))
			if status != 200 {
				t.Fatalf("Expected 200, got %d (%+v)", status, body)
			}

			plan, ok := body.(ResponseBody).Data.(*models.TravelPlan)
			if !ok || len(plan.Days) == 0 {
				t.Fatalf("Expected a plan with days, got %+v", body)
			}
			if plan.Days[0].City != tc.wantCity {
				t.Errorf("Expected city %q, got %q", tc.wantCity, plan.Days[0].City)
			}
			if plan.Days[0].Date != tc.wantDate {
				t.Errorf("Expected date %q, got %q", tc.wantDate, plan.Days[0].Date)
			}
		})
	}
}

func TestHandler_Markets(t *testing.T) {
	h := NewHandler(&fakePlanner{}, nil)

	body, status := h.Markets()
	if status != 200 {
		t.Fatalf("Expected 200, got %d", status)
	}
	resp := body.(MarketsResponse)
	if resp.Total != len(resp.Markets) || resp.Total == 0 {
		t.Errorf("Expected total to match markets, got %d vs %d", resp.Total, len(resp.Markets))
	}
	if resp.Markets[0].Name != "Nuremberg" || resp.Markets[0].Country != "Germany" {
		t.Errorf("Unexpected first market %+v", resp.Markets[0])
	}
}

func TestHandler_Metrics(t *testing.T) {
	metrics := services.NewParseMetrics()
	metrics.RecordActivityTypes(map[string]int{models.ActivityTypeMarket: 2})
	h := NewHandler(&fakePlanner{}, nil).WithMetrics(metrics)

	body, status := h.Metrics()
	if status != 200 {
		t.Fatalf("Expected 200, got %d", status)
	}
	rb := body.(ResponseBody)
	dashboard, ok := rb.Data.(map[string]interface{})
	if !rb.Success || !ok {
		t.Fatalf("Expected dashboard data, got %+v", rb)
	}
	parsing := dashboard["parsing"].(map[string]interface{})
	if got := parsing["activities_by_type"].(map[string]int64)[models.ActivityTypeMarket]; got != 2 {
		t.Errorf("Expected 2 market activities, got %d", got)
	}
}

func TestHandler_Export(t *testing.T) {
	h := NewHandler(&fakePlanner{}, nil)

	body := `{"start_date": "2024-12-15", "timezone": "UTC", "days": [{"day": 1, "city": "Vienna",
		"activities": [{"time": "10:00", "title": "Rathausplatz market", "type": "market"}]}]}`
	ics, _, status := h.Export(context.Background(), []byte(body))
	if status != 200 {
		t.Fatalf("Expected 200, got %d", status)
	}
	if !strings.Contains(ics, "BEGIN:VCALENDAR") || !strings.Contains(ics, "SUMMARY:Rathausplatz market") {
		t.Errorf("Unexpected calendar:\n%s", ics)
	}

	testCases := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing start date", `{"days": [{"day": 1, "city": "Vienna", "activities": []}]}`, 400},
		{"no days", `{"start_date": "2024-12-15", "days": []}`, 400},
		{"unknown timezone", `{"start_date": "2024-12-15", "timezone": "Mars/Olympus", "days": [{"day": 1, "activities": []}]}`, 400},
		{"bad activity time", `{"start_date": "2024-12-15", "days": [{"day": 1, "activities": [{"time": "noon", "title": "Lunch"}]}]}`, 422},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, errBody, status := h.Export(context.Background(), []byte(tc.body))
			if status != tc.wantStatus {
				t.Errorf("Expected status %d, got %d (%+v)", tc.wantStatus, status, errBody)
			}
			if errBody.Success {
				t.Error("Expected an error body")
			}
		})
	}
}

func TestHandler_Favorites(t *testing.T) {
	favorites := newFakeFavorites()
	h := NewHandler(&fakePlanner{}, favorites)
	ctx := context.Background()

	if _, status := h.SaveFavorite(ctx, []byte(favoriteBody)); status != 201 {
		t.Fatalf("Expected 201, got %d", status)
	}
	if len(favorites.saved) != 1 {
		t.Fatalf("Expected 1 saved itinerary, got %d", len(favorites.saved))
	}

	body, status := h.ListFavorites(ctx, "user-1", "500")
	if status != 200 {
		t.Fatalf("Expected 200, got %d", status)
	}
	if saved := body.(ResponseBody).Data.([]models.SavedItinerary); len(saved) != 1 {
		t.Errorf("Expected 1 listed itinerary, got %d", len(saved))
	}
	if favorites.listLimit != maxFavoritesLimit {
		t.Errorf("Expected limit capped at %d, got %d", maxFavoritesLimit, favorites.listLimit)
	}

	if _, status := h.ListFavorites(ctx, "", ""); status != 400 {
		t.Errorf("Expected 400 without user_id, got %d", status)
	}

	if _, status := h.DeleteFavorite(ctx, "user-1", "plan_a"); status != 200 {
		t.Errorf("Expected 200 on delete, got %d", status)
	}
	if _, status := h.DeleteFavorite(ctx, "user-1", "plan_a"); status != 404 {
		t.Errorf("Expected 404 on second delete, got %d", status)
	}
}

func TestHandler_SaveFavoriteErrors(t *testing.T) {
	testCases := []struct {
		name       string
		favorites  FavoritesStore
		body       string
		wantStatus int
	}{
		{"not configured", nil, favoriteBody, 503},
		{"missing user", newFakeFavorites(), `{"plan_id": "plan_a", "days": [{"day": 1}]}`, 400},
		{"invalid itinerary", newFakeFavorites(), `{"user_id": "u", "plan_id": "p", "days": [{"day": 1, "city": "Vienna", "activities": []}]}`, 400},
		{"store failure", &fakeFavorites{saved: map[string]*models.SavedItinerary{}, err: errors.New("throttled")}, favoriteBody, 500},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(&fakePlanner{}, tc.favorites)
			if _, status := h.SaveFavorite(context.Background(), []byte(tc.body)); status != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, status)
			}
		})
	}
}

func TestParseLimit(t *testing.T) {
	testCases := []struct {
		input    string
		expected int32
	}{
		{"", defaultFavoritesLimit},
		{"abc", defaultFavoritesLimit},
		{"-3", defaultFavoritesLimit},
		{"5", 5},
		{"1000", maxFavoritesLimit},
	}

	for _, tc := range testCases {
		if got := parseLimit(tc.input); got != tc.expected {
			t.Errorf("parseLimit(%q) = %d, want %d", tc.input, got, tc.expected)
		}
	}
}
