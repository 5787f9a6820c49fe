// Package api exposes the planner over HTTP. Handler methods are transport
// neutral: the chi router and the API Gateway Lambda both call them.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"christmas-market-planner/internal/export"
	"christmas-market-planner/internal/models"
	"christmas-market-planner/internal/services"
)

// ServiceName is reported by the health endpoint
const ServiceName = "Christmas Market Travel Agent API"

const (
	defaultFavoritesLimit = 20
	maxFavoritesLimit     = 100
)

// ResponseBody represents the response body structure
type ResponseBody struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// MarketsResponse is the body of GET /api/markets
type MarketsResponse struct {
	Markets []models.Market `json:"markets"`
	Total   int             `json:"total"`
}

// ParseRequest is the body of POST /api/parse. Empty text and dates in
// other layouts are accepted; the parser degrades to its fallbacks.
type ParseRequest struct {
	Itinerary             string `json:"itinerary" validate:"max=50000"`
	StartDate             string `json:"start_date" validate:"max=32"`
	EndDate               string `json:"end_date" validate:"max=32"`
	MarketRecommendations string `json:"market_recommendations" validate:"max=20000"`
}

// ExportRequest is the body of POST /api/itineraries/export
type ExportRequest struct {
	PlanID          string                `json:"plan_id" validate:"max=64"`
	StartDate       string                `json:"start_date" validate:"required,datetime=2006-01-02"`
	Timezone        string                `json:"timezone" validate:"max=64"`
	CalendarName    string                `json:"calendar_name" validate:"max=100"`
	DurationMinutes int                   `json:"duration_minutes" validate:"omitempty,min=15,max=720"`
	Days            []models.ItineraryDay `json:"days" validate:"required,min=1,max=60"`
}

// FavoriteRequest is the body of POST /api/favorites
type FavoriteRequest struct {
	UserID    string                `json:"user_id" validate:"required,max=128"`
	PlanID    string                `json:"plan_id" validate:"required,max=64"`
	Title     string                `json:"title" validate:"max=200"`
	StartDate string                `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string                `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Markets   []string              `json:"markets" validate:"max=20"`
	Days      []models.ItineraryDay `json:"days" validate:"required,min=1,max=60"`
	Notes     string                `json:"notes" validate:"max=1000"`
}

// Planner creates and structures travel plans
type Planner interface {
	CreatePlan(ctx context.Context, req models.TravelPlanRequest) (*models.TravelPlanResponse, error)
	ParseText(itineraryText, startDate, endDate, recommendations string) *models.TravelPlan
}

// FavoritesStore persists saved itineraries per user
type FavoritesStore interface {
	SaveItinerary(ctx context.Context, saved *models.SavedItinerary) error
	ListSavedItineraries(ctx context.Context, userID string, limit int32) ([]models.SavedItinerary, error)
	DeleteSavedItinerary(ctx context.Context, userID, planID string) error
}

// MetricsSource reports parsing and generation statistics
type MetricsSource interface {
	GetDashboardMetrics() map[string]interface{}
}

// Handler serves the planner endpoints
type Handler struct {
	planner   Planner
	favorites FavoritesStore
	metrics   MetricsSource
	validator *validator.Validate
}

// NewHandler creates a handler. favorites may be nil, which disables the
// favorites endpoints.
func NewHandler(planner Planner, favorites FavoritesStore) *Handler {
	return &Handler{
		planner:   planner,
		favorites: favorites,
		metrics:   services.GetParseMetrics(),
		validator: validator.New(),
	}
}

// WithMetrics replaces the process-wide parse metrics
func (h *Handler) WithMetrics(metrics MetricsSource) *Handler {
	h.metrics = metrics
	return h
}

// Health reports service liveness
func (h *Handler) Health() (interface{}, int) {
	return HealthResponse{Status: "healthy", Service: ServiceName}, 200
}

// Markets lists the market catalog
func (h *Handler) Markets() (interface{}, int) {
	markets := models.ListMarkets()
	return MarketsResponse{Markets: markets, Total: len(markets)}, 200
}

// Metrics handles GET /api/metrics
func (h *Handler) Metrics() (interface{}, int) {
	return ResponseBody{Success: true, Data: h.metrics.GetDashboardMetrics()}, 200
}

// Plan handles POST /api/plan
func (h *Handler) Plan(ctx context.Context, body []byte) (interface{}, int) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return errorBody("No data provided"), 400
	}

	var req models.TravelPlanRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return errorBody(fmt.Sprintf("Invalid request body: %v", err)), 400
	}
	if err := h.validator.Struct(req); err != nil {
		return errorBody(validationMessage(err)), 400
	}

	resp, err := h.planner.CreatePlan(ctx, req)
	if err != nil {
		log.Printf("[API] Error creating travel plan: %v", err)
		return ResponseBody{Success: false, Message: err.Error(), Error: "Failed to create travel plan"}, 500
	}

	return resp, 200
}

// Parse handles POST /api/parse
func (h *Handler) Parse(ctx context.Context, body []byte) (interface{}, int) {
	var req ParseRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return errorBody(fmt.Sprintf("Invalid request body: %v", err)), 400
	}
	if err := h.validator.Struct(req); err != nil {
		return errorBody(validationMessage(err)), 400
	}

	plan := h.planner.ParseText(req.Itinerary, req.StartDate, req.EndDate, req.MarketRecommendations)

	return ResponseBody{
		Success: true,
		Message: fmt.Sprintf("Parsed %d days", len(plan.Days)),
		Data:    plan,
	}, 200
}

// Export handles POST /api/itineraries/export. On success it returns the
// calendar text; otherwise an error body.
func (h *Handler) Export(ctx context.Context, body []byte) (string, ResponseBody, int) {
	var req ExportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return "", errorBody(fmt.Sprintf("Invalid request body: %v", err)), 400
	}
	if err := h.validator.Struct(req); err != nil {
		return "", errorBody(validationMessage(err)), 400
	}

	opts := export.Options{
		PlanID:       req.PlanID,
		CalendarName: req.CalendarName,
		Duration:     time.Duration(req.DurationMinutes) * time.Minute,
	}
	if req.Timezone != "" {
		loc, err := time.LoadLocation(req.Timezone)
		if err != nil {
			return "", errorBody(fmt.Sprintf("Unknown timezone: %s", req.Timezone)), 400
		}
		opts.Location = loc
	}

	ics, err := export.ToICS(req.Days, req.StartDate, opts)
	if err != nil {
		return "", errorBody(fmt.Sprintf("Cannot export itinerary: %v", err)), 422
	}

	return ics, ResponseBody{Success: true}, 200
}

// SaveFavorite handles POST /api/favorites
func (h *Handler) SaveFavorite(ctx context.Context, body []byte) (interface{}, int) {
	if h.favorites == nil {
		return errorBody("Favorites are not configured"), 503
	}

	var req FavoriteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return errorBody(fmt.Sprintf("Invalid request body: %v", err)), 400
	}
	if err := h.validator.Struct(req); err != nil {
		return errorBody(validationMessage(err)), 400
	}

	saved := &models.SavedItinerary{
		UserID:    req.UserID,
		PlanID:    req.PlanID,
		Title:     req.Title,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Markets:   req.Markets,
		Days:      req.Days,
		Notes:     req.Notes,
	}
	if err := saved.Validate(); err != nil {
		return errorBody(err.Error()), 400
	}

	if err := h.favorites.SaveItinerary(ctx, saved); err != nil {
		log.Printf("[API] Failed to save favorite %s for %s: %v", req.PlanID, req.UserID, err)
		return errorBody("Failed to save itinerary"), 500
	}

	return ResponseBody{Success: true, Message: "Itinerary saved", Data: saved}, 201
}

// ListFavorites handles GET /api/favorites?user_id=
func (h *Handler) ListFavorites(ctx context.Context, userID, limitStr string) (interface{}, int) {
	if h.favorites == nil {
		return errorBody("Favorites are not configured"), 503
	}
	if strings.TrimSpace(userID) == "" {
		return errorBody("user_id is required"), 400
	}

	saved, err := h.favorites.ListSavedItineraries(ctx, userID, parseLimit(limitStr))
	if err != nil {
		log.Printf("[API] Failed to list favorites for %s: %v", userID, err)
		return errorBody("Failed to list saved itineraries"), 500
	}

	return ResponseBody{
		Success: true,
		Message: fmt.Sprintf("Found %d saved itineraries", len(saved)),
		Data:    saved,
	}, 200
}

// DeleteFavorite handles DELETE /api/favorites/{id}?user_id=
func (h *Handler) DeleteFavorite(ctx context.Context, userID, planID string) (interface{}, int) {
	if h.favorites == nil {
		return errorBody("Favorites are not configured"), 503
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(planID) == "" {
		return errorBody("user_id and plan id are required"), 400
	}

	err := h.favorites.DeleteSavedItinerary(ctx, userID, planID)
	if errors.Is(err, services.ErrSavedItineraryNotFound) {
		return errorBody("Saved itinerary not found"), 404
	}
	if err != nil {
		log.Printf("[API] Failed to delete favorite %s for %s: %v", planID, userID, err)
		return errorBody("Failed to delete saved itinerary"), 500
	}

	return ResponseBody{Success: true, Message: "Itinerary deleted"}, 200
}

func errorBody(message string) ResponseBody {
	return ResponseBody{Success: false, Error: message}
}

// validationMessage lists the failing fields of a validator error
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Sprintf("Invalid request: %v", err)
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return "Invalid fields: " + strings.Join(fields, ", ")
}

func parseLimit(limitStr string) int32 {
	limit, err := strconv.Atoi(strings.TrimSpace(limitStr))
	if err != nil || limit <= 0 {
		return defaultFavoritesLimit
	}
	if limit > maxFavoritesLimit {
		return maxFavoritesLimit
	}
	return int32(limit)
}
