package main

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"

	"christmas-market-planner/internal/api"
	"christmas-market-planner/internal/services"
)

var handler *api.Handler

func init() {
	// Load AWS configuration
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	planner, err := services.NewTravelPlannerFromEnv(&cfg)
	if err != nil {
		log.Fatalf("Failed to initialize planner: %v", err)
	}

	var favorites api.FavoritesStore
	if store := services.NewSavedItineraryStoreFromEnv(cfg); store != nil {
		favorites = store
	}

	handler = api.NewHandler(planner, favorites)
}

func corsHeaders(contentType string) map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token",
		"Access-Control-Allow-Methods": "GET,POST,DELETE,OPTIONS",
		"Content-Type":                 contentType,
	}
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return route(ctx, handler, request), nil
}

func route(ctx context.Context, h *api.Handler, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	// Handle preflight OPTIONS request
	if request.HTTPMethod == "OPTIONS" {
		return events.APIGatewayProxyResponse{StatusCode: 200, Headers: corsHeaders("application/json")}
	}

	path := strings.TrimSuffix(request.Path, "/")
	method := request.HTTPMethod
	body := []byte(request.Body)

	log.Printf("[API] Lambda request: %s %s", method, path)

	var responseBody interface{}
	var statusCode int

	switch {
	case method == "GET" && path == "/api/health":
		responseBody, statusCode = h.Health()

	case method == "GET" && path == "/api/markets":
		responseBody, statusCode = h.Markets()

	case method == "GET" && path == "/api/metrics":
		responseBody, statusCode = h.Metrics()

	case method == "POST" && path == "/api/plan":
		responseBody, statusCode = h.Plan(ctx, body)

	case method == "POST" && path == "/api/parse":
		responseBody, statusCode = h.Parse(ctx, body)

	case method == "POST" && path == "/api/itineraries/export":
		ics, errBody, status := h.Export(ctx, body)
		if status == 200 {
			headers := corsHeaders("text/calendar; charset=utf-8")
			headers["Content-Disposition"] = `attachment; filename="itinerary.ics"`
			return events.APIGatewayProxyResponse{StatusCode: 200, Headers: headers, Body: ics}
		}
		responseBody, statusCode = errBody, status

	case method == "POST" && path == "/api/favorites":
		responseBody, statusCode = h.SaveFavorite(ctx, body)

	case method == "GET" && path == "/api/favorites":
		responseBody, statusCode = h.ListFavorites(ctx, request.QueryStringParameters["user_id"], request.QueryStringParameters["limit"])

	case method == "DELETE" && strings.HasPrefix(path, "/api/favorites/"):
		planID := extractPlanIDFromPath(path)
		responseBody, statusCode = h.DeleteFavorite(ctx, request.QueryStringParameters["user_id"], planID)

	default:
		responseBody = api.ResponseBody{
			Success: false,
			Error:   "Not found",
		}
		statusCode = 404
	}

	// Marshal response body
	bodyJSON, err := json.Marshal(responseBody)
	if err != nil {
		log.Printf("[API] Error marshaling response body: %v", err)
		return events.APIGatewayProxyResponse{
			StatusCode: 500,
			Headers:    corsHeaders("application/json"),
			Body:       `{"success":false,"error":"Internal server error"}`,
		}
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    corsHeaders("application/json"),
		Body:       string(bodyJSON),
	}
}

// extractPlanIDFromPath extracts the plan ID from a path like /api/favorites/{id}
func extractPlanIDFromPath(path string) string {
	id := strings.TrimPrefix(path, "/api/favorites/")
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}

func main() {
	lambda.Start(handleRequest)
}
