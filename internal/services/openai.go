package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"christmas-market-planner/internal/models"
	"github.com/kaptinlin/jsonrepair"
	"github.com/sashabaranov/go-openai"
)

// ErrMissingAPIKey is returned when OPENAI_API_KEY is not set
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY environment variable is required")

// PlanGenerator produces the free-text sections of a travel plan
type PlanGenerator interface {
	GeneratePlanText(ctx context.Context, prefs models.UserPreferences) (*models.TravelPlanText, error)
}

// OpenAIClient generates travel plan text using OpenAI
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAIClient creates a new OpenAI client from the environment.
// OPENAI_MODEL and OPENAI_BASE_URL are optional.
func NewOpenAIClient() (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	return NewOpenAIClientWithConfig(apiKey, os.Getenv("OPENAI_BASE_URL"), model, 0.7, 3000), nil
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(apiKey, baseURL, model string, temperature float32, maxTokens int) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// GeneratePlanText asks the model for market recommendations, a day-by-day
// itinerary and the supporting sections as one JSON object
func (o *OpenAIClient) GeneratePlanText(ctx context.Context, prefs models.UserPreferences) (*models.TravelPlanText, error) {
	startTime := time.Now()

	resp, err := o.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       o.model,
			Temperature: o.temperature,
			MaxTokens:   o.maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: o.buildSystemPrompt(),
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: o.buildUserPrompt(prefs),
				},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices from OpenAI")
	}

	plan, err := o.parsePlanResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	log.Printf("[PLANNER] Generated plan text with %s in %dms (%d tokens, ~$%.4f)",
		o.model, time.Since(startTime).Milliseconds(), resp.Usage.TotalTokens, o.calculateCost(resp.Usage.TotalTokens))

	return plan, nil
}

// parsePlanResponse decodes the model output, repairing malformed JSON once
func (o *OpenAIClient) parsePlanResponse(content string) (*models.TravelPlanText, error) {
	cleaned := o.cleanJSONResponse(content)

	var plan models.TravelPlanText
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(cleaned)
		if repairErr != nil {
			return nil, fmt.Errorf("failed to parse OpenAI response JSON: %w (repair error: %v)", err, repairErr)
		}
		if err := json.Unmarshal([]byte(repaired), &plan); err != nil {
			return nil, fmt.Errorf("failed to parse repaired OpenAI response JSON: %w\nResponse: %s", err, cleaned)
		}
		log.Printf("[PLANNER] Repaired malformed JSON from model response")
	}

	if strings.TrimSpace(plan.Itinerary) == "" {
		return nil, fmt.Errorf("model response has no itinerary")
	}

	return &plan, nil
}

func (o *OpenAIClient) buildSystemPrompt() string {
	return `You are an expert European Christmas market travel planner.

Plan a trip to the Christmas markets of Germany, Austria, France, the Czech Republic, Switzerland and Belgium.

Respond with a single JSON object with exactly these string fields:
- "market_recommendations": 3-5 recommended market cities with one or two sentences each
- "itinerary": a day-by-day plan
- "transport": how to travel between the cities
- "accommodations": where to stay in each city
- "cultural_insights": traditions, foods and etiquette

ITINERARY FORMAT (plain text, no markdown):
Day 1: <City>
09:00 <Activity title> - <short description>
13:00 <Activity title> - <short description>
18:00 <Activity title> - <short description>
Hotel: <where to stay>
Tip: <one practical tip>

Start every day with "Day N: <City>" on its own line. Use 24-hour times.
Return ONLY the JSON object, no commentary.`
}

func (o *OpenAIClient) buildUserPrompt(prefs models.UserPreferences) string {
	markets := models.NotSpecified
	if len(prefs.RecommendedMarkets) > 0 {
		markets = strings.Join(prefs.RecommendedMarkets, ", ")
	}

	return fmt.Sprintf(`Create a Christmas market trip for this traveller:

Departure city: %s
Travel dates: %s
Duration: %s
Budget: %s
Interests: %s
Pace: %s
Travel companions: %s
Preferred markets: %s

Write all text in the language with code "%s".`,
		prefs.DepartureCity,
		prefs.TravelDates,
		prefs.Duration,
		prefs.Budget,
		strings.Join(prefs.Interests, ", "),
		prefs.Pace,
		prefs.TravelCompanions,
		markets,
		prefs.Language,
	)
}

// calculateCost estimates the cost based on tokens used
func (o *OpenAIClient) calculateCost(tokensUsed int) float64 {
	// Blended gpt-4o-mini rate
	return float64(tokensUsed) * 0.0003 / 1000.0
}

// GetModel returns the current OpenAI model being used
func (o *OpenAIClient) GetModel() string {
	return o.model
}

// cleanJSONResponse removes markdown code blocks and other formatting from OpenAI response
func (o *OpenAIClient) cleanJSONResponse(response string) string {
	cleaned := strings.TrimSpace(response)

	// Remove ```json prefix
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	}

	// Remove ``` prefix (in case it's just ```)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}

	// Remove ``` suffix
	if strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimSuffix(cleaned, "```")
	}

	return strings.TrimSpace(cleaned)
}
