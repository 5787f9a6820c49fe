package services

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	lambdaclient "github.com/aws/aws-sdk-go-v2/service/lambda"

	"christmas-market-planner/internal/parser"
)

// NewParserFromEnv builds the itinerary parser, loading VOCABULARY_FILE when set
func NewParserFromEnv() (*parser.Parser, error) {
	path := os.Getenv("VOCABULARY_FILE")
	if path == "" {
		return parser.New(nil), nil
	}

	vocab, err := parser.LoadVocabulary(path)
	if err != nil {
		return nil, err
	}
	log.Printf("[PLANNER] Loaded vocabulary from %s (%d destinations, %d markets)",
		path, len(vocab.Destinations), len(vocab.Markets))
	return parser.New(vocab), nil
}

// NewTravelPlannerFromEnv wires the planner used by the API executables.
// A missing OpenAI key disables generation; awsCfg may be nil, which
// disables archiving.
func NewTravelPlannerFromEnv(awsCfg *aws.Config) (*TravelPlanner, error) {
	p, err := NewParserFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}

	var generator PlanGenerator
	openaiClient, err := NewOpenAIClient()
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		log.Printf("[PLANNER] %v; plans will use the fallback itinerary", err)
	case err != nil:
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	default:
		generator = openaiClient
	}

	var archiver ItineraryArchiver
	if awsCfg != nil {
		if trigger := NewArchiveTriggerFromEnv(lambdaclient.NewFromConfig(*awsCfg)); trigger != nil {
			archiver = trigger
		}
	}

	return NewTravelPlanner(generator, p, archiver), nil
}

// NewSavedItineraryStoreFromEnv returns nil when SAVED_ITINERARIES_TABLE is unset
func NewSavedItineraryStoreFromEnv(awsCfg aws.Config) *DynamoDBService {
	table := os.Getenv("SAVED_ITINERARIES_TABLE")
	if table == "" {
		log.Printf("[DYNAMODB] SAVED_ITINERARIES_TABLE not set, favorites disabled")
		return nil
	}
	return NewDynamoDBService(dynamodb.NewFromConfig(awsCfg), table)
}
