package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"christmas-market-planner/internal/models"
)

// ErrSavedItineraryNotFound is returned when a user has no saved plan with the given ID
var ErrSavedItineraryNotFound = errors.New("saved itinerary not found")

// DynamoDBAPI is the subset of the DynamoDB client used for saved itineraries
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoDBService stores users' favorited itineraries
type DynamoDBService struct {
	client                DynamoDBAPI
	savedItinerariesTable string
}

// NewDynamoDBService creates a new DynamoDB service instance
func NewDynamoDBService(client DynamoDBAPI, savedItinerariesTable string) *DynamoDBService {
	return &DynamoDBService{
		client:                client,
		savedItinerariesTable: savedItinerariesTable,
	}
}

// SaveItinerary stores or replaces a user's saved plan. CreatedAt is kept
// when the caller passes the previously stored value.
func (s *DynamoDBService) SaveItinerary(ctx context.Context, saved *models.SavedItinerary) error {
	if err := saved.Validate(); err != nil {
		return fmt.Errorf("invalid saved itinerary: %w", err)
	}

	// Set timestamps
	now := time.Now().UTC()
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = now
	}
	saved.UpdatedAt = now

	if strings.TrimSpace(saved.Title) == "" {
		saved.Title = saved.DefaultTitle()
	}
	saved.PopulateKeys()

	// Marshal to DynamoDB attribute values
	item, err := attributevalue.MarshalMap(saved)
	if err != nil {
		return fmt.Errorf("failed to marshal saved itinerary: %w", err)
	}

	// Put item (upsert)
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.savedItinerariesTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save itinerary: %w", err)
	}

	log.Printf("[DYNAMODB] Saved itinerary %s for user %s (%d days)", saved.PlanID, saved.UserID, len(saved.Days))
	return nil
}

// GetSavedItinerary retrieves one saved plan of a user
func (s *DynamoDBService) GetSavedItinerary(ctx context.Context, userID, planID string) (*models.SavedItinerary, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.savedItinerariesTable),
		Key:       savedItineraryKey(userID, planID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get saved itinerary: %w", err)
	}

	if result.Item == nil {
		return nil, ErrSavedItineraryNotFound
	}

	var saved models.SavedItinerary
	if err := attributevalue.UnmarshalMap(result.Item, &saved); err != nil {
		return nil, fmt.Errorf("failed to unmarshal saved itinerary: %w", err)
	}

	return &saved, nil
}

// ListSavedItineraries returns a user's saved plans, newest plan key first.
// limit <= 0 returns all of them.
func (s *DynamoDBService) ListSavedItineraries(ctx context.Context, userID string, limit int32) ([]models.SavedItinerary, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.savedItinerariesTable),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: models.CreateUserPK(userID)},
			":prefix": &types.AttributeValueMemberS{Value: models.PlanKeyPrefix},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	saved := []models.SavedItinerary{}
	for {
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query saved itineraries: %w", err)
		}

		var page []models.SavedItinerary
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal saved itineraries: %w", err)
		}
		saved = append(saved, page...)

		if len(result.LastEvaluatedKey) == 0 || (limit > 0 && int32(len(saved)) >= limit) {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	if limit > 0 && int32(len(saved)) > limit {
		saved = saved[:limit]
	}
	return saved, nil
}

// DeleteSavedItinerary removes a saved plan, failing when it does not exist
func (s *DynamoDBService) DeleteSavedItinerary(ctx context.Context, userID, planID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.savedItinerariesTable),
		Key:                 savedItineraryKey(userID, planID),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrSavedItineraryNotFound
		}
		return fmt.Errorf("failed to delete saved itinerary: %w", err)
	}

	log.Printf("[DYNAMODB] Deleted saved itinerary %s for user %s", planID, userID)
	return nil
}

func savedItineraryKey(userID, planID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: models.CreateUserPK(userID)},
		"SK": &types.AttributeValueMemberS{Value: models.CreatePlanSK(planID)},
	}
}
