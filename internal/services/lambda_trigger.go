package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambdaclient "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"christmas-market-planner/internal/models"
)

// LambdaAPI is the subset of the Lambda client used to trigger archiving
type LambdaAPI interface {
	Invoke(ctx context.Context, params *lambdaclient.InvokeInput, optFns ...func(*lambdaclient.Options)) (*lambdaclient.InvokeOutput, error)
}

// ArchiveEvent is the payload the archiver function receives
type ArchiveEvent struct {
	TriggerType string                   `json:"trigger_type"`
	Document    models.ItineraryDocument `json:"document"`
}

// ArchiveTrigger invokes the archiver function asynchronously
type ArchiveTrigger struct {
	client       LambdaAPI
	functionName string
}

// NewArchiveTrigger creates a trigger for the given function
func NewArchiveTrigger(client LambdaAPI, functionName string) *ArchiveTrigger {
	return &ArchiveTrigger{
		client:       client,
		functionName: functionName,
	}
}

// NewArchiveTriggerFromEnv uses ARCHIVER_FUNCTION_NAME. It returns nil when
// the variable is unset so archiving stays disabled.
func NewArchiveTriggerFromEnv(client LambdaAPI) *ArchiveTrigger {
	functionName := os.Getenv("ARCHIVER_FUNCTION_NAME")
	if functionName == "" {
		log.Printf("[PLANNER] ARCHIVER_FUNCTION_NAME not set, itinerary archiving disabled")
		return nil
	}
	return NewArchiveTrigger(client, functionName)
}

// TriggerArchive sends the document to the archiver function
func (a *ArchiveTrigger) TriggerArchive(ctx context.Context, doc models.ItineraryDocument) error {
	eventBytes, err := json.Marshal(ArchiveEvent{
		TriggerType: "plan_created",
		Document:    doc,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal archive event: %w", err)
	}

	_, err = a.client.Invoke(ctx, &lambdaclient.InvokeInput{
		FunctionName:   aws.String(a.functionName),
		InvocationType: lambdatypes.InvocationTypeEvent, // Async invocation
		Payload:        eventBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke archiver: %w", err)
	}

	log.Printf("[PLANNER] Triggered archiver %s for plan %s", a.functionName, doc.PlanID)
	return nil
}
