package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"christmas-market-planner/internal/models"
	"christmas-market-planner/internal/services"
)

// LambdaResponse represents the function response
type LambdaResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	PlanID         string `json:"plan_id,omitempty"`
	Key            string `json:"key,omitempty"`
	URL            string `json:"url,omitempty"`
	ProcessingTime int64  `json:"processing_time_ms"`
}

// ItineraryStore is the subset of the S3 client the archiver needs
type ItineraryStore interface {
	UploadItinerary(ctx context.Context, doc *models.ItineraryDocument) (*services.S3UploadResult, error)
}

// Archiver stores plan documents sent by the planner
type Archiver struct {
	store ItineraryStore
}

// HandleEvent archives one plan document
func (a *Archiver) HandleEvent(ctx context.Context, event services.ArchiveEvent) (LambdaResponse, error) {
	start := time.Now()
	doc := event.Document

	log.Printf("[S3] Archive request (%s) for plan %s: %d days", event.TriggerType, doc.PlanID, len(doc.Days))

	if doc.PlanID == "" {
		return LambdaResponse{
			Success:        false,
			Message:        "document has no plan_id",
			ProcessingTime: time.Since(start).Milliseconds(),
		}, nil
	}
	if issues := models.ValidateItineraryDays(doc.Days); len(issues) > 0 {
		log.Printf("[S3] Plan %s has %d validation issue(s), first: %s", doc.PlanID, len(issues), issues[0])
	}

	result, err := a.store.UploadItinerary(ctx, &doc)
	if err != nil {
		// Lambda retries failed async invocations
		return LambdaResponse{
			Success:        false,
			Message:        err.Error(),
			PlanID:         doc.PlanID,
			ProcessingTime: time.Since(start).Milliseconds(),
		}, fmt.Errorf("failed to archive plan %s: %w", doc.PlanID, err)
	}

	return LambdaResponse{
		Success:        true,
		Message:        "Itinerary archived",
		PlanID:         doc.PlanID,
		Key:            result.Key,
		URL:            result.PublicURL,
		ProcessingTime: time.Since(start).Milliseconds(),
	}, nil
}

func main() {
	s3Client, err := services.NewS3Client(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize S3 client: %v", err)
	}

	archiver := &Archiver{store: s3Client}
	lambda.Start(archiver.HandleEvent)
}
