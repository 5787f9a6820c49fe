package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	_ "github.com/joho/godotenv/autoload"

	"christmas-market-planner/internal/services"
)

func main() {
	checkUser := flag.String("user", "connectivity-check", "user ID to list favorites for")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("\n=== Testing Storage Connectivity ===")
	failures := 0

	table := os.Getenv("SAVED_ITINERARIES_TABLE")
	if table == "" {
		fmt.Println("⚠️  SAVED_ITINERARIES_TABLE not set, skipping DynamoDB")
	} else {
		opts := []func(*config.LoadOptions) error{}
		if profile := os.Getenv("AWS_PROFILE"); profile != "" {
			fmt.Printf("Using AWS Profile: %s\n", profile)
			opts = append(opts, config.WithSharedConfigProfile(profile))
		}
		cfg, err := config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			log.Fatalf("Failed to load AWS config: %v", err)
		}

		store := services.NewDynamoDBService(dynamodb.NewFromConfig(cfg), table)
		saved, err := store.ListSavedItineraries(ctx, *checkUser, 1)
		if err != nil {
			log.Printf("❌ Failed to query table %s: %v\n", table, err)
			failures++
		} else {
			fmt.Printf("✅ Successfully connected to table %s (found %d items for %s)\n", table, len(saved), *checkUser)
		}
	}

	s3Client, err := services.NewS3Client(ctx)
	if err != nil {
		log.Printf("❌ Failed to create S3 client: %v\n", err)
		failures++
	} else {
		files, err := s3Client.ListItineraries(ctx)
		if err != nil {
			log.Printf("❌ Failed to list bucket %s: %v\n", s3Client.GetBucketName(), err)
			failures++
		} else {
			fmt.Printf("✅ Successfully connected to bucket %s (%d archived itineraries)\n", s3Client.GetBucketName(), len(files))
		}
	}

	fmt.Println("\n=== Storage Connectivity Test Complete ===")
	if failures > 0 {
		os.Exit(1)
	}
}
