package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"christmas-market-planner/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ItineraryPrefix is the key prefix of archived itinerary documents
const ItineraryPrefix = "itineraries/"

// ErrArchiveNotFound is returned when no archived document exists for a plan
var ErrArchiveNotFound = errors.New("archived itinerary not found")

// S3API is the subset of the S3 client used by the archive
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Client archives parsed itineraries as JSON documents
type S3Client struct {
	client     S3API
	bucketName string
	region     string
	endpoint   string
}

// S3Config holds configuration for S3 client
type S3Config struct {
	BucketName string
	Region     string
	Profile    string // AWS profile to use

	// S3-compatible storage (MinIO, LocalStack); empty means AWS
	Endpoint  string
	AccessKey string
	SecretKey string
}

// S3FileInfo represents metadata about files in S3
type S3FileInfo struct {
	Key          string    `json:"key"`
	PlanID       string    `json:"plan_id"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	ETag         string    `json:"etag"`
}

// S3UploadResult represents the result of an S3 upload operation
type S3UploadResult struct {
	Key         string    `json:"key"`
	ETag        string    `json:"etag"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
	ContentType string    `json:"content_type"`
	PublicURL   string    `json:"public_url"`
}

// NewS3Client creates a new S3 client from the environment
func NewS3Client(ctx context.Context) (*S3Client, error) {
	bucketName := os.Getenv("S3_BUCKET_NAME")
	if bucketName == "" {
		bucketName = "christmas-market-planner-itineraries"
	}

	return NewS3ClientWithConfig(ctx, S3Config{
		BucketName: bucketName,
		Region:     os.Getenv("AWS_REGION"),
		Endpoint:   os.Getenv("S3_ENDPOINT"),
		AccessKey:  os.Getenv("S3_ACCESS_KEY"),
		SecretKey:  os.Getenv("S3_SECRET_KEY"),
	})
}

// NewS3ClientWithConfig creates an S3 client with custom configuration
func NewS3ClientWithConfig(ctx context.Context, s3Config S3Config) (*S3Client, error) {
	var opts []func(*config.LoadOptions) error
	if s3Config.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(s3Config.Profile))
	}
	if s3Config.AccessKey != "" && s3Config.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3Config.AccessKey, s3Config.SecretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Override region if specified
	if s3Config.Region != "" {
		cfg.Region = s3Config.Region
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	endpoint := strings.TrimRight(s3Config.Endpoint, "/")
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3ClientWithAPI(client, s3Config.BucketName, cfg.Region, endpoint), nil
}

// NewS3ClientWithAPI wraps an existing S3 API implementation
func NewS3ClientWithAPI(client S3API, bucketName, region, endpoint string) *S3Client {
	return &S3Client{
		client:     client,
		bucketName: bucketName,
		region:     region,
		endpoint:   strings.TrimRight(endpoint, "/"),
	}
}

// ItineraryKey returns the object key of a plan's archived document
func ItineraryKey(planID string) string {
	return ItineraryPrefix + planID + ".json"
}

// UploadItinerary stores the document at itineraries/<planID>.json
func (s *S3Client) UploadItinerary(ctx context.Context, doc *models.ItineraryDocument) (*S3UploadResult, error) {
	if strings.TrimSpace(doc.PlanID) == "" {
		return nil, fmt.Errorf("plan_id is required to archive an itinerary")
	}
	if doc.ArchivedAt.IsZero() {
		doc.ArchivedAt = time.Now().UTC()
	}

	jsonData, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal itinerary to JSON: %w", err)
	}

	result, err := s.uploadJSON(ctx, jsonData, ItineraryKey(doc.PlanID), "application/json")
	if err != nil {
		return nil, err
	}

	log.Printf("[S3] Archived itinerary %s (%d days, %d bytes)", doc.PlanID, len(doc.Days), result.Size)
	return result, nil
}

// DownloadItinerary loads the archived document of a plan
func (s *S3Client) DownloadItinerary(ctx context.Context, planID string) (*models.ItineraryDocument, error) {
	data, err := s.downloadJSON(ctx, ItineraryKey(planID))
	if err != nil {
		return nil, err
	}

	var doc models.ItineraryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal itinerary JSON: %w", err)
	}

	return &doc, nil
}

// ListItineraries lists archived documents, newest first
func (s *S3Client) ListItineraries(ctx context.Context) ([]S3FileInfo, error) {
	listInput := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucketName),
		Prefix: aws.String(ItineraryPrefix),
	}

	var files []S3FileInfo
	for {
		result, err := s.client.ListObjectsV2(ctx, listInput)
		if err != nil {
			return nil, fmt.Errorf("failed to list S3 objects: %w", err)
		}

		for _, obj := range result.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			files = append(files, S3FileInfo{
				Key:          key,
				PlanID:       strings.TrimSuffix(strings.TrimPrefix(key, ItineraryPrefix), ".json"),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
				ETag:         strings.Trim(aws.ToString(obj.ETag), `"`),
			})
		}

		if !aws.ToBool(result.IsTruncated) || result.NextContinuationToken == nil {
			break
		}
		listInput.ContinuationToken = result.NextContinuationToken
	}

	// Newest first
	for i := 1; i < len(files); i++ {
		for j := i; j > 0 && files[j].LastModified.After(files[j-1].LastModified); j-- {
			files[j], files[j-1] = files[j-1], files[j]
		}
	}

	return files, nil
}

// DeleteItinerary removes a plan's archived document
func (s *S3Client) DeleteItinerary(ctx context.Context, planID string) error {
	deleteInput := &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(ItineraryKey(planID)),
	}

	if _, err := s.client.DeleteObject(ctx, deleteInput); err != nil {
		return fmt.Errorf("failed to delete S3 object: %w", err)
	}

	log.Printf("[S3] Deleted archived itinerary %s", planID)
	return nil
}

// uploadJSON is a helper method to upload JSON data to S3
func (s *S3Client) uploadJSON(ctx context.Context, data []byte, key, contentType string) (*S3UploadResult, error) {
	// Ensure key doesn't start with /
	key = strings.TrimPrefix(key, "/")

	uploadInput := &s3.PutObjectInput{
		Bucket:       aws.String(s.bucketName),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=300"), // 5 minutes
		Metadata: map[string]string{
			"uploaded-by": "christmas-market-planner",
			"upload-time": time.Now().UTC().Format(time.RFC3339),
		},
	}

	result, err := s.client.PutObject(ctx, uploadInput)
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &S3UploadResult{
		Key:         key,
		ETag:        strings.Trim(aws.ToString(result.ETag), `"`),
		Size:        int64(len(data)),
		UploadedAt:  time.Now(),
		ContentType: contentType,
		PublicURL:   s.GetPublicURL(key),
	}, nil
}

// downloadJSON is a helper method to download JSON data from S3
func (s *S3Client) downloadJSON(ctx context.Context, key string) ([]byte, error) {
	key = strings.TrimPrefix(key, "/")

	getInput := &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}

	result, err := s.client.GetObject(ctx, getInput)
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, key)
		}
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object body: %w", err)
	}

	return data, nil
}

// GetBucketName returns the configured bucket name
func (s *S3Client) GetBucketName() string {
	return s.bucketName
}

// GetRegion returns the configured AWS region
func (s *S3Client) GetRegion() string {
	return s.region
}

// GetPublicURL generates the public URL for an S3 object
func (s *S3Client) GetPublicURL(key string) string {
	key = strings.TrimPrefix(key, "/")
	if s.endpoint != "" {
		// Path-style for S3-compatible endpoints
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucketName, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucketName, s.region, key)
}
