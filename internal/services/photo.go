package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"couple-journal-backend/internal/config"
	"couple-journal-backend/internal/identity"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const uploadExpiry = 5 * time.Minute

// PhotoService signs direct-to-bucket photo uploads
type PhotoService struct {
	presign   *s3.PresignClient
	bucket    string
	region    string
	endpoint  string
	publicURL string
	pathStyle bool
}

// NewPhotoService creates a new photo service
func NewPhotoService(ctx context.Context, cfg config.AWSConfig) (*PhotoService, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint != "" && !strings.Contains(endpoint, "://") {
		scheme := "https://"
		if cfg.DisableSSL {
			scheme = "http://"
		}
		endpoint = scheme + endpoint
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &PhotoService{
		presign:   s3.NewPresignClient(s3Client),
		bucket:    cfg.S3Bucket,
		region:    cfg.Region,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		pathStyle: endpoint != "",
	}, nil
}

// UploadRequest represents a request to get a pre-signed URL
type UploadRequest struct {
	ContentType string `json:"content_type"`
}

// UploadResponse carries the signed PUT and the id and URL to register the photo with afterwards
type UploadResponse struct {
	UploadURL string `json:"upload_url"`
	PhotoID   string `json:"photo_id"`
	PhotoURL  string `json:"photo_url"`
	ExpiresIn int    `json:"expires_in"`
}

// GetPreSignedURL reserves a photo id in the caller's folder and signs an upload for it
func (s *PhotoService) GetPreSignedURL(ctx context.Context, caller identity.Identity, contentType string) (*UploadResponse, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}

	photoID := uuid.New().String()
	key := ObjectKey(caller.SelfID(), photoID)

	request, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = uploadExpiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	return &UploadResponse{
		UploadURL: request.URL,
		PhotoID:   photoID,
		PhotoURL:  s.objectURL(key),
		ExpiresIn: int(uploadExpiry.Seconds()),
	}, nil
}

// ObjectKey is the bucket key of a photo: {owner_id}/{photo_id}.jpg
func ObjectKey(ownerID, photoID string) string {
	return fmt.Sprintf("%s/%s.jpg", ownerID, photoID)
}

func (s *PhotoService) objectURL(key string) string {
	switch {
	case s.publicURL != "":
		return fmt.Sprintf("%s/%s", s.publicURL, key)
	case s.pathStyle:
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
	}
}
