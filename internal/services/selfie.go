package services

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/reparto-ops/dispatch-backend/internal/utils"
)

// objectPutter is the slice of the S3 client the selfie service needs
type objectPutter interface {
	PutObject(input *s3.PutObjectInput) (*s3.PutObjectOutput, error)
}

// SelfieService uploads check-in selfies to an S3-compatible bucket and
// derives public URLs for them.
type SelfieService struct {
	client        objectPutter
	bucket        string
	publicBaseURL string
}

// NewSelfieService builds the service from environment variables:
// SELFIE_BUCKET, S3_ENDPOINT, S3_REGION, S3_ACCESS_KEY, S3_SECRET_KEY and
// optionally SELFIE_PUBLIC_BASE_URL.
func NewSelfieService() (*SelfieService, error) {
	bucket := os.Getenv("SELFIE_BUCKET")
	endpoint := os.Getenv("S3_ENDPOINT")
	region := os.Getenv("S3_REGION")
	accessKey := os.Getenv("S3_ACCESS_KEY")
	secretKey := os.Getenv("S3_SECRET_KEY")
	if bucket == "" || endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("selfie storage is not configured")
	}
	if region == "" {
		region = "us-east-1"
	}

	sess := session.Must(session.NewSession(&aws.Config{
		Region:           aws.String(region),
		Endpoint:         aws.String(endpoint),
		S3ForcePathStyle: aws.Bool(true),
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
	}))

	publicBase := os.Getenv("SELFIE_PUBLIC_BASE_URL")
	if publicBase == "" {
		publicBase = fmt.Sprintf("%s/%s", strings.TrimRight(endpoint, "/"), bucket)
	}

	return &SelfieService{
		client:        s3.New(sess),
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBase, "/"),
	}, nil
}

// Upload stores a selfie and returns its public URL. Keys combine the device
// id, the timestamp and a random suffix so repeated check-ins never collide.
func (s *SelfieService) Upload(deviceID string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	key := ObjectKey(deviceID, time.Now())

	_, err := s.client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("unable to upload selfie: %w", err)
	}
	return fmt.Sprintf("%s/%s", s.publicBaseURL, key), nil
}

// ObjectKey builds the bucket path for a selfie
func ObjectKey(deviceID string, at time.Time) string {
	return fmt.Sprintf("selfies/%s/%d-%s.jpg", deviceID, at.Unix(), utils.ObjectSuffix())
}
