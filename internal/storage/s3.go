package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"jawara/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Storage stores objects in one bucket of an S3 compatible endpoint.
type S3Storage struct {
	client        *s3.Client
	bucketName    string
	publicBaseURL string
}

// NewS3Client loads the default AWS config, overriding region, credentials
// and endpoint when they are configured. A custom endpoint switches to path
// style addressing, which MinIO and the Supabase S3 gateway expect.
func NewS3Client(ctx context.Context, c *types.Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{}
	if c.S3Region != "" {
		opts = append(opts, config.WithRegion(c.S3Region))
	}
	if c.S3AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.S3AccessKeyID, c.S3SecretAccessKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return newS3ClientFromConfig(awsConfig, c.S3Endpoint), nil
}

func newS3ClientFromConfig(awsConfig aws.Config, endpoint string) *s3.Client {
	return s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})
}

// NewS3Storage serves public URLs as <publicBaseURL>/<bucket>/<key>.
func NewS3Storage(client *s3.Client, bucketName, publicBaseURL string) *S3Storage {
	return &S3Storage{
		client:        client,
		bucketName:    bucketName,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *S3Storage) UploadFile(ctx context.Context, path string, body io.Reader, contentType string) (string, error) {
	fileBytes, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(path),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return path, nil
}

func (s *S3Storage) DeleteFile(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

func (s *S3Storage) GetPublicURL(path string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucketName, path)
}

func (s *S3Storage) PathFromURL(publicURL string) (string, bool) {
	return cutPrefix(publicURL, fmt.Sprintf("%s/%s/", s.publicBaseURL, s.bucketName))
}
