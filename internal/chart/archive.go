package chart

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// S3Client defines the interface for S3 operations we need
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver uploads rendered charts to a bucket
type S3Archiver struct {
	client     S3Client
	bucketName string
	prefix     string
}

var _ Archiver = (*S3Archiver)(nil)

func NewS3Archiver(client S3Client, bucketName, prefix string) *S3Archiver {
	return &S3Archiver{
		client:     client,
		bucketName: bucketName,
		prefix:     prefix,
	}
}

// NewS3Client creates an S3 client. A non-empty endpoint targets a local S3-compatible store.
func NewS3Client(ctx context.Context, endpoint string) (*s3.Client, error) {
	if endpoint != "" {
		log.Debug().Str("endpoint", endpoint).Msg("Using local S3 endpoint")
		region := os.Getenv("AWS_REGION")
		if region == "" {
			region = "us-east-1"
		}
		customOptions := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(region),
		}
		if os.Getenv("AWS_ACCESS_KEY_ID") == "" {
			customOptions = append(customOptions,
				awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")))
		}

		cfg, err := awsconfig.LoadDefaultConfig(ctx, customOptions...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}

		return s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}), nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Key returns the object key a chart file is stored under
func (a *S3Archiver) Key(path string) string {
	return a.prefix + filepath.Base(path)
}

func (a *S3Archiver) Archive(ctx context.Context, path string) error {
	if a.bucketName == "" {
		return fmt.Errorf("empty bucket name")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading chart: %w", err)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucketName),
		Key:         aws.String(a.Key(path)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return fmt.Errorf("saving to S3: %w", err)
	}

	log.Debug().Str("bucket", a.bucketName).Str("key", a.Key(path)).Msg("Archived chart to S3")
	return nil
}
