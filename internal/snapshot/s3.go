package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ethanbaker/controlfill/pkg/utils"
)

// PutObjectAPI is the subset of *s3.Client the sink needs
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds explicit construction parameters for an S3 or MinIO mirror
type S3Config struct {
	Bucket    string
	Key       string
	Region    string // Defaults to us-east-1
	Endpoint  string // Optional custom endpoint, e.g. MinIO
	PathStyle bool
}

// Environment variables:
//   SNAPSHOT_S3_BUCKET=<bucket> (enables the mirror)
//   SNAPSHOT_S3_KEY=<object key> (default: output file name)
//   SNAPSHOT_S3_REGION=<region> (default us-east-1)
//   SNAPSHOT_S3_ENDPOINT=<url> (optional, for MinIO)
//   SNAPSHOT_S3_PATH_STYLE=true|false
//   AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN (optional)

// S3ConfigFromEnv reads the mirror configuration. ok is false when no bucket
// is configured
func S3ConfigFromEnv(cfg *utils.Config, defaultKey string) (S3Config, bool) {
	bucket := cfg.Get("SNAPSHOT_S3_BUCKET")
	if bucket == "" {
		return S3Config{}, false
	}

	return S3Config{
		Bucket:    bucket,
		Key:       cfg.GetWithDefault("SNAPSHOT_S3_KEY", defaultKey),
		Region:    cfg.Get("SNAPSHOT_S3_REGION"),
		Endpoint:  cfg.Get("SNAPSHOT_S3_ENDPOINT"),
		PathStyle: cfg.GetBool("SNAPSHOT_S3_PATH_STYLE"),
	}, true
}

// S3Sink mirrors each snapshot to a single object
type S3Sink struct {
	client PutObjectAPI
	bucket string
	key    string
}

// NewS3Sink creates a sink backed by the default AWS credential chain
func NewS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("s3 key required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewS3SinkWithClient(client, cfg.Bucket, cfg.Key), nil
}

// NewS3SinkWithClient creates a sink over an existing client
func NewS3SinkWithClient(client PutObjectAPI, bucket, key string) *S3Sink {
	return &S3Sink{
		client: client,
		bucket: bucket,
		key:    strings.TrimPrefix(key, "/"),
	}
}

// Save implements Sink
func (s *S3Sink) Save(ctx context.Context, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return nil
}
