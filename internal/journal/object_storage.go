package journal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.opentelemetry.io/otel/attribute"

	"github.com/BioInfo/chronoscope/internal/tracing"
)

// ObjectAPI is the subset of the S3 client used by ObjectStorage.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ObjectStorageConfig configures an S3-compatible bucket. Region defaults
// to "auto", which R2 and MinIO accept.
type ObjectStorageConfig struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// ObjectStorage implements Storage as one JSON object per key in an
// S3-compatible bucket.
type ObjectStorage struct {
	client ObjectAPI
	bucket string
	prefix string
}

// NewObjectStorage creates an ObjectStorage with a path-style S3 client
// for cfg.
func NewObjectStorage(cfg ObjectStorageConfig) *ObjectStorage {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	client := s3.New(s3.Options{
		Region: region,
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		BaseEndpoint: aws.String(cfg.Endpoint),
		UsePathStyle: true,
	})
	return NewObjectStorageWithClient(client, cfg.Bucket, cfg.Prefix)
}

// NewObjectStorageWithClient creates an ObjectStorage on an existing client.
func NewObjectStorageWithClient(client ObjectAPI, bucket, prefix string) *ObjectStorage {
	return &ObjectStorage{client: client, bucket: bucket, prefix: prefix}
}

func (s *ObjectStorage) objectKey(key string) string {
	return s.prefix + key + ".json"
}

// Load reads the object for key.
func (s *ObjectStorage) Load(ctx context.Context, key string) (data []byte, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "s3.GetObject",
		attribute.String("s3.bucket", s.bucket),
		attribute.String("s3.key", s.objectKey(key)),
	)
	defer func() { endSpan(err) }()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNoDocument
		}
		return nil, fmt.Errorf("failed to load journal object: %w", err)
	}
	defer out.Body.Close()

	data, err = io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal object: %w", err)
	}
	return data, nil
}

// Save writes data as the object for key.
func (s *ObjectStorage) Save(ctx context.Context, key string, data []byte) (err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "s3.PutObject",
		attribute.String("s3.bucket", s.bucket),
		attribute.String("s3.key", s.objectKey(key)),
	)
	defer func() { endSpan(err) }()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to save journal object: %w", err)
	}
	return nil
}
