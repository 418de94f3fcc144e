package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client the store calls.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Store keeps objects in an S3-compatible bucket.
type S3Store struct {
	client   S3API
	bucket   string
	region   string
	endpoint string
	opts     options
}

// NewS3Store loads the default AWS configuration for region. A non-empty
// endpoint switches to path-style addressing (MinIO and similar).
func NewS3Store(ctx context.Context, bucket, region, endpoint string, opts ...Option) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}
	return NewS3StoreWithClient(s3.NewFromConfig(cfg, s3opts...), bucket, region, endpoint, opts...)
}

// NewS3StoreWithClient wraps an existing client.
func NewS3StoreWithClient(client S3API, bucket, region, endpoint string, opts ...Option) (*S3Store, error) {
	if client == nil {
		return nil, errors.New("storage: s3 client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage: bucket name is required")
	}
	return &S3Store{
		client:   client,
		bucket:   bucket,
		region:   strings.TrimSpace(region),
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		opts:     buildOptions(opts),
	}, nil
}

// Upload puts the object with its content type.
func (s *S3Store) Upload(ctx context.Context, name, contentType string, data []byte) error {
	name, err := ValidateObjectName(name)
	if err != nil {
		return err
	}
	input := &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(name),
		Body:         bytes.NewReader(data),
		CacheControl: aws.String(s.opts.cacheControl),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("storage: s3 put object %s: %w", name, err)
	}
	return nil
}

// Delete removes the object.
func (s *S3Store) Delete(ctx context.Context, name string) error {
	name, err := ValidateObjectName(name)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		var missing *s3types.NoSuchKey
		if errors.As(err, &missing) {
			return ErrNotFound
		}
		return fmt.Errorf("storage: s3 delete object %s: %w", name, err)
	}
	return nil
}

// PublicURL prefers the configured base, then the custom endpoint, then the
// virtual-hosted AWS address.
func (s *S3Store) PublicURL(name string) string {
	base := s.opts.publicBaseURL
	switch {
	case base != "":
	case s.endpoint != "":
		base = s.endpoint + "/" + s.bucket
	case s.region != "":
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.bucket, s.region)
	default:
		base = fmt.Sprintf("https://%s.s3.amazonaws.com", s.bucket)
	}
	return joinURL(base, name)
}

// Ping issues HeadBucket.
func (s *S3Store) Ping(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("storage: s3 head bucket %s: %w", s.bucket, err)
	}
	return nil
}
