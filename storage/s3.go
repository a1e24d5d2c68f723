package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options configures an S3-compatible disk.
type S3Options struct {
	Endpoint       string
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
	// PublicURL is the base blob URLs are built from; defaults to endpoint/bucket.
	PublicURL string
}

// S3Disk stores blobs in one bucket of an S3-compatible object store.
type S3Disk struct {
	api       *s3.Client
	bucket    string
	publicURL string
}

// NewS3Disk builds the AWS SDK v2 client for opts.
func NewS3Disk(ctx context.Context, opts S3Options) (*S3Disk, error) {
	if opts.Bucket == "" {
		return nil, errors.New("S3_BUCKET is required")
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		awsconfig.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	endpoint := strings.TrimRight(opts.Endpoint, "/")
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.ForcePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	publicURL := strings.TrimRight(opts.PublicURL, "/")
	if publicURL == "" {
		if endpoint != "" {
			publicURL = endpoint + "/" + opts.Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, region)
		}
	}

	return &S3Disk{api: client, bucket: opts.Bucket, publicURL: publicURL}, nil
}

func (d *S3Disk) Name() string { return DiskS3 }

func (d *S3Disk) Put(ctx context.Context, path string, data []byte, mimeType string) error {
	size := int64(len(data))
	input := &s3.PutObjectInput{
		Bucket:        aws.String(d.bucket),
		Key:           aws.String(path),
		Body:          bytes.NewReader(data),
		ContentLength: &size,
	}
	if mimeType != "" {
		input.ContentType = aws.String(mimeType)
	}
	if _, err := d.api.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to put s3 object %s: %w", path, err)
	}
	return nil
}

func (d *S3Disk) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	out, err := d.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, 0, ErrBlobNotFound
		}
		return nil, 0, fmt.Errorf("failed to get s3 object %s: %w", path, err)
	}
	return out.Body, aws.ToInt64(out.ContentLength), nil
}

// Delete relies on S3 treating deletes of missing keys as success.
func (d *S3Disk) Delete(ctx context.Context, path string) error {
	_, err := d.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(path),
	})
	if err != nil && !isS3NotFound(err) {
		return fmt.Errorf("failed to delete s3 object %s: %w", path, err)
	}
	return nil
}

func (d *S3Disk) URL(path string) string {
	return d.publicURL + "/" + strings.TrimLeft(path, "/")
}

func isS3NotFound(err error) bool {
	var noSuchKey *s3types.NoSuchKey
	var notFound *s3types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
