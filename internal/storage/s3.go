package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// presignExpiry is how long S3 presigned document URLs remain valid.
const presignExpiry = time.Hour

// S3Backend implements Backend over an S3-compatible object store.
// Document references are flat object keys within a single bucket.
type S3Backend struct {
	// client is the S3 API client.
	client *s3.Client

	// presign generates time-limited GET URLs for document download links.
	presign *s3.PresignClient

	// bucket is the bucket holding all documents.
	bucket string
}

// NewS3Backend constructs an S3Backend from cfg. Credentials are resolved via
// the standard AWS SDK chain (env vars, shared config, instance profile).
// A custom Endpoint enables MinIO and other S3-compatible stores.
func NewS3Backend(ctx context.Context, cfg *Config) (*S3Backend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: s3 backend requires a bucket name")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Path-style addressing is required by MinIO and most
			// self-hosted S3-compatible stores.
			o.UsePathStyle = true
		}
	})

	return &S3Backend{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
	}, nil
}

// ListDocuments returns all object keys in the bucket. The key space is flat;
// keys may contain slashes but no directory hierarchy is implied.
func (b *S3Backend) ListDocuments(ctx context.Context) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list bucket %s: %s", ErrTransport, b.bucket, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// GetDocument downloads the object into a temporary file and returns a Handle
// that owns it. The caller must Close the Handle to delete the file.
func (b *S3Backend) GetDocument(ctx context.Context, ref string) (*Handle, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("%w: download %s: %s", ErrTransport, ref, err)
	}
	defer out.Body.Close()

	return materialize(out.Body, ref)
}

// GetDocumentURL generates a presigned GET URL valid for one hour.
func (b *S3Backend) GetDocumentURL(ctx context.Context, ref string) (string, error) {
	req, err := b.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(ref),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("%w: presign %s: %s", ErrTransport, ref, err)
	}
	return req.URL, nil
}

// materialize copies r into a new temporary file and returns a Handle that
// owns it. The file is removed again if the copy fails partway.
func materialize(r io.Reader, ref string) (*Handle, error) {
	tmp, err := os.CreateTemp("", "docrag-*")
	if err != nil {
		return nil, fmt.Errorf("storage: create temp file for %s: %w", ref, err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("%w: download %s: %s", ErrTransport, ref, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("storage: close temp file for %s: %w", ref, err)
	}
	return NewTempHandle(tmp.Name()), nil
}
