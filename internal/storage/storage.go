// Package storage provides a uniform document-access abstraction over three
// backends: local filesystem, S3-compatible object storage, and a remote HTTP
// document service. The backend is selected once at startup via configuration;
// no runtime mixing of backends occurs.
//
// Remote backends (S3, HTTP) materialize documents into temporary local files.
// Callers own the returned Handle and must Close it on every exit path to
// bound disk usage during long ingestion runs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrNotFound indicates the referenced document does not exist in the backend.
var ErrNotFound = errors.New("storage: document not found")

// ErrTransport indicates a network, listing, or download failure while
// talking to a remote backend.
var ErrTransport = errors.New("storage: transport error")

// Backend is the capability set shared by all storage variants.
// Implementations must be safe to call from multiple goroutines.
type Backend interface {
	// ListDocuments returns all document references available in the backend.
	// References are paths relative to the backend root (local), flat object
	// keys (S3), or server-relative paths (HTTP). They are unique within a
	// backend but not across backends.
	ListDocuments(ctx context.Context) ([]string, error)

	// GetDocument materializes the referenced document as a local file and
	// returns a Handle to it. The caller owns the Handle and must Close it
	// when done; for remote backends Close removes the temporary file.
	// Returns ErrNotFound (wrapped) when the document does not exist.
	GetDocument(ctx context.Context, ref string) (*Handle, error)

	// GetDocumentURL returns a locator for the document: a direct server path
	// (local), a time-limited presigned URL (S3), or a fully qualified HTTP
	// URL with per-segment percent-encoding (HTTP).
	GetDocumentURL(ctx context.Context, ref string) (string, error)
}

// Handle is a scoped reference to a locally materialized document.
// Close must be called on every exit path; it is a no-op for documents that
// already live on the local filesystem.
type Handle struct {
	// Path is the local filesystem path of the materialized document.
	Path string

	// temp is true when Path is a temporary file owned by this Handle.
	temp bool
}

// NewTempHandle returns a Handle that owns the temporary file at path.
// Closing the Handle deletes the file.
func NewTempHandle(path string) *Handle {
	return &Handle{Path: path, temp: true}
}

// Close releases the materialized document. For temporary downloads the
// backing file is deleted; for local documents this is a no-op.
// Close is idempotent.
func (h *Handle) Close() error {
	if h == nil || !h.temp {
		return nil
	}
	h.temp = false
	if err := os.Remove(h.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: remove temp file %s: %w", h.Path, err)
	}
	return nil
}

// Config selects and parameterizes a storage backend.
type Config struct {
	// Type selects the backend variant: "local", "s3", or "http".
	Type string

	// BasePath is the root directory for the local backend.
	BasePath string

	// Bucket is the S3 bucket name (s3 only).
	Bucket string

	// Region is the AWS region (s3 only).
	Region string

	// Endpoint is an optional custom S3 endpoint URL, e.g. for MinIO (s3 only).
	Endpoint string

	// BaseURL is the document service base URL (http only).
	BaseURL string
}

// New constructs the storage backend described by cfg.
// Returns an error for unknown backend types or missing required parameters.
func New(ctx context.Context, cfg *Config) (Backend, error) {
	switch cfg.Type {
	case "local":
		return NewLocalBackend(cfg.BasePath)
	case "s3":
		return NewS3Backend(ctx, cfg)
	case "http":
		return NewHTTPBackend(cfg.BaseURL)
	default:
		return nil, fmt.Errorf("storage: unsupported backend type %q — valid values: local, s3, http", cfg.Type)
	}
}

// ConfigFromEnv builds a storage Config from environment variables.
//
//	STORAGE_TYPE          = local | s3 | http (default: http)
//	DOCUMENTS_PATH        local root directory (default: /app/documents)
//	S3_BUCKET_NAME        S3 bucket name
//	AWS_REGION            AWS region
//	S3_ENDPOINT_URL       optional custom S3 endpoint (MinIO etc.)
//	DOCUMENT_STORAGE_URL  document service base URL (default: http://document_storage:8080)
func ConfigFromEnv() *Config {
	cfg := &Config{Type: getEnvOrDefault("STORAGE_TYPE", "http")}
	switch cfg.Type {
	case "local":
		cfg.BasePath = getEnvOrDefault("DOCUMENTS_PATH", "/app/documents")
	case "s3":
		cfg.Bucket = os.Getenv("S3_BUCKET_NAME")
		cfg.Region = os.Getenv("AWS_REGION")
		cfg.Endpoint = os.Getenv("S3_ENDPOINT_URL")
	default:
		cfg.BaseURL = getEnvOrDefault("DOCUMENT_STORAGE_URL", "http://document_storage:8080")
	}
	return cfg
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
