package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPBackend implements Backend over a remote document service exposing
//
//	GET /documents        → JSON array of document references
//	GET /documents/{path} → raw document bytes
//
// as served by the `docrag storage` command or any compatible service.
type HTTPBackend struct {
	// baseURL is the service base URL without a trailing slash.
	baseURL string

	// client is the shared HTTP client with a sensible timeout.
	client *http.Client
}

// NewHTTPBackend constructs an HTTPBackend for the service at baseURL.
func NewHTTPBackend(baseURL string) (*HTTPBackend, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("storage: http backend requires a base URL")
	}
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// ListDocuments fetches the remote document listing.
// Any network or decoding failure is surfaced as ErrTransport.
func (b *HTTPBackend) ListDocuments(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/documents", nil)
	if err != nil {
		return nil, fmt.Errorf("storage: create list request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %s", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: list documents: unexpected status %d", ErrTransport, resp.StatusCode)
	}

	var docs []string
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		return nil, fmt.Errorf("%w: decode document listing: %s", ErrTransport, err)
	}
	return docs, nil
}

// GetDocument downloads the document into a temporary file and returns a
// Handle that owns it. The caller must Close the Handle to delete the file.
func (b *HTTPBackend) GetDocument(ctx context.Context, ref string) (*Handle, error) {
	docURL, err := b.GetDocumentURL(ctx, ref)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: create download request for %s: %w", ref, err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: download %s: %s", ErrTransport, ref, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: download %s: unexpected status %d", ErrTransport, ref, resp.StatusCode)
	}

	return materialize(resp.Body, ref)
}

// GetDocumentURL builds the fully qualified URL of the document. Each path
// segment is percent-encoded independently so literal `/` separators survive
// while spaces and other reserved characters inside a segment do not break
// the URL.
func (b *HTTPBackend) GetDocumentURL(_ context.Context, ref string) (string, error) {
	return b.baseURL + "/documents/" + encodePathSegments(ref), nil
}

// encodePathSegments percent-encodes each slash-separated segment of ref
// individually, preserving the separators themselves.
func encodePathSegments(ref string) string {
	segments := strings.Split(ref, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
