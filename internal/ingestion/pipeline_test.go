package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/patrickverol/docrag-go/internal/rag"
	"github.com/patrickverol/docrag-go/internal/storage"
)

// fakeBackend serves ref→content documents as owned temp files, recording
// each materialized path so tests can verify the pipeline released it.
type fakeBackend struct {
	dir          string
	docs         map[string]string
	listErr      error
	failRef      string
	materialized []string
}

func newFakeBackend(t *testing.T, docs map[string]string) *fakeBackend {
	t.Helper()
	return &fakeBackend{dir: t.TempDir(), docs: docs}
}

func (b *fakeBackend) ListDocuments(context.Context) ([]string, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	refs := make([]string, 0, len(b.docs))
	for ref := range b.docs {
		refs = append(refs, ref)
	}
	return refs, nil
}

func (b *fakeBackend) GetDocument(_ context.Context, ref string) (*storage.Handle, error) {
	if ref == b.failRef {
		return nil, storage.ErrTransport
	}
	content, ok := b.docs[ref]
	if !ok {
		return nil, storage.ErrNotFound
	}
	f, err := os.CreateTemp(b.dir, "doc-*"+filepath.Ext(ref))
	if err != nil {
		return nil, err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return nil, err
	}
	f.Close()
	b.materialized = append(b.materialized, f.Name())
	return storage.NewTempHandle(f.Name()), nil
}

func (b *fakeBackend) GetDocumentURL(_ context.Context, ref string) (string, error) {
	return "file://" + ref, nil
}

type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i]))}
	}
	return out, nil
}

type fakeStore struct {
	recreated   int
	upserts     int
	docs        []rag.Document
	recreateErr error
	upsertErr   error
}

func (s *fakeStore) Recreate(context.Context) error {
	if s.recreateErr != nil {
		return s.recreateErr
	}
	s.recreated++
	s.docs = nil
	return nil
}

func (s *fakeStore) EnsureCollection(context.Context) error { return nil }

func (s *fakeStore) Upsert(_ context.Context, docs []rag.Document, embeddings [][]float32) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	if len(docs) != len(embeddings) {
		return errors.New("docs and embeddings are not parallel")
	}
	if s.recreated == 0 {
		return errors.New("upsert before recreate")
	}
	s.upserts++
	s.docs = append(s.docs, docs...)
	return nil
}

func (s *fakeStore) Search(context.Context, []float32, int) ([]rag.Document, error) {
	return nil, nil
}
func (s *fakeStore) Count(context.Context) (uint64, error) { return uint64(len(s.docs)), nil }
func (s *fakeStore) Close() error                          { return nil }

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestReindex_MixedDocuments(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend(t, map[string]string{
		"notes.txt":   "the quick brown fox jumps over the lazy dog",
		"data.csv":    "name,amount\nalpha,10",
		"image.png":   "\x89PNG",
		"archive.zip": "PK",
		"empty.txt":   "   ",
	})
	store := &fakeStore{}

	p, err := New(backend, &fakeEmbedder{}, store, Config{}, discard())
	if err != nil {
		t.Fatal(err)
	}

	report, err := p.Reindex(t.Context())
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}

	if report.Indexed != 2 {
		t.Errorf("Indexed = %d, want 2", report.Indexed)
	}
	// Two unsupported extensions plus one whitespace-only document.
	if report.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3", report.Skipped)
	}
	if report.Failed != 0 {
		t.Errorf("Failed = %d, want 0", report.Failed)
	}
	if report.Chunks != len(store.docs) {
		t.Errorf("report.Chunks = %d but store holds %d docs", report.Chunks, len(store.docs))
	}
	if store.recreated != 1 {
		t.Errorf("Recreate called %d times, want 1", store.recreated)
	}
}

func TestReindex_FailureIsolation(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend(t, map[string]string{
		"good.txt": "some indexable text here",
		"bad.txt":  "never downloaded",
	})
	backend.failRef = "bad.txt"
	store := &fakeStore{}

	p, err := New(backend, &fakeEmbedder{}, store, Config{}, discard())
	if err != nil {
		t.Fatal(err)
	}

	report, err := p.Reindex(t.Context())
	if err != nil {
		t.Fatalf("a per-document failure must not abort the run: %v", err)
	}
	if report.Failed != 1 || report.Indexed != 1 {
		t.Errorf("report = %+v, want 1 indexed and 1 failed", report)
	}
}

func TestReindex_EmptyBackend(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	p, err := New(newFakeBackend(t, nil), &fakeEmbedder{}, store, Config{}, discard())
	if err != nil {
		t.Fatal(err)
	}

	report, err := p.Reindex(t.Context())
	if err != nil {
		t.Fatalf("empty backend must be a valid run: %v", err)
	}
	if *report != (Report{}) {
		t.Errorf("report = %+v, want all zeroes", report)
	}
	if store.recreated != 1 {
		t.Error("collection should still be recreated so the index ends empty")
	}
}

func TestReindex_ListError(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend(t, nil)
	backend.listErr = storage.ErrTransport

	p, err := New(backend, &fakeEmbedder{}, &fakeStore{}, Config{}, discard())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Reindex(t.Context()); !errors.Is(err, storage.ErrTransport) {
		t.Errorf("expected listing error to abort the run, got %v", err)
	}
}

func TestReindex_ReleasesHandles(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend(t, map[string]string{
		"a.txt": "first document body",
		"b.txt": "second document body",
	})
	emb := &fakeEmbedder{err: errors.New("embedder down")}

	p, err := New(backend, emb, &fakeStore{}, Config{}, discard())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Reindex(t.Context()); err != nil {
		t.Fatalf("Reindex: %v", err)
	}

	// Every materialized document is released even on the failure path.
	if len(backend.materialized) != 2 {
		t.Fatalf("expected 2 materialized documents, got %d", len(backend.materialized))
	}
	for _, path := range backend.materialized {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("temp file %s was not released", path)
		}
	}
}

func TestChunkID_Deterministic(t *testing.T) {
	t.Parallel()

	a := chunkID("reports/q3.pdf", 0)
	b := chunkID("reports/q3.pdf", 0)
	if a != b {
		t.Errorf("same ref and index must produce the same ID: %q vs %q", a, b)
	}
	if a == chunkID("reports/q3.pdf", 1) {
		t.Error("different chunk indexes must produce different IDs")
	}
	if a == chunkID("reports/q4.pdf", 0) {
		t.Error("different refs must produce different IDs")
	}

	// UUID shape: 8-4-4-4-12 hex groups.
	if len(a) != 36 || a[8] != '-' || a[13] != '-' || a[18] != '-' || a[23] != '-' {
		t.Errorf("ID %q is not UUID-shaped", a)
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend(t, nil)
	if _, err := New(nil, &fakeEmbedder{}, &fakeStore{}, Config{}, nil); err == nil {
		t.Error("expected error for nil backend")
	}
	if _, err := New(backend, nil, &fakeStore{}, Config{}, nil); err == nil {
		t.Error("expected error for nil embedder")
	}
	if _, err := New(backend, &fakeEmbedder{}, nil, Config{}, nil); err == nil {
		t.Error("expected error for nil store")
	}
}
