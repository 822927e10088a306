// Package ingestion implements the full reindex pipeline: list every document
// in the storage backend, download each one to a scoped temporary file,
// extract its text, chunk it, embed the chunks, and upsert them into the
// vector store. The collection is destroyed and rebuilt on every run — the
// index is a derived artifact, never the source of truth.
package ingestion

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickverol/docrag-go/internal/chunker"
	"github.com/patrickverol/docrag-go/internal/extract"
	"github.com/patrickverol/docrag-go/internal/rag"
	"github.com/patrickverol/docrag-go/internal/storage"
)

// Config holds the tunable pipeline parameters.
type Config struct {
	// ChunkSize is the target number of tokens per chunk.
	// Zero selects chunker.DefaultChunkSize.
	ChunkSize int

	// ChunkOverlap is the number of tokens shared between consecutive chunks.
	// Negative selects zero; zero is honored as-is when ChunkSize is set.
	ChunkOverlap int

	// DocTimeout bounds the processing of a single document, covering
	// download, extraction, embedding, and upsert. Zero disables the bound.
	DocTimeout time.Duration
}

// Report summarizes one reindex run. A document counts in exactly one of
// Indexed, Skipped, or Failed.
type Report struct {
	// Indexed is the number of documents whose chunks reached the store.
	Indexed int

	// Skipped is the number of documents with unsupported extensions or no
	// extractable text.
	Skipped int

	// Failed is the number of documents abandoned after an error. Failures
	// never abort the run.
	Failed int

	// Chunks is the total number of chunks upserted across all documents.
	Chunks int
}

// Pipeline wires a storage backend, an embedder, and a vector store into the
// reindex flow.
type Pipeline struct {
	backend  storage.Backend
	embedder rag.Embedder
	store    rag.VectorStore
	splitter *chunker.Splitter
	cfg      Config
	log      *slog.Logger
}

// New constructs a Pipeline. All three collaborators are required; cfg zero
// values select the documented defaults.
func New(backend storage.Backend, embedder rag.Embedder, store rag.VectorStore, cfg Config, log *slog.Logger) (*Pipeline, error) {
	if backend == nil {
		return nil, fmt.Errorf("ingestion: storage backend must not be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: vector store must not be nil")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunker.DefaultChunkSize
		if cfg.ChunkOverlap == 0 {
			cfg.ChunkOverlap = chunker.DefaultChunkOverlap
		}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		backend:  backend,
		embedder: embedder,
		store:    store,
		splitter: chunker.New(cfg.ChunkSize, cfg.ChunkOverlap),
		cfg:      cfg,
		log:      log,
	}, nil
}

// Reindex rebuilds the collection from scratch: the existing collection is
// deleted, recreated empty, and repopulated document by document. Listing or
// collection recreation failures abort the run; per-document failures are
// logged, counted, and skipped. An empty storage backend is a valid run that
// leaves an empty collection.
func (p *Pipeline) Reindex(ctx context.Context) (*Report, error) {
	refs, err := p.backend.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingestion: listing documents failed: %w", err)
	}

	if err := p.store.Recreate(ctx); err != nil {
		return nil, fmt.Errorf("ingestion: recreating collection failed: %w", err)
	}

	p.log.Info("reindex started", slog.Int("documents", len(refs)))

	report := &Report{}
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("ingestion: reindex interrupted: %w", err)
		}

		chunks, err := p.processDocument(ctx, ref)
		switch {
		case err != nil:
			report.Failed++
			p.log.Error("document failed",
				slog.String("path", ref),
				slog.String("error", err.Error()),
			)
		case chunks == 0:
			report.Skipped++
			p.log.Debug("document skipped", slog.String("path", ref))
		default:
			report.Indexed++
			report.Chunks += chunks
			p.log.Info("document indexed",
				slog.String("path", ref),
				slog.Int("chunks", chunks),
			)
		}
	}

	p.log.Info("reindex finished",
		slog.Int("indexed", report.Indexed),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
		slog.Int("chunks", report.Chunks),
	)
	return report, nil
}

// processDocument runs the per-document stages for one reference and returns
// the number of chunks upserted. Zero with a nil error means the document was
// skipped (unsupported format or no extractable text).
func (p *Pipeline) processDocument(ctx context.Context, ref string) (int, error) {
	format, ok := extract.DetectFormat(ref)
	if !ok {
		return 0, nil
	}

	if p.cfg.DocTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.DocTimeout)
		defer cancel()
	}

	handle, err := p.backend.GetDocument(ctx, ref)
	if err != nil {
		return 0, fmt.Errorf("download: %w", err)
	}
	defer handle.Close()

	text, err := extract.Text(handle.Path, format)
	if err != nil {
		return 0, fmt.Errorf("extract: %w", err)
	}

	chunks := p.splitter.Split(text)
	if len(chunks) == 0 {
		return 0, nil
	}

	embeddings, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}

	docs := make([]rag.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, rag.Document{
			ID:      chunkID(ref, i),
			Content: chunk,
			Path:    ref,
		})
	}

	if err := p.store.Upsert(ctx, docs, embeddings); err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}
	return len(chunks), nil
}

// chunkID derives a deterministic UUID-shaped point ID from the document
// reference and the chunk's position. Re-ingesting the same document yields
// the same IDs, so repeated runs upsert rather than duplicate.
func chunkID(ref string, index int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", ref, index)))
	return fmt.Sprintf("%x-%x-%x-%x-%x", sum[0:4], sum[4:6], sum[6:8], sum[8:10], sum[10:16])
}
