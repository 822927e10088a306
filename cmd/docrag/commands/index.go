package commands

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/patrickverol/docrag-go/internal/chunker"
	"github.com/patrickverol/docrag-go/internal/embedder"
	"github.com/patrickverol/docrag-go/internal/ingestion"
	"github.com/patrickverol/docrag-go/internal/logging"
	"github.com/patrickverol/docrag-go/internal/storage"
)

// NewIndexCmd constructs the `docrag index` command, which runs the full
// reindex: list every document in the storage backend, extract and chunk
// text, embed the chunks, and rebuild the vector collection from scratch.
func NewIndexCmd() *cobra.Command {
	var chunkSize int
	var chunkOverlap int
	var docTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild the vector collection from the document storage backend",
		Long: `Run the full ingestion pipeline: the existing collection is deleted,
recreated empty, and repopulated from every supported document in the
configured storage backend. Documents with unsupported extensions are
skipped silently; documents that fail extraction or embedding are logged
and skipped without aborting the run.

Required environment variables:
  STORAGE_TYPE         Backend: local, s3, http (default: http)
  DOCUMENTS_PATH       Root directory for the local backend
  S3_BUCKET_NAME       Bucket name for the s3 backend
  DOCUMENT_STORAGE_URL Base URL for the http backend
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: documents)
  EMBEDDING_*          Embedding backend overrides (see README)

Examples:
  docrag index
  STORAGE_TYPE=local DOCUMENTS_PATH=./docs docrag index
  docrag index --chunk-size 300 --chunk-overlap 30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New("index")
			ctx = logging.WithLogger(ctx, log)

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("index: %w", err)
			}

			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("index: failed to initialise embedder: %w", err)
			}

			backend, err := storage.New(ctx, storage.ConfigFromEnv())
			if err != nil {
				return fmt.Errorf("index: failed to initialise storage backend: %w", err)
			}

			store, err := buildQdrantStore(ctx, uint64(embedder.Dimensions())) //nolint:gosec // dimensions are bounded
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			defer store.Close()
			log.Info("qdrant store ready", slog.String("collection", store.CollectionName()))

			pipeline, err := ingestion.New(backend, emb, store, ingestion.Config{
				ChunkSize:    chunkSize,
				ChunkOverlap: chunkOverlap,
				DocTimeout:   docTimeout,
			}, log)
			if err != nil {
				return fmt.Errorf("index: failed to create pipeline: %w", err)
			}

			report, err := pipeline.Reindex(ctx)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			fmt.Printf("indexed %d documents (%d chunks), skipped %d, failed %d\n",
				report.Indexed, report.Chunks, report.Skipped, report.Failed)
			return nil
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", getEnvInt("CHUNK_SIZE", chunker.DefaultChunkSize), "Target tokens per chunk")
	cmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", getEnvInt("CHUNK_OVERLAP", chunker.DefaultChunkOverlap), "Tokens shared between consecutive chunks")
	cmd.Flags().DurationVar(&docTimeout, "doc-timeout", time.Duration(getEnvInt("DOC_TIMEOUT_SECONDS", 300))*time.Second, "Per-document processing timeout")

	return cmd
}
