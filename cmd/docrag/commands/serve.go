package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/patrickverol/docrag-go/internal/answer"
	"github.com/patrickverol/docrag-go/internal/embedder"
	"github.com/patrickverol/docrag-go/internal/feedback"
	"github.com/patrickverol/docrag-go/internal/logging"
	"github.com/patrickverol/docrag-go/internal/provider"
	"github.com/patrickverol/docrag-go/internal/rag"
	"github.com/patrickverol/docrag-go/internal/server"
)

// NewServeCmd constructs the `docrag serve` command, which starts the HTTP
// query API server.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the docrag query API server",
		Long: `Start the HTTP server that answers questions against the indexed
document collection.

The server exposes POST /api/query for retrieval-augmented answers,
POST /api/feedback for answer ratings, and operational endpoints
(/api/health, /api/ready, /api/status, /metrics).

The collection is created empty if it does not exist, so a fresh
deployment can serve (empty) queries before the first 'docrag index' run.

Examples:
  docrag serve
  docrag serve --port 9090
  MODEL_PROVIDER=openai OPENAI_BASE_URL=https://integrate.api.nvidia.com/v1 docrag serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New("serve")
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("serve: failed to initialise embedder: %w", err)
			}

			store, err := buildQdrantStore(ctx, uint64(embedder.Dimensions())) //nolint:gosec // dimensions are bounded
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer store.Close()

			if err := store.EnsureCollection(ctx); err != nil {
				return fmt.Errorf("serve: failed to ensure collection: %w", err)
			}
			log.Info("qdrant store ready", slog.String("collection", store.CollectionName()))

			retriever, err := rag.NewRetriever(emb, store, getEnvInt("RETRIEVAL_TOP_K", rag.DefaultTopK))
			if err != nil {
				return fmt.Errorf("serve: failed to create retriever: %w", err)
			}

			// The chat model is optional: without it the server runs in
			// retrieval-only mode and every query reports answer_available=false.
			var generator *answer.Generator
			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				log.Warn("serve: chat model unavailable — running retrieval-only", slog.Any("error", err))
			} else {
				generator, err = answer.NewGenerator(chatModel)
				if err != nil {
					return fmt.Errorf("serve: %w", err)
				}
			}

			// Open the feedback store. FEEDBACK_DB overrides the default path
			// (~/.docrag/feedback.db). Set to "disabled" to disable.
			var feedbackStore *feedback.SQLiteStore
			dbPath := os.Getenv("FEEDBACK_DB")
			if dbPath != "disabled" {
				if dbPath == "" {
					dbPath, err = feedback.DefaultDBPath()
					if err != nil {
						log.Warn("feedback: could not resolve default DB path, disabling", slog.Any("error", err))
						dbPath = ""
					}
				}
				if dbPath != "" {
					fs, fsErr := feedback.Open(dbPath)
					if fsErr != nil {
						log.Warn("feedback: failed to open store, disabling", slog.Any("error", fsErr))
					} else {
						feedbackStore = fs
						defer func() { _ = fs.Close() }()
						log.Info("feedback: store opened", slog.String("path", dbPath))
					}
				}
			} else {
				log.Info("feedback: disabled via FEEDBACK_DB=disabled")
			}

			deps := server.Deps{
				Retriever: retriever,
				Counter:   store,
			}
			if generator != nil {
				deps.Answerer = generator
			}
			if feedbackStore != nil {
				deps.Feedback = feedbackStore
			}

			srv, err := server.New(deps, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: []server.Pinger{server.NewQdrantPinger(store)},
				APIKey:  os.Getenv("DOCRAG_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", getEnvOrDefault("SERVER_HOST", "127.0.0.1"), "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", getEnvInt("SERVER_PORT", 8080), "TCP port to listen on")

	return cmd
}
