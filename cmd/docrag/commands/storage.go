package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/patrickverol/docrag-go/internal/docserver"
	"github.com/patrickverol/docrag-go/internal/logging"
)

// NewStorageCmd constructs the `docrag storage` command, which runs the
// standalone document storage service used by the http storage backend.
func NewStorageCmd() *cobra.Command {
	var host string
	var port int
	var root string

	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Serve a documents directory over HTTP for the ingestion pipeline",
		Long: `Run the standalone document storage service.

The service exposes GET /documents (a recursive listing of document
references) and GET /documents/{path} (raw file bytes). Point the
pipeline's http backend at it with DOCUMENT_STORAGE_URL.

Examples:
  docrag storage --root ./documents
  docrag storage --root /srv/documents --port 8081`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New("storage")
			ctx = logging.WithLogger(ctx, log)

			srv, err := docserver.New(&docserver.Config{
				Host:   host,
				Port:   port,
				Root:   root,
				Logger: log,
			})
			if err != nil {
				return fmt.Errorf("storage: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8081, "TCP port to listen on")
	cmd.Flags().StringVar(&root, "root", getEnvOrDefault("DOCUMENTS_PATH", "./documents"), "Directory to serve as the document tree")

	return cmd
}
