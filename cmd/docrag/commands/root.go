// Package commands defines all Cobra CLI commands for the docrag binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/patrickverol/docrag-go/internal/audit"
	"github.com/patrickverol/docrag-go/internal/config"
	"github.com/patrickverol/docrag-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docrag",
		Short: "docrag — retrieval-augmented question answering over your documents",
		Long: `docrag indexes a corpus of documents (PDF, DOCX, PPTX, TXT, CSV) into a
Qdrant vector collection and answers natural language questions against it
with per-chunk source citations.

Documents live in a pluggable storage backend (local directory, S3 bucket,
or HTTP document service) selected via the STORAGE_TYPE environment variable
or a YAML config file (~/.docrag/config.yaml).
See 'docrag --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A .env in the working directory seeds the environment, but never
			// overrides variables that are already set.
			_ = godotenv.Load()

			log := logging.New(cmd.Name())

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.docrag/config.yaml)")

	root.AddCommand(
		NewIndexCmd(),
		NewServeCmd(),
		NewStorageCmd(),
		NewVersionCmd(),
	)

	return root
}
