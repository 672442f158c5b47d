// catalogctl maintains the parts catalog database: it ingests seed files
// and rebuilds the semantic document index.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/partpilot/server/internal/core"
	"github.com/partpilot/server/internal/embedding"
	"github.com/partpilot/server/internal/store"
	logx "github.com/partpilot/server/pkg/logger"
)

var dbPath string

type toolConfig struct {
	Catalog  store.Config
	Embedder embedding.Config
}

// openStores opens the catalog and the semantic index on top of it. The
// --db flag wins over the environment.
func openStores() (*store.Catalog, *store.SemanticStore, error) {
	_ = godotenv.Load(".env")

	var cfg toolConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, nil, fmt.Errorf("process environment config: %w", err)
	}
	if dbPath != "" {
		cfg.Catalog.Path = dbPath
	}

	catalog, err := store.Open(cfg.Catalog)
	if err != nil {
		return nil, nil, err
	}

	engine, err := embedding.NewEngine(cfg.Embedder)
	if err != nil {
		catalog.Close()
		return nil, nil, err
	}

	index, err := store.NewSemanticStore(catalog.DB(), engine)
	if err != nil {
		catalog.Close()
		return nil, nil, err
	}
	return catalog, index, nil
}

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Maintain the partpilot catalog database",
	Long: `catalogctl loads seed data into the parts catalog and maintains the
semantic document index used by the chat pipeline.

Connection settings come from the environment (or .env); --db overrides
the catalog path.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logx.Init(logx.LoggerOpts{Environment: core.Development})
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <seed-file.json>",
	Short: "Load products, guides, compatibility facts and documents from a seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := store.LoadSeedFile(args[0])
		if err != nil {
			return err
		}

		catalog, index, err := openStores()
		if err != nil {
			return err
		}
		defer catalog.Close()

		counts, err := store.Seed(cmd.Context(), catalog, index, seed)
		if err != nil {
			return err
		}

		fmt.Printf("Ingested %d products, %d guides, %d compatibility facts, %d documents (%d skipped)\n",
			counts.Products, counts.Guides, counts.Facts, counts.Docs, counts.Skipped)
		return nil
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-embed every semantic document with the configured engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, index, err := openStores()
		if err != nil {
			return err
		}
		defer catalog.Close()

		n, err := index.Reindex(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Re-embedded %d documents\n", n)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "catalog database path (overrides CATALOG_DB_PATH)")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(reindexCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
