// Package cli provides the command-line interface for podrag.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/podrag-go/internal/catalog"
	"github.com/raphaelgruber/podrag-go/internal/config"
	"github.com/raphaelgruber/podrag-go/internal/history"
	"github.com/raphaelgruber/podrag-go/internal/index"
	"github.com/raphaelgruber/podrag-go/internal/llm"
	"github.com/raphaelgruber/podrag-go/internal/pipeline"
	"github.com/raphaelgruber/podrag-go/internal/surreal"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and db client
	cfg           config.Config
	surrealClient *surreal.Client
	closeLogger   func() error

	// Lazy-initialized LLM embedder
	embedder *llm.Embedder
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "podrag",
	Short: "Podcast archive Q&A assistant",
	Long: `Podrag answers questions about a podcast archive: find episodes by
topic tags, summarise individual episodes, list an episode's tags, or
browse the full tag catalogue.

Questions are classified, matched against the episode index with
vector search, and answered by a chat model grounded in the retrieved
episodes.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Version, help and tags work without config or database.
		switch cmd.Name() {
		case "version", "help", "tags", "stats":
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		logger, closeFn := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		closeLogger = closeFn
		slog.SetDefault(logger)

		ctx := context.Background()
		surrealClient, err = surreal.NewClient(ctx, surreal.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if surrealClient != nil {
			if err := surrealClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if closeLogger != nil {
			_ = closeLogger()
		}
	},
}

// getEmbedder lazily initializes the embedding client.
func getEmbedder() (*llm.Embedder, error) {
	if embedder == nil {
		var err error
		embedder, err = llm.NewEmbedder(cfg)
		if err != nil {
			return nil, fmt.Errorf("init embedder: %w", err)
		}
	}
	return embedder, nil
}

// getPipeline wires the query pipeline over the open database
// connection. Chat model clients are created lazily per model id.
func getPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	emb, err := getEmbedder()
	if err != nil {
		return nil, err
	}

	idx, err := index.NewSurreal(ctx, surrealClient, emb, emb.Dimension(), nil)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	store, err := history.NewSurrealStore(ctx, surrealClient)
	if err != nil {
		return nil, fmt.Errorf("init history: %w", err)
	}

	return pipeline.New(pipeline.Config{
		Models: func(ctx context.Context, modelID string) (pipeline.ChatModel, error) {
			return llm.NewClient(ctx, cfg, modelID)
		},
		Index:         idx,
		History:       store,
		Tags:          catalog.Default(),
		PromptVariant: pipeline.ParseVariant(cfg.PromptVariant),
		HistoryWindow: cfg.HistoryWindow,
	})
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(statsCmd)
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
