// Package cli implements the command line interface for clinrag.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/clinrag/clinrag-cli/internal/adapters/driven/config/file"
	ollamaembed "github.com/clinrag/clinrag-cli/internal/adapters/driven/embedding/ollama"
	ollamallm "github.com/clinrag/clinrag-cli/internal/adapters/driven/llm/ollama"
	"github.com/clinrag/clinrag-cli/internal/adapters/driven/vectorstore/sqlite"
	"github.com/clinrag/clinrag-cli/internal/builder"
	"github.com/clinrag/clinrag-cli/internal/core/ports/driving"
	"github.com/clinrag/clinrag-cli/internal/core/services"
	"github.com/clinrag/clinrag-cli/internal/logger"
	"github.com/clinrag/clinrag-cli/internal/postprocessors/chunker"
)

// version is set at build time via ldflags.
var version = "dev"

// assistant is the service behind every command. Tests inject a mock;
// production wiring happens lazily in initServices so flag values are
// available first.
var assistant driving.Assistant

var (
	flagVerbose   bool
	flagConfigDir string
	flagDataDir   string
)

// shutdown closes the wired adapters on exit.
var shutdown func()

var rootCmd = &cobra.Command{
	Use:   "clinrag",
	Short: "Ask questions about clinical trials",
	Long: `clinrag answers questions about clinical trials using retrieval-augmented
generation over a local vector store, with Ollama providing embeddings
and text generation. Ingest trial records once, then ask away.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		if assistant != nil {
			return nil // Injected by tests or a prior run
		}
		return initServices()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if shutdown != nil {
			shutdown()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default ~/.clinrag)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "vector store directory (default ~/.clinrag/data)")
}

// initServices wires the adapters into the assistant from configuration
// and flags. Flags win over config file values, config file values win
// over defaults.
func initServices() error {
	cfg, err := file.NewConfigStore(flagConfigDir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}

	baseURL := cfg.GetString("ollama.base_url", ollamallm.DefaultBaseURL)
	timeout := time.Duration(cfg.GetInt("ollama.timeout_seconds", 30)) * time.Second

	llm := ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL: baseURL,
		Model:   cfg.GetString("llm.model", ollamallm.DefaultLLMModel),
		Timeout: timeout,
	})
	embedder := ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    baseURL,
		Model:      cfg.GetString("embedding.model", ollamaembed.DefaultModel),
		Timeout:    timeout,
		Dimensions: cfg.GetInt("embedding.dimensions", ollamaembed.DefaultDimensions),
	})

	dataDir := flagDataDir
	if dataDir == "" {
		dataDir = cfg.GetString("store.data_dir", "")
	}
	store, err := sqlite.NewStore(dataDir, embedder)
	if err != nil {
		return fmt.Errorf("open vector store: %w", err)
	}

	prompts, err := file.NewPromptStore(cfg.GetString("prompts.dir", ""))
	if err != nil {
		return fmt.Errorf("open prompt store: %w", err)
	}
	if err := prompts.Watch(); err != nil {
		logger.Warn("prompt hot-reload unavailable: %v", err)
	}

	b := builder.New(
		chunker.WithChunkSize(cfg.GetInt("chunk.size", 0)),
		chunker.WithOverlap(cfg.GetInt("chunk.overlap", -1)),
	)

	a := services.NewAssistant(store, llm, prompts, b)
	if cfg.GetBool("analyzer.enabled", false) {
		a.SetAnalyzer(services.NewQueryAnalyzer(llm, prompts))
	}
	if rps := cfg.GetInt("ingest.batches_per_second", 0); rps > 0 {
		a.SetIngestRate(float64(rps))
	}

	assistant = a
	shutdown = func() {
		prompts.Close()
		store.Close()
		embedder.Close()
		llm.Close()
	}
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
