package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/clinrag/clinrag-cli/internal/core/domain"
)

var ingestForceRefresh bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest clinical trial records into the vector store",
	Long: `Reads a JSON array of trial records from a file (or stdin when no
file is given), renders each into a document, chunks it and indexes the
chunks. Re-running against a populated store requires --force-refresh,
which clears the store first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestForceRefresh, "force-refresh", false, "clear the store before ingesting")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if assistant == nil {
		return errors.New("assistant not configured")
	}
	ctx := cmd.Context()

	stats, err := assistant.Stats(ctx)
	if err != nil {
		return fmt.Errorf("inspect store: %w", err)
	}
	if stats.TotalDocuments > 0 {
		if !ingestForceRefresh {
			return fmt.Errorf("store already holds %d documents; use --force-refresh to replace them", stats.TotalDocuments)
		}
		if err := assistant.Clear(ctx); err != nil {
			return fmt.Errorf("clear store: %w", err)
		}
		cmd.Printf("Cleared %d existing documents.\n", stats.TotalDocuments)
	}

	records, err := readRecords(cmd, args)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		cmd.Println("No records to ingest.")
		return nil
	}

	if err := assistant.AddTrials(ctx, records); err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	after, err := assistant.Stats(ctx)
	if err != nil {
		return fmt.Errorf("inspect store: %w", err)
	}
	cmd.Printf("Ingested %d records (%d documents indexed).\n", len(records), after.TotalDocuments)
	return nil
}

// readRecords decodes the JSON array from the file argument or stdin.
func readRecords(cmd *cobra.Command, args []string) ([]domain.TrialRecord, error) {
	var reader io.Reader
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("open records file: %w", err)
		}
		defer f.Close()
		reader = f
	} else {
		reader = cmd.InOrStdin()
	}

	var records []domain.TrialRecord
	if err := json.NewDecoder(reader).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}
