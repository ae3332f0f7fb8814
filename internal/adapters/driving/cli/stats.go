package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector store statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if assistant == nil {
		return errors.New("assistant not configured")
	}

	stats, err := assistant.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	cmd.Println("Vector store:")
	cmd.Printf("  Collection: %s\n", stats.CollectionName)
	cmd.Printf("  Documents:  %d\n", stats.TotalDocuments)
	if stats.PersistDirectory != "" {
		cmd.Printf("  Directory:  %s\n", stats.PersistDirectory)
	}
	return nil
}
